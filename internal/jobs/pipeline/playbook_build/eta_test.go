package playbook_build

import (
	"testing"
	"time"
)

func TestEstimateRemaining(t *testing.T) {
	e := NewEstimator(12, 8*time.Second)
	if got := e.EstimateRemaining(0); got != 96*time.Second {
		t.Fatalf("want 96s, got %v", got)
	}
	if got := e.EstimateRemaining(30500 * time.Millisecond); got != 66*time.Second {
		t.Fatalf("want 66s, got %v", got)
	}
	if got := e.EstimateRemaining(5 * time.Minute); got != 0 {
		t.Fatalf("want 0, got %v", got)
	}
}

func TestRemainingText(t *testing.T) {
	e := NewEstimator(12, 8*time.Second)
	cases := []struct {
		progress int
		elapsed  time.Duration
		want     string
	}{
		{0, 0, "Estimating time..."},
		{4, 10 * time.Second, "Estimating time..."},
		{8, 10 * time.Second, "About 1m 26s remaining"},
		{50, 45 * time.Second, "About 51s remaining"},
		{92, 91 * time.Second, "About 05s remaining"},
		{92, 120 * time.Second, "Finishing up..."},
		{100, 20 * time.Second, ""},
	}
	for _, tc := range cases {
		if got := e.RemainingText(tc.progress, tc.elapsed); got != tc.want {
			t.Fatalf("RemainingText(%d, %v): want %q got %q", tc.progress, tc.elapsed, tc.want, got)
		}
	}
}

func TestNewEstimatorDefaults(t *testing.T) {
	e := NewEstimator(0, 0)
	if e.Stages != 12 || e.PerStage != 8*time.Second {
		t.Fatalf("unexpected defaults %+v", e)
	}
}
