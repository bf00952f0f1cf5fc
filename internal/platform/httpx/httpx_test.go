package httpx

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"
)

type statusErr int

func (e statusErr) Error() string       { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) HTTPStatusCode() int { return int(e) }

func TestRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.Canceled, false},
		{context.DeadlineExceeded, true},
		{statusErr(429), true},
		{statusErr(503), true},
		{statusErr(400), false},
		{fmt.Errorf("wrapped: %w", statusErr(502)), true},
	}
	for _, tc := range cases {
		if got := Retryable(tc.err); got != tc.want {
			t.Fatalf("Retryable(%v): want=%v got=%v", tc.err, tc.want, got)
		}
	}
}

func TestRetryAfterForms(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	resp := &http.Response{Header: http.Header{}}

	resp.Header.Set("Retry-After", "7")
	if d, ok := RetryAfter(resp, now); !ok || d != 7*time.Second {
		t.Fatalf("seconds form: got %s %v", d, ok)
	}
	resp.Header.Set("Retry-After", now.Add(30*time.Second).Format(http.TimeFormat))
	if d, ok := RetryAfter(resp, now); !ok || d != 30*time.Second {
		t.Fatalf("date form: got %s %v", d, ok)
	}
	resp.Header.Set("Retry-After", "soon")
	if _, ok := RetryAfter(resp, now); ok {
		t.Fatalf("garbage header accepted")
	}
	if _, ok := RetryAfter(nil, now); ok {
		t.Fatalf("nil response accepted")
	}
}

func TestRetryNext(t *testing.T) {
	mid := func() float64 { return 0.5 }
	r := Retry{MaxRetries: 3, Base: time.Second, Cap: 10 * time.Second, rand: mid}

	if _, ok := (Retry{}).Next(0, nil, statusErr(503)); ok {
		t.Fatalf("zero policy must not retry")
	}
	if _, ok := r.Next(0, nil, statusErr(400)); ok {
		t.Fatalf("client errors are final")
	}
	if _, ok := r.Next(3, nil, statusErr(503)); ok {
		t.Fatalf("retried past MaxRetries")
	}
	for attempt, want := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second} {
		got, ok := r.Next(attempt, nil, statusErr(503))
		if !ok || got != want {
			t.Fatalf("attempt %d: want %s, got %s (%v)", attempt, want, got, ok)
		}
	}

	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("Retry-After", "120")
	if got, _ := r.Next(0, resp, statusErr(429)); got != 10*time.Second {
		t.Fatalf("Retry-After not capped: %s", got)
	}

	r.rand = func() float64 { return 0 }
	if got, _ := r.Next(0, nil, statusErr(503)); got != 800*time.Millisecond {
		t.Fatalf("jitter floor: %s", got)
	}
}

func TestSleepStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); err != context.Canceled {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if err := Sleep(context.Background(), 0); err != nil {
		t.Fatalf("zero sleep: %v", err)
	}
}
