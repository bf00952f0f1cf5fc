package observability

import "testing"

func TestParseHeaders(t *testing.T) {
	got := parseHeaders(" x-api-key=abc , bad, =v, k= ,team=core")
	if len(got) != 2 || got["x-api-key"] != "abc" || got["team"] != "core" {
		t.Fatalf("unexpected headers: %v", got)
	}
	if parseHeaders("  ") != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestClampRatio(t *testing.T) {
	if clampRatio(-1) != 0 || clampRatio(2) != 1 || clampRatio(0.25) != 0.25 {
		t.Fatalf("clampRatio out of range")
	}
}

func TestInitOTelDisabledIsNoop(t *testing.T) {
	if shutdown := InitOTel(t.Context(), nil, OtelConfig{}); shutdown != nil {
		t.Fatalf("expected no shutdown func when tracing is disabled")
	}
}
