package ctxutil

import (
	"context"
	"fmt"
	"testing"
)

func TestDetachKeepsTraceDataAndDropsCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	parent = WithTraceData(parent, &TraceData{TraceID: "t-1", RequestID: "r-1", SessionID: "s-1"})
	cancel()

	detached := Detach(parent)
	if detached.Err() != nil {
		t.Fatalf("detached context should not be canceled: %v", detached.Err())
	}
	td := GetTraceData(detached)
	if td == nil || td.TraceID != "t-1" || td.RequestID != "r-1" || td.SessionID != "s-1" {
		t.Fatalf("unexpected trace data: %+v", td)
	}
}

func TestLogFieldsSkipsEmptyIDs(t *testing.T) {
	if got := LogFields(context.Background()); got != nil {
		t.Fatalf("expected no fields, got %v", got)
	}
	ctx := WithTraceData(context.Background(), &TraceData{RequestID: "r-1", SessionID: "s-1"})
	if got := fmt.Sprint(LogFields(ctx)); got != "[request_id r-1 session_id s-1]" {
		t.Fatalf("unexpected fields %s", got)
	}
}
