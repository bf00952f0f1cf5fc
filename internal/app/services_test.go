package app

import (
	"testing"

	"github.com/google/uuid"
)

func TestWorkerDispatcherUnboundIsNoop(t *testing.T) {
	d := &workerDispatcher{}
	d.Wake()
	if d.Cancel(uuid.New()) {
		t.Fatalf("unbound dispatcher must not report a cancel")
	}
}
