package runtime

import (
	"errors"
	"strings"
	"testing"

	"github.com/yungbote/playbook-backend/internal/domain/jobs"
)

type namedHandler string

func (h namedHandler) Type() string       { return string(h) }
func (h namedHandler) Run(*Context) error { return nil }

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(namedHandler("playbook_build"), namedHandler("asset_render")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got := strings.Join(r.Types(), ","); got != "asset_render,playbook_build" {
		t.Fatalf("types: %s", got)
	}

	h, err := r.Resolve(&jobs.JobRun{JobType: "playbook_build"})
	if err != nil || h.Type() != "playbook_build" {
		t.Fatalf("Resolve: %v %v", h, err)
	}
	if _, err := r.Resolve(&jobs.JobRun{JobType: "nobody_home"}); !errors.Is(err, ErrNoHandler) {
		t.Fatalf("want ErrNoHandler, got %v", err)
	}
	if _, err := r.Resolve(nil); err == nil {
		t.Fatalf("nil job resolved")
	}
}

func TestRegistryRejectsBadHandlers(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(nil); err == nil {
		t.Fatalf("nil handler accepted")
	}
	if err := r.Register(namedHandler("")); err == nil {
		t.Fatalf("untyped handler accepted")
	}
	if err := r.Register(namedHandler("playbook_build")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(namedHandler("playbook_build")); err == nil || !strings.Contains(err.Error(), "already handled") {
		t.Fatalf("duplicate accepted: %v", err)
	}
}
