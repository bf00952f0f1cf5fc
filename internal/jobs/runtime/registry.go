package runtime

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/yungbote/playbook-backend/internal/domain/jobs"
)

// ErrNoHandler is returned by Resolve for a run whose job type nothing handles.
var ErrNoHandler = errors.New("no handler registered")

// Handler executes one job type. Run reports through ctx and returns the error that failed it.
type Handler interface {
	Type() string
	Run(ctx *Context) error
}

// Registry maps job types to handlers. Handlers are registered at wiring time; the worker resolves
// every claimed run through it.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds handlers, stopping at the first that is nil, untyped or already taken.
func (r *Registry) Register(hs ...Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range hs {
		if h == nil {
			return fmt.Errorf("nil handler")
		}
		t := h.Type()
		if t == "" {
			return fmt.Errorf("handler %T has an empty job type", h)
		}
		if prev, exists := r.handlers[t]; exists {
			return fmt.Errorf("job_type=%s already handled by %T", t, prev)
		}
		r.handlers[t] = h
	}
	return nil
}

func (r *Registry) Get(jobType string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[jobType]
	return h, ok
}

// Resolve returns the handler for job's type.
func (r *Registry) Resolve(job *jobs.JobRun) (Handler, error) {
	if job == nil {
		return nil, fmt.Errorf("resolve: nil job")
	}
	h, ok := r.Get(job.JobType)
	if !ok {
		return nil, fmt.Errorf("%w for job_type=%s", ErrNoHandler, job.JobType)
	}
	return h, nil
}

// Types lists the registered job types in order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
