package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/playbook-backend/internal/data/repos"
	"github.com/yungbote/playbook-backend/internal/domain/jobs"
	"github.com/yungbote/playbook-backend/internal/jobs/runtime"
	"github.com/yungbote/playbook-backend/internal/platform/dbctx"
	"github.com/yungbote/playbook-backend/internal/platform/logger"
)

// Generation runs are not retried: a failed build surfaces to the user, who resets and resubmits.
const maxAttempts = 1

type Options struct {
	Concurrency  int
	PollInterval time.Duration
	StaleRunning time.Duration
}

type Worker struct {
	log      *logger.Logger
	repo     repos.JobRunRepo
	registry *runtime.Registry
	notify   runtime.Notifier
	opts     Options

	wake chan struct{}

	mu      sync.Mutex
	running map[uuid.UUID]context.CancelFunc
}

func NewWorker(baseLog *logger.Logger, repo repos.JobRunRepo, registry *runtime.Registry, notify runtime.Notifier, opts Options) *Worker {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.StaleRunning <= 0 {
		opts.StaleRunning = 30 * time.Minute
	}
	return &Worker{
		log:      baseLog.With("component", "JobWorker"),
		repo:     repo,
		registry: registry,
		notify:   notify,
		opts:     opts,
		wake:     make(chan struct{}, 1),
		running:  make(map[uuid.UUID]context.CancelFunc),
	}
}

func (w *Worker) Start(ctx context.Context) {
	w.log.Info("Starting job worker pool", "concurrency", w.opts.Concurrency, "job_types", w.registry.Types())
	for i := 0; i < w.opts.Concurrency; i++ {
		workerID := i + 1
		go w.runLoop(ctx, workerID)
	}
}

// Wake nudges an idle loop to claim immediately instead of waiting for the next tick.
func (w *Worker) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Cancel stops a run executing in this process. It reports whether the run was found.
func (w *Worker) Cancel(jobID uuid.UUID) bool {
	w.mu.Lock()
	cancel, ok := w.running[jobID]
	w.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker loop stopped", "worker_id", workerID)
			return
		case <-ticker.C:
		case <-w.wake:
		}
		// drain everything runnable before sleeping again
		for ctx.Err() == nil && w.claimAndRun(ctx, workerID) {
		}
	}
}

func (w *Worker) claimAndRun(ctx context.Context, workerID int) bool {
	job, err := w.repo.ClaimNextRunnable(dbctx.Context{Ctx: ctx}, maxAttempts, 0, w.opts.StaleRunning)
	if err != nil {
		w.log.Warn("ClaimNextRunnable failed", "worker_id", workerID, "error", err)
		return false
	}
	if job == nil {
		return false
	}
	w.run(ctx, workerID, job)
	return true
}

func (w *Worker) run(parent context.Context, workerID int, job *jobs.JobRun) {
	runCtx, cancel := context.WithCancel(parent)
	w.mu.Lock()
	w.running[job.ID] = cancel
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		delete(w.running, job.ID)
		w.mu.Unlock()
		cancel()
	}()

	jc := runtime.NewContext(runCtx, job, w.repo, w.notify)

	h, err := w.registry.Resolve(job)
	if err != nil {
		w.log.Warn("No handler registered for job_type",
			"worker_id", workerID,
			"job_type", job.JobType,
			"job_id", job.ID,
		)
		jc.Fail("dispatch", err)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Job handler panic",
				"worker_id", workerID,
				"job_id", job.ID,
				"job_type", job.JobType,
				"panic", r,
			)
			jc.Fail("panic", errFromRecover(r))
		}
	}()

	if runErr := h.Run(jc); runErr != nil && !jc.Job.Terminal() {
		// Most pipelines call jc.Fail themselves; this is a safety net.
		jc.Fail("run", runErr)
	}
}

func errFromRecover(v any) error { return &panicError{Val: v} }

type panicError struct{ Val any }

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.Val) }
