package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/playbook-backend/internal/data/repos"
	"github.com/yungbote/playbook-backend/internal/data/repos/testutil"
	"github.com/yungbote/playbook-backend/internal/domain/jobs"
	"github.com/yungbote/playbook-backend/internal/jobs/runtime"
	"github.com/yungbote/playbook-backend/internal/platform/dbctx"
)

type funcHandler struct {
	typ string
	run func(jc *runtime.Context) error
}

func (h funcHandler) Type() string { return h.typ }
func (h funcHandler) Run(jc *runtime.Context) error { return h.run(jc) }

type terminalNotifier struct {
	terminal chan *jobs.JobRun
}

func newTerminalNotifier() *terminalNotifier {
	return &terminalNotifier{terminal: make(chan *jobs.JobRun, 8)}
}

func (n *terminalNotifier) JobCreated(job *jobs.JobRun) {}
func (n *terminalNotifier) JobProgress(job *jobs.JobRun, stage string, pct int, msg string) {}
func (n *terminalNotifier) JobFailed(job *jobs.JobRun, stage string, errorMessage string) {
	cp := *job
	n.terminal <- &cp
}
func (n *terminalNotifier) JobDone(job *jobs.JobRun) {
	cp := *job
	n.terminal <- &cp
}

func waitTerminal(t *testing.T, n *terminalNotifier) *jobs.JobRun {
	t.Helper()
	select {
	case j := <-n.terminal:
		return j
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for job to finish")
	}
	return nil
}

func setup(t *testing.T, handlers ...runtime.Handler) (*Worker, repos.JobRunRepo, *terminalNotifier) {
	t.Helper()
	repo := repos.New(testutil.DB(t), testutil.Logger(t)).JobRuns
	reg := runtime.NewRegistry()
	for _, h := range handlers {
		if err := reg.Register(h); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	n := newTerminalNotifier()
	w := NewWorker(testutil.Logger(t), repo, reg, n, Options{Concurrency: 1, PollInterval: 20 * time.Millisecond})
	return w, repo, n
}

func enqueue(t *testing.T, repo repos.JobRunRepo, jobType string) *jobs.JobRun {
	t.Helper()
	job := &jobs.JobRun{SessionID: uuid.New(), JobType: jobType, Payload: []byte(`{"n":1}`)}
	if _, err := repo.Create(dbctx.Context{Ctx: context.Background()}, job); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return job
}

func TestWorkerRunsRegisteredHandler(t *testing.T) {
	w, repo, n := setup(t, funcHandler{typ: "echo", run: func(jc *runtime.Context) error {
		jc.Progress("work", 50, "halfway")
		jc.Succeed("done", map[string]any{"n": jc.Payload()["n"]})
		return nil
	}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	job := enqueue(t, repo, "echo")
	w.Wake()
	got := waitTerminal(t, n)
	if got.ID != job.ID || got.Status != jobs.StatusSucceeded || got.Progress != 100 {
		t.Fatalf("unexpected job %+v", got)
	}
}

func TestWorkerFailsUnknownTypeAndPanics(t *testing.T) {
	w, repo, n := setup(t, funcHandler{typ: "explode", run: func(jc *runtime.Context) error {
		panic("kaboom")
	}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	enqueue(t, repo, "nobody_home")
	w.Wake()
	if got := waitTerminal(t, n); got.Status != jobs.StatusFailed || got.Stage != "dispatch" {
		t.Fatalf("unexpected job %+v", got)
	}

	enqueue(t, repo, "explode")
	w.Wake()
	got := waitTerminal(t, n)
	if got.Status != jobs.StatusFailed || got.Stage != "panic" || got.Error != "panic: kaboom" {
		t.Fatalf("unexpected job %+v", got)
	}

	// failed runs are not retried
	stored, _ := repo.GetByID(dbctx.Context{Ctx: context.Background()}, got.ID)
	time.Sleep(100 * time.Millisecond)
	again, _ := repo.GetByID(dbctx.Context{Ctx: context.Background()}, got.ID)
	if stored.Attempts != 1 || again.Attempts != 1 {
		t.Fatalf("failed job was retried: attempts %d -> %d", stored.Attempts, again.Attempts)
	}
}

func TestWorkerCancelStopsRunningHandler(t *testing.T) {
	started := make(chan uuid.UUID, 1)
	w, repo, n := setup(t, funcHandler{typ: "slow", run: func(jc *runtime.Context) error {
		started <- jc.Job.ID
		<-jc.Ctx.Done()
		return jc.Ctx.Err()
	}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	enqueue(t, repo, "slow")
	w.Wake()
	var id uuid.UUID
	select {
	case id = <-started:
	case <-time.After(3 * time.Second):
		t.Fatalf("handler never started")
	}
	if !w.Cancel(id) {
		t.Fatalf("Cancel should find the running job")
	}
	got := waitTerminal(t, n)
	if got.Status != jobs.StatusFailed || got.Error != context.Canceled.Error() {
		t.Fatalf("unexpected job %+v", got)
	}
}
