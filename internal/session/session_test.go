package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/playbook-backend/internal/chat"
	"github.com/yungbote/playbook-backend/internal/data/repos"
	"github.com/yungbote/playbook-backend/internal/data/repos/testutil"
	"github.com/yungbote/playbook-backend/internal/domain/jobs"
	"github.com/yungbote/playbook-backend/internal/domain/playbook"
	"github.com/yungbote/playbook-backend/internal/domain/playbook/playbooktest"
	"github.com/yungbote/playbook-backend/internal/export"
	"github.com/yungbote/playbook-backend/internal/generation"
	"github.com/yungbote/playbook-backend/internal/generation/generationtest"
	build "github.com/yungbote/playbook-backend/internal/jobs/pipeline/playbook_build"
	"github.com/yungbote/playbook-backend/internal/jobs/runtime"
	"github.com/yungbote/playbook-backend/internal/materialize"
	"github.com/yungbote/playbook-backend/internal/platform/dbctx"
	"github.com/yungbote/playbook-backend/internal/platform/logger"
	"github.com/yungbote/playbook-backend/internal/realtime"
	"github.com/yungbote/playbook-backend/internal/render"
	"github.com/yungbote/playbook-backend/internal/services"
	"github.com/yungbote/playbook-backend/internal/video"
)

// recordQueue stores runs in sqlite and leaves running them to the test.
type recordQueue struct {
	repo repos.JobRunRepo
	mu   sync.Mutex
	runs []*jobs.JobRun
}

func (q *recordQueue) Enqueue(dbc dbctx.Context, sessionID uuid.UUID, epoch int64, jobType string, payload map[string]any) (*jobs.JobRun, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	job := &jobs.JobRun{
		SessionID: sessionID,
		Epoch:     epoch,
		JobType:   jobType,
		Status:    jobs.StatusQueued,
		Stage:     jobs.StatusQueued,
		Payload:   datatypes.JSON(raw),
	}
	if _, err := q.repo.Create(dbc, job); err != nil {
		return nil, err
	}
	q.mu.Lock()
	q.runs = append(q.runs, job)
	q.mu.Unlock()
	return job, nil
}

func (q *recordQueue) CancelForSession(dbc dbctx.Context, sessionID uuid.UUID) (int64, error) {
	return q.repo.CancelRunnable(dbc, sessionID)
}

type recordEmitter struct {
	mu   sync.Mutex
	msgs []realtime.SSEMessage
}

func (e *recordEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.msgs = append(e.msgs, msg)
}

func (e *recordEmitter) sessionUpdates() []Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []Snapshot
	for _, m := range e.msgs {
		if m.Event != realtime.SSEEventSessionUpdated {
			continue
		}
		out = append(out, m.Data.(map[string]any)["session"].(Snapshot))
	}
	return out
}

type harness struct {
	store *Store
	queue *recordQueue
	emit  *recordEmitter
	gen   *generationtest.Fake
	build *build.Pipeline
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.Nop()
	gen := &generationtest.Fake{}
	h := &harness{
		queue: &recordQueue{repo: repos.New(testutil.DB(t), log).JobRuns},
		emit:  &recordEmitter{},
		gen:   gen,
		build: build.New(log, gen),
	}
	h.store = NewStore(Deps{
		Log:          log,
		Generator:    gen,
		Queue:        h.queue,
		Emitter:      h.emit,
		Materializer: materialize.New(log, gen, 2),
		Renderer:     render.NewPDFRenderer(),
		Video:        video.New(log, gen, video.Config{PollInterval: time.Millisecond}),
	}, Config{})
	return h
}

// runBuild executes the session's last queued build the way the worker would.
func (h *harness) runBuild(t *testing.T) *jobs.JobRun {
	t.Helper()
	h.queue.mu.Lock()
	job := h.queue.runs[len(h.queue.runs)-1]
	h.queue.mu.Unlock()
	if err := h.build.Run(runtime.NewContext(context.Background(), job, h.queue.repo, h.store)); err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	return job
}

func (h *harness) ready(t *testing.T) *Session {
	t.Helper()
	s := h.store.Create()
	if _, err := s.StartGeneration(context.Background(), playbooktest.Business()); err != nil {
		t.Fatalf("StartGeneration: %v", err)
	}
	h.runBuild(t)
	if got := s.Snapshot().Status; got != StatusReady {
		t.Fatalf("expected ready, got %s", got)
	}
	return s
}

func TestGenerationHappyPath(t *testing.T) {
	h := newHarness(t)
	s := h.store.Create()
	if snap := s.Snapshot(); snap.Status != StatusIntake || snap.Playbook != nil {
		t.Fatalf("unexpected initial snapshot %+v", snap)
	}

	job, err := s.StartGeneration(context.Background(), playbooktest.Business())
	if err != nil {
		t.Fatalf("StartGeneration: %v", err)
	}
	if job.JobType != build.JobType || job.SessionID != s.ID() {
		t.Fatalf("unexpected job %+v", job)
	}
	snap := s.Snapshot()
	if snap.Status != StatusGenerating || snap.Progress == nil || snap.Progress.Remaining != "Estimating time..." {
		t.Fatalf("unexpected generating snapshot %+v", snap)
	}

	h.runBuild(t)

	snap = s.Snapshot()
	if snap.Status != StatusReady || snap.Playbook == nil || !snap.Playbook.Complete() {
		t.Fatalf("expected ready with playbook, got %+v", snap.Status)
	}
	if snap.Progress != nil || snap.Error != "" {
		t.Fatalf("ready snapshot kept loading state: %+v", snap.Progress)
	}
	if len(snap.Chat) != 1 || snap.Chat[0].Role != playbook.RoleModel {
		t.Fatalf("chat not seeded: %+v", snap.Chat)
	}

	last := -1
	var labels []string
	for _, u := range h.emit.sessionUpdates() {
		if u.Progress == nil {
			continue
		}
		if u.Progress.Percent < last {
			t.Fatalf("progress went backwards: %d after %d", u.Progress.Percent, last)
		}
		last = u.Progress.Percent
		labels = append(labels, u.Progress.Label)
	}
	if last != 100 {
		t.Fatalf("expected progress to reach 100, got %d", last)
	}
	if labels[1] != "Analyzing Your Business..." || labels[len(labels)-1] != "Plan Complete!" {
		t.Fatalf("unexpected labels %v", labels)
	}
}

func TestGenerationFailureMidPipeline(t *testing.T) {
	h := newHarness(t)
	h.gen.SectionHook = func(kind playbook.SectionKind) (playbook.Section, error) {
		if kind == playbook.SectionDownsell {
			return nil, &generation.GenerationError{Op: "generate_downsell", Message: "Failed to generate valid JSON for the requested content: unexpected EOF"}
		}
		return generationtest.FixtureSection(kind), nil
	}
	s := h.store.Create()
	if _, err := s.StartGeneration(context.Background(), playbooktest.Business()); err != nil {
		t.Fatalf("StartGeneration: %v", err)
	}
	h.runBuild(t)

	snap := s.Snapshot()
	if snap.Status != StatusError {
		t.Fatalf("expected error state, got %s", snap.Status)
	}
	if snap.Error != "Failed to generate valid JSON for the requested content: unexpected EOF" {
		t.Fatalf("unexpected error message %q", snap.Error)
	}
	if snap.Playbook != nil || snap.Chat != nil {
		t.Fatalf("failed build left partial results")
	}

	if _, err := s.StartGeneration(context.Background(), playbooktest.Business()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("error view must only allow reset, got %v", err)
	}
	if snap := s.Reset(context.Background()); snap.Status != StatusIntake || snap.Error != "" {
		t.Fatalf("reset did not return to intake: %+v", snap)
	}
}

func TestStartGenerationValidation(t *testing.T) {
	h := newHarness(t)
	s := h.store.Create()
	if _, err := s.StartGeneration(context.Background(), playbook.BusinessData{}); !errors.Is(err, playbook.ErrMissingBusinessType) {
		t.Fatalf("want ErrMissingBusinessType, got %v", err)
	}
	if _, err := s.StartGeneration(context.Background(), playbooktest.Business()); err != nil {
		t.Fatalf("StartGeneration: %v", err)
	}
	if _, err := s.StartGeneration(context.Background(), playbooktest.Business()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second start: want ErrInvalidTransition, got %v", err)
	}
}

func TestResetDiscardsLateResults(t *testing.T) {
	h := newHarness(t)
	s := h.store.Create()
	if _, err := s.StartGeneration(context.Background(), playbooktest.Business()); err != nil {
		t.Fatalf("StartGeneration: %v", err)
	}
	s.Reset(context.Background())

	job := h.runBuild(t)
	if snap := s.Snapshot(); snap.Status != StatusIntake || snap.Playbook != nil {
		t.Fatalf("canceled run reached the session: %+v", snap.Status)
	}

	// a result that slipped past cancellation is still dropped by its epoch
	raw, _ := json.Marshal(build.Result{Playbook: playbooktest.Complete()})
	late := *job
	late.Status = jobs.StatusSucceeded
	late.Result = datatypes.JSON(raw)
	h.store.JobDone(&late)
	if snap := s.Snapshot(); snap.Status != StatusIntake || snap.Epoch != 1 {
		t.Fatalf("late result applied: %+v", snap)
	}
}

func TestResetClearsReadySession(t *testing.T) {
	h := newHarness(t)
	s := h.ready(t)
	snap := s.Reset(context.Background())
	if snap.Status != StatusIntake || snap.Playbook != nil || snap.BusinessData != nil || snap.Chat != nil {
		t.Fatalf("reset left state behind: %+v", snap)
	}
	if _, err := s.SubmitChat("hello"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("chat after reset: want ErrNotReady, got %v", err)
	}
}

func TestExportsKeepMaterializedContent(t *testing.T) {
	h := newHarness(t)
	s := h.ready(t)

	ref := ItemRef{Slot: playbook.SlotOffer1, Index: 0}
	res, err := s.ExportAsset(context.Background(), ref)
	if err != nil {
		t.Fatalf("ExportAsset: %v", err)
	}
	if res.ContentType != export.ContentTypePDF || len(res.Data) == 0 {
		t.Fatalf("unexpected result %s %d", res.ContentType, len(res.Data))
	}
	item := s.Snapshot().Playbook.Offer1.Stack[0]
	if item.NeedsContent() {
		t.Fatalf("materialized content was not kept")
	}
	calls := h.gen.AssetCalls()
	if _, err := s.ExportAsset(context.Background(), ref); err != nil {
		t.Fatalf("ExportAsset again: %v", err)
	}
	if h.gen.AssetCalls() != calls {
		t.Fatalf("second export regenerated the asset")
	}

	if _, err := s.ExportKit(context.Background()); err != nil {
		t.Fatalf("ExportKit: %v", err)
	}
	pb := s.Snapshot().Playbook
	for _, slot := range playbook.OfferSlots {
		if n := pb.Offer(slot).PlaceholderCount(); n != 0 {
			t.Fatalf("%s still has %d placeholders after kit export", slot, n)
		}
	}
	if s.ExportState().Busy() {
		t.Fatalf("export slot not released")
	}
}

func TestExportsRequireReadySession(t *testing.T) {
	h := newHarness(t)
	s := h.store.Create()
	var pe *export.PreconditionError
	if _, err := s.ExportSection(context.Background(), export.KindFull); !errors.As(err, &pe) {
		t.Fatalf("section: want PreconditionError, got %v", err)
	}
	if _, err := s.ExportAsset(context.Background(), ItemRef{Slot: playbook.SlotOffer1}); !errors.As(err, &pe) {
		t.Fatalf("asset: want PreconditionError, got %v", err)
	}
	if _, err := s.OfflinePage(); !errors.As(err, &pe) {
		t.Fatalf("offline page: want PreconditionError, got %v", err)
	}
}

func TestChatAndVideoOnReadySession(t *testing.T) {
	h := newHarness(t)
	h.gen.ChatDeltas = []string{"Sure."}
	s := h.ready(t)

	done, err := s.SubmitChat("Explain LTV")
	if err != nil {
		t.Fatalf("SubmitChat: %v", err)
	}
	<-done
	msgs, _ := s.Chat()
	if len(msgs) != 3 || msgs[2].Content != "Sure." {
		t.Fatalf("unexpected transcript %+v", msgs)
	}

	if _, err := s.StartVideo(); err != nil {
		t.Fatalf("StartVideo: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		v := s.VideoState()
		if !v.Running && v.Progress == 100 {
			if v.DownloadLink == "" {
				t.Fatalf("video finished without link: %+v", v)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("video did not finish: %+v", v)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestVideoRequiresPlaybook(t *testing.T) {
	h := newHarness(t)
	s := h.store.Create()
	if _, err := s.StartVideo(); !errors.Is(err, video.ErrMissingInput) {
		t.Fatalf("want ErrMissingInput, got %v", err)
	}
}

func TestSweepExpiresIdleSessions(t *testing.T) {
	h := newHarness(t)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	h.store.now = func() time.Time { return now }
	idle := h.store.Create()
	now = now.Add(3 * time.Hour)
	active := h.store.Create()

	if n := h.store.Sweep(); n != 1 {
		t.Fatalf("expected 1 expired session, got %d", n)
	}
	if _, err := h.store.Get(idle.ID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("idle session still present: %v", err)
	}
	if _, err := h.store.Get(active.ID()); err != nil {
		t.Fatalf("active session dropped: %v", err)
	}
}

func TestCloseCancelsSessionWork(t *testing.T) {
	h := newHarness(t)
	a := h.store.Create()
	b := h.store.Create()

	h.store.Close()

	for _, s := range []*Session{a, b} {
		if s.ctx.Err() == nil {
			t.Fatalf("session %s still has live work context", s.ID())
		}
	}
	if h.store.Len() != 2 {
		t.Fatalf("Close must keep sessions readable, got %d", h.store.Len())
	}
}

func TestResetSilencesInFlightChat(t *testing.T) {
	h := newHarness(t)
	h.store.deps.ChatNotifier = func(id uuid.UUID) chat.Notifier {
		return services.NewChatNotifier(h.emit, id)
	}
	streaming := make(chan struct{})
	h.gen.ChatHook = func(ctx context.Context, onDelta func(string)) (string, error) {
		onDelta("Working on it")
		close(streaming)
		<-ctx.Done()
		onDelta(" too late")
		return "", ctx.Err()
	}
	s := h.ready(t)

	done, err := s.SubmitChat("Rewrite my offer")
	if err != nil {
		t.Fatalf("SubmitChat: %v", err)
	}
	<-streaming
	snap := s.Reset(context.Background())
	<-done

	h.emit.mu.Lock()
	msgs := append([]realtime.SSEMessage(nil), h.emit.msgs...)
	h.emit.mu.Unlock()

	resetAt := -1
	var chatBefore int
	for i, m := range msgs {
		if m.Event == realtime.SSEEventSessionUpdated && m.Data.(map[string]any)["session"].(Snapshot).Epoch == snap.Epoch {
			resetAt = i
			continue
		}
		if resetAt >= 0 {
			t.Fatalf("event after reset: %s %v", m.Event, m.Data)
		}
		if m.Event == realtime.SSEEventChatMessage || m.Event == realtime.SSEEventChatDelta {
			chatBefore++
		}
	}
	if resetAt < 0 {
		t.Fatalf("reset snapshot was not published")
	}
	if chatBefore < 3 {
		t.Fatalf("expected user message, reply and first delta before reset, got %d chat events", chatBefore)
	}
	if transcript, err := s.Chat(); !errors.Is(err, ErrNotReady) || transcript != nil {
		t.Fatalf("reset kept the transcript: %v %v", transcript, err)
	}
}

func TestResetSilencesStaleWriteBack(t *testing.T) {
	h := newHarness(t)
	s := h.ready(t)
	stale := s.view()
	snap := s.Reset(context.Background())

	// write-back and progress events from the old epoch
	s.keep(stale.epoch, func(pb playbook.GeneratedPlaybook) playbook.GeneratedPlaybook { return pb })
	s.gate.send(stale.epoch, func() { t.Fatalf("stale epoch passed the gate") })

	updates := h.emit.sessionUpdates()
	if last := updates[len(updates)-1]; last.Epoch != snap.Epoch || last.Status != StatusIntake {
		t.Fatalf("last published snapshot is stale: epoch=%d status=%s", last.Epoch, last.Status)
	}
}
