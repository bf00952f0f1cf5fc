package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/playbook-backend/internal/chat"
	"github.com/yungbote/playbook-backend/internal/domain/jobs"
	"github.com/yungbote/playbook-backend/internal/domain/playbook"
	"github.com/yungbote/playbook-backend/internal/export"
	"github.com/yungbote/playbook-backend/internal/generation"
	build "github.com/yungbote/playbook-backend/internal/jobs/pipeline/playbook_build"
	"github.com/yungbote/playbook-backend/internal/jobs/runtime"
	"github.com/yungbote/playbook-backend/internal/materialize"
	"github.com/yungbote/playbook-backend/internal/platform/dbctx"
	"github.com/yungbote/playbook-backend/internal/platform/logger"
	"github.com/yungbote/playbook-backend/internal/realtime"
	"github.com/yungbote/playbook-backend/internal/render"
	"github.com/yungbote/playbook-backend/internal/video"
)

// JobQueue is the part of the job service a session uses.
type JobQueue interface {
	Enqueue(dbc dbctx.Context, sessionID uuid.UUID, epoch int64, jobType string, payload map[string]any) (*jobs.JobRun, error)
	CancelForSession(dbc dbctx.Context, sessionID uuid.UUID) (int64, error)
}

type Emitter interface {
	Emit(ctx context.Context, msg realtime.SSEMessage)
}

// SinkFactory hands out the artifact sink for one session's exports.
type SinkFactory interface {
	ForSession(sessionID uuid.UUID) export.ArtifactSink
}

type Deps struct {
	Log          *logger.Logger
	Generator    generation.Generator
	Queue        JobQueue
	Emitter      Emitter
	ChatNotifier func(sessionID uuid.UUID) chat.Notifier
	Sinks        SinkFactory
	Materializer *materialize.Materializer
	Renderer     render.Renderer
	Video        *video.Task
}

type Config struct {
	IdleTTL   time.Duration
	Geometry  render.Geometry
	Estimator build.Estimator
}

const defaultIdleTTL = 2 * time.Hour

// Store holds live sessions in memory and receives job lifecycle events for them.
type Store struct {
	log       *logger.Logger
	deps      Deps
	cfg       Config
	estimator build.Estimator
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

var _ runtime.Notifier = (*Store)(nil)

func NewStore(deps Deps, cfg Config) *Store {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaultIdleTTL
	}
	if cfg.Geometry == (render.Geometry{}) {
		cfg.Geometry = render.DefaultGeometry()
	}
	if cfg.Estimator == (build.Estimator{}) {
		cfg.Estimator = build.NewEstimator(0, 0)
	}
	return &Store{
		log:       deps.Log.With("service", "SessionStore"),
		deps:      deps,
		cfg:       cfg,
		estimator: cfg.Estimator,
		now:       func() time.Time { return time.Now().UTC() },
		sessions:  map[uuid.UUID]*Session{},
	}
}

func (st *Store) Create() *Session {
	now := st.now()
	s := &Session{
		id:        uuid.New(),
		store:     st,
		status:    StatusIntake,
		updatedAt: now,
		lastSeen:  now,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.exporter = st.newExporter(s)

	st.mu.Lock()
	st.sessions[s.id] = s
	st.mu.Unlock()
	st.log.Info("Session created", "session_id", s.id)
	return s
}

// Get returns a live session and marks it as used.
func (st *Store) Get(id uuid.UUID) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	s.touch(st.now())
	return s, nil
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep drops sessions idle for longer than the configured TTL and cancels their work.
func (st *Store) Sweep() int {
	cutoff := st.now().Add(-st.cfg.IdleTTL)
	var expired []*Session
	st.mu.Lock()
	for id, s := range st.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()
	for _, s := range expired {
		s.close()
		st.log.Info("Session expired", "session_id", s.id)
	}
	return len(expired)
}

// Close cancels the work of every live session. The sessions stay readable.
func (st *Store) Close() {
	st.mu.RLock()
	live := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		live = append(live, s)
	}
	st.mu.RUnlock()
	for _, s := range live {
		s.close()
	}
}

// Start sweeps idle sessions until ctx ends.
func (st *Store) Start(ctx context.Context) {
	interval := st.cfg.IdleTTL / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				st.Sweep()
			}
		}
	}()
}

func (st *Store) lookup(job *jobs.JobRun) *Session {
	if job == nil || job.JobType != build.JobType {
		return nil
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.sessions[job.SessionID]
}

func (st *Store) JobCreated(job *jobs.JobRun) {}

func (st *Store) JobProgress(job *jobs.JobRun, stage string, progress int, message string) {
	if s := st.lookup(job); s != nil {
		s.applyProgress(job, stage, progress, message)
	}
}

func (st *Store) JobFailed(job *jobs.JobRun, stage string, errorMessage string) {
	if s := st.lookup(job); s != nil {
		s.applyFailure(job, errorMessage)
	}
}

func (st *Store) JobDone(job *jobs.JobRun) {
	if s := st.lookup(job); s != nil {
		s.applyResult(job)
	}
}

func (st *Store) emit(id uuid.UUID, event realtime.SSEEvent, data map[string]any) {
	if st.deps.Emitter == nil {
		return
	}
	st.deps.Emitter.Emit(context.Background(), realtime.SSEMessage{
		Channel: id.String(),
		Event:   event,
		Data:    data,
	})
}

// newChat and newExporter are called with s.mu held or before s is shared. Their events are
// gated on the epoch they were created in.
func (st *Store) newChat(s *Session, biz playbook.BusinessData, pb playbook.GeneratedPlaybook) *chat.Session {
	var opts []chat.Option
	if st.deps.ChatNotifier != nil {
		opts = append(opts, chat.WithNotifier(&gatedNotifier{
			gate:  &s.gate,
			epoch: s.epoch,
			next:  st.deps.ChatNotifier(s.id),
		}))
	}
	return chat.New(st.log, st.deps.Generator, biz, pb, opts...)
}

func (st *Store) newExporter(s *Session) *export.Coordinator {
	id, epoch := s.id, s.epoch
	opts := []export.Option{
		export.WithGeometry(st.cfg.Geometry),
		export.WithObserver(func(state export.State) {
			s.gate.send(epoch, func() {
				st.emit(id, realtime.SSEEventExportProgress, map[string]any{"export": state})
			})
		}),
	}
	if st.deps.Sinks != nil {
		opts = append(opts, export.WithSink(st.deps.Sinks.ForSession(id)))
	}
	return export.NewCoordinator(st.log.With("session_id", id), st.deps.Materializer, st.deps.Renderer, opts...)
}
