// Package session owns one planning session from intake to a finished playbook, and everything
// layered on a finished playbook: chat, exports and the video overview.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/playbook-backend/internal/chat"
	"github.com/yungbote/playbook-backend/internal/domain/jobs"
	"github.com/yungbote/playbook-backend/internal/domain/playbook"
	"github.com/yungbote/playbook-backend/internal/export"
	build "github.com/yungbote/playbook-backend/internal/jobs/pipeline/playbook_build"
	"github.com/yungbote/playbook-backend/internal/platform/dbctx"
	"github.com/yungbote/playbook-backend/internal/realtime"
)

type Status string

const (
	StatusIntake     Status = "intake"
	StatusGenerating Status = "generating"
	StatusError      Status = "error"
	StatusReady      Status = "ready"
)

var (
	ErrNotFound          = errors.New("session not found")
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrNotReady          = errors.New("playbook is not ready")
	ErrVideoInProgress   = errors.New("a video is already being generated")
)

// Progress is what the loading view shows while a playbook is being built.
type Progress struct {
	JobID     uuid.UUID `json:"jobId"`
	Stage     string    `json:"stage"`
	Label     string    `json:"label"`
	Percent   int       `json:"percent"`
	Remaining string    `json:"remaining"`
	StartedAt time.Time `json:"startedAt"`
}

type VideoState struct {
	Running      bool   `json:"running"`
	Progress     int    `json:"progress"`
	Message      string `json:"message,omitempty"`
	DownloadLink string `json:"downloadLink,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Snapshot is a copy of a session's state; it shares nothing with the session.
type Snapshot struct {
	ID           uuid.UUID                   `json:"id"`
	Status       Status                      `json:"status"`
	Epoch        int64                       `json:"epoch"`
	BusinessData *playbook.BusinessData      `json:"businessData,omitempty"`
	Playbook     *playbook.GeneratedPlaybook `json:"playbook,omitempty"`
	Progress     *Progress                   `json:"progress,omitempty"`
	Error        string                      `json:"error,omitempty"`
	Chat         []playbook.ChatMessage      `json:"chat,omitempty"`
	Export       export.State                `json:"export"`
	Video        VideoState                  `json:"video"`
	UpdatedAt    time.Time                   `json:"updatedAt"`
}

type Session struct {
	id    uuid.UUID
	store *Store

	mu        sync.Mutex
	status    Status
	epoch     int64
	biz       *playbook.BusinessData
	pb        *playbook.GeneratedPlaybook
	progress  *Progress
	errMsg    string
	jobID     uuid.UUID
	chat      *chat.Session
	exporter  *export.Coordinator
	gate      eventGate
	video     VideoState
	ctx       context.Context
	cancel    context.CancelFunc
	updatedAt time.Time
	lastSeen  time.Time
}

func (s *Session) ID() uuid.UUID { return s.id }

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:        s.id,
		Status:    s.status,
		Epoch:     s.epoch,
		Error:     s.errMsg,
		Video:     s.video,
		UpdatedAt: s.updatedAt,
	}
	if s.biz != nil {
		b := *s.biz
		snap.BusinessData = &b
	}
	if s.pb != nil {
		pb := *s.pb
		snap.Playbook = &pb
	}
	if s.progress != nil {
		p := *s.progress
		snap.Progress = &p
	}
	if s.chat != nil {
		snap.Chat = s.chat.Snapshot()
	}
	if s.exporter != nil {
		snap.Export = s.exporter.State()
	}
	return snap
}

// changed must be called with mu held. It returns the snapshot to publish once mu is released.
func (s *Session) changed() Snapshot {
	s.updatedAt = s.store.now()
	return s.snapshotLocked()
}

// publish sends snap unless a reset has moved the session past the snapshot's epoch.
func (s *Session) publish(snap Snapshot) {
	s.gate.send(snap.Epoch, func() {
		s.store.emit(s.id, realtime.SSEEventSessionUpdated, map[string]any{"session": snap})
	})
}

// StartGeneration moves an intake session to generating and queues the playbook build.
func (s *Session) StartGeneration(ctx context.Context, biz playbook.BusinessData) (*jobs.JobRun, error) {
	if err := biz.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.status != StatusIntake {
		s.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	job, err := s.store.deps.Queue.Enqueue(dbctx.Context{Ctx: ctx}, s.id, s.epoch, build.JobType, map[string]any{
		"business_data": biz,
	})
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	b := biz
	s.biz = &b
	s.status = StatusGenerating
	s.jobID = job.ID
	s.progress = &Progress{
		JobID:     job.ID,
		Stage:     job.Stage,
		Remaining: s.store.estimator.RemainingText(0, 0),
		StartedAt: s.store.now(),
	}
	snap := s.changed()
	s.mu.Unlock()

	s.store.log.Info("Playbook generation started", "session_id", s.id, "job_id", job.ID, "epoch", snap.Epoch)
	s.publish(snap)
	return job, nil
}

// Reset returns the session to intake from any state. Running work is canceled and anything it
// reports later is dropped.
func (s *Session) Reset(ctx context.Context) Snapshot {
	s.mu.Lock()
	s.cancel()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.epoch++
	s.gate.advance(s.epoch)
	s.status = StatusIntake
	s.biz = nil
	s.pb = nil
	s.progress = nil
	s.errMsg = ""
	s.chat = nil
	s.video = VideoState{}
	s.exporter = s.store.newExporter(s)
	hadJob := s.jobID != uuid.Nil
	s.jobID = uuid.Nil
	snap := s.changed()
	s.mu.Unlock()

	if hadJob {
		if _, err := s.store.deps.Queue.CancelForSession(dbctx.Context{Ctx: ctx}, s.id); err != nil {
			s.store.log.Warn("cancel session jobs failed", "session_id", s.id, "error", err)
		}
	}
	s.store.log.Info("Session reset", "session_id", s.id, "epoch", snap.Epoch)
	s.publish(snap)
	return snap
}

// applyProgress is called for the session's build job only.
func (s *Session) applyProgress(job *jobs.JobRun, stage string, pct int, label string) {
	s.mu.Lock()
	if !s.current(job) || s.status != StatusGenerating || s.progress == nil {
		s.mu.Unlock()
		return
	}
	if pct < s.progress.Percent {
		pct = s.progress.Percent
	}
	s.progress.Stage = stage
	s.progress.Label = label
	s.progress.Percent = pct
	s.progress.Remaining = s.store.estimator.RemainingText(pct, s.store.now().Sub(s.progress.StartedAt))
	snap := s.changed()
	s.mu.Unlock()
	s.publish(snap)
}

func (s *Session) applyFailure(job *jobs.JobRun, msg string) {
	s.mu.Lock()
	if !s.current(job) || s.status != StatusGenerating {
		s.mu.Unlock()
		return
	}
	s.status = StatusError
	s.errMsg = msg
	s.progress = nil
	snap := s.changed()
	s.mu.Unlock()
	s.store.log.Warn("Playbook generation failed", "session_id", s.id, "job_id", job.ID, "error", msg)
	s.publish(snap)
}

func (s *Session) applyResult(job *jobs.JobRun) {
	res, err := build.DecodeResult(job.Result)
	if err != nil {
		s.store.log.Error("undecodable build result", "session_id", s.id, "job_id", job.ID, "error", err)
		s.applyFailure(job, unknownFailure)
		return
	}
	s.mu.Lock()
	if !s.current(job) || s.status != StatusGenerating || s.biz == nil {
		s.mu.Unlock()
		return
	}
	pb := res.Playbook
	s.pb = &pb
	s.status = StatusReady
	s.progress = nil
	s.chat = s.store.newChat(s, *s.biz, pb)
	snap := s.changed()
	s.mu.Unlock()
	s.store.log.Info("Playbook ready", "session_id", s.id, "job_id", job.ID)
	s.publish(snap)
}

const unknownFailure = "An unknown error occurred. Reload and try again."

// current reports whether job belongs to the session's present epoch. Called with mu held.
func (s *Session) current(job *jobs.JobRun) bool {
	return job != nil && job.ID == s.jobID && job.Epoch == s.epoch
}

// SubmitChat starts a chat turn on a ready session.
func (s *Session) SubmitChat(text string) (<-chan struct{}, error) {
	s.mu.Lock()
	c, ctx := s.chat, s.ctx
	s.mu.Unlock()
	if c == nil {
		return nil, ErrNotReady
	}
	return c.Submit(ctx, text)
}

func (s *Session) Chat() ([]playbook.ChatMessage, error) {
	s.mu.Lock()
	c := s.chat
	s.mu.Unlock()
	if c == nil {
		return nil, ErrNotReady
	}
	return c.Snapshot(), nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) close() {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
}
