package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/playbook-backend/internal/data/repos"
	"github.com/yungbote/playbook-backend/internal/domain/jobs"
	"github.com/yungbote/playbook-backend/internal/platform/ctxutil"
	"github.com/yungbote/playbook-backend/internal/platform/dbctx"
	"github.com/yungbote/playbook-backend/internal/platform/logger"
)

// Dispatcher is the in-process side of the job queue (the worker pool).
type Dispatcher interface {
	Wake()
	Cancel(jobID uuid.UUID) bool
}

type JobService interface {
	Enqueue(dbc dbctx.Context, sessionID uuid.UUID, epoch int64, jobType string, payload map[string]any) (*jobs.JobRun, error)
	Get(dbc dbctx.Context, jobID uuid.UUID) (*jobs.JobRun, error)
	CancelForSession(dbc dbctx.Context, sessionID uuid.UUID) (int64, error)
}

type jobService struct {
	log        *logger.Logger
	repo       repos.JobRunRepo
	notify     JobNotifier
	dispatcher Dispatcher
}

func NewJobService(baseLog *logger.Logger, repo repos.JobRunRepo, notify JobNotifier, dispatcher Dispatcher) JobService {
	return &jobService{
		log:        baseLog.With("service", "JobService"),
		repo:       repo,
		notify:     notify,
		dispatcher: dispatcher,
	}
}

func (s *jobService) Enqueue(dbc dbctx.Context, sessionID uuid.UUID, epoch int64, jobType string, payload map[string]any) (*jobs.JobRun, error) {
	if sessionID == uuid.Nil {
		return nil, fmt.Errorf("missing session_id")
	}
	if jobType == "" {
		return nil, fmt.Errorf("missing job_type")
	}
	if payload == nil {
		payload = map[string]any{}
	}
	if td := ctxutil.GetTraceData(dbc.Ctx); td != nil {
		if td.TraceID != "" {
			if _, ok := payload["trace_id"]; !ok {
				payload["trace_id"] = td.TraceID
			}
		}
		if td.RequestID != "" {
			if _, ok := payload["request_id"]; !ok {
				payload["request_id"] = td.RequestID
			}
		}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	now := time.Now().UTC()
	job := &jobs.JobRun{
		ID:        uuid.New(),
		SessionID: sessionID,
		Epoch:     epoch,
		JobType:   jobType,
		Status:    jobs.StatusQueued,
		Stage:     jobs.StatusQueued,
		Payload:   datatypes.JSON(b),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.repo.Create(dbc, job); err != nil {
		return nil, err
	}
	s.log.Info("Job enqueued", "job_id", job.ID, "job_type", jobType, "session_id", sessionID)

	if s.notify != nil {
		s.notify.JobCreated(job)
	}
	if s.dispatcher != nil {
		s.dispatcher.Wake()
	}
	return job, nil
}

func (s *jobService) Get(dbc dbctx.Context, jobID uuid.UUID) (*jobs.JobRun, error) {
	return s.repo.GetByID(dbc, jobID)
}

// CancelForSession marks the session's queued and running jobs canceled and stops any of them
// executing in this process.
func (s *jobService) CancelForSession(dbc dbctx.Context, sessionID uuid.UUID) (int64, error) {
	if sessionID == uuid.Nil {
		return 0, nil
	}
	runs, err := s.repo.ListBySession(dbc, sessionID, 0)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.CancelRunnable(dbc, sessionID)
	if err != nil {
		return 0, err
	}
	if s.dispatcher != nil {
		for _, r := range runs {
			if !r.Terminal() {
				s.dispatcher.Cancel(r.ID)
			}
		}
	}
	if n > 0 {
		s.log.Info("Canceled session jobs", "session_id", sessionID, "count", n)
	}
	return n, nil
}
