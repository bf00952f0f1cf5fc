package services

import (
	"context"

	"github.com/yungbote/playbook-backend/internal/domain/jobs"
	"github.com/yungbote/playbook-backend/internal/jobs/runtime"
	"github.com/yungbote/playbook-backend/internal/realtime"
)

type JobNotifier = runtime.Notifier

type jobNotifier struct {
	emit SSEEmitter
}

// NewJobNotifier broadcasts job lifecycle events on the owning session's channel.
func NewJobNotifier(emit SSEEmitter) JobNotifier {
	return &jobNotifier{emit: emit}
}

func (n *jobNotifier) JobCreated(job *jobs.JobRun) {
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: job.SessionID.String(),
		Event:   realtime.SSEEventJobCreated,
		Data:    map[string]any{"job": job},
	})
}

func (n *jobNotifier) JobProgress(job *jobs.JobRun, stage string, progress int, message string) {
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: job.SessionID.String(),
		Event:   realtime.SSEEventJobProgress,
		Data: map[string]any{
			"job_id":   job.ID,
			"job_type": job.JobType,
			"stage":    stage,
			"progress": progress,
			"message":  message,
		},
	})
}

func (n *jobNotifier) JobFailed(job *jobs.JobRun, stage string, errorMessage string) {
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: job.SessionID.String(),
		Event:   realtime.SSEEventJobFailed,
		Data: map[string]any{
			"job_id":   job.ID,
			"job_type": job.JobType,
			"stage":    stage,
			"error":    errorMessage,
		},
	})
}

func (n *jobNotifier) JobDone(job *jobs.JobRun) {
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: job.SessionID.String(),
		Event:   realtime.SSEEventJobDone,
		Data: map[string]any{
			"job_id":   job.ID,
			"job_type": job.JobType,
		},
	})
}

// MultiNotifier forwards every event to each notifier in order.
type MultiNotifier []JobNotifier

func (m MultiNotifier) JobCreated(job *jobs.JobRun) {
	for _, n := range m {
		if n != nil {
			n.JobCreated(job)
		}
	}
}

func (m MultiNotifier) JobProgress(job *jobs.JobRun, stage string, progress int, message string) {
	for _, n := range m {
		if n != nil {
			n.JobProgress(job, stage, progress, message)
		}
	}
}

func (m MultiNotifier) JobFailed(job *jobs.JobRun, stage string, errorMessage string) {
	for _, n := range m {
		if n != nil {
			n.JobFailed(job, stage, errorMessage)
		}
	}
}

func (m MultiNotifier) JobDone(job *jobs.JobRun) {
	for _, n := range m {
		if n != nil {
			n.JobDone(job)
		}
	}
}
