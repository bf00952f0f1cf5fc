package playbook_build

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yungbote/playbook-backend/internal/domain/playbook"
	"github.com/yungbote/playbook-backend/internal/generation"
	"github.com/yungbote/playbook-backend/internal/jobs/runtime"
	"github.com/yungbote/playbook-backend/internal/platform/logger"
)

const JobType = "playbook_build"

// Payload is what the session enqueues.
type Payload struct {
	BusinessData playbook.BusinessData `json:"business_data"`
}

type StageTiming struct {
	Stage       string    `json:"stage"`
	CompletedAt time.Time `json:"completed_at"`
}

// Result is stored on the job row and handed to the owning session.
type Result struct {
	Playbook     playbook.GeneratedPlaybook `json:"playbook"`
	StageTimings []StageTiming              `json:"stage_timings"`
}

// DecodeResult reads a succeeded run's result column.
func DecodeResult(raw []byte) (Result, error) {
	var r Result
	if len(raw) == 0 {
		return r, fmt.Errorf("empty result")
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return r, err
	}
	if !r.Playbook.Complete() {
		return r, playbook.ErrIncomplete
	}
	return r, nil
}

type Pipeline struct {
	log     *logger.Logger
	builder *Builder
}

func New(log *logger.Logger, gen generation.Generator) *Pipeline {
	return &Pipeline{
		log:     log.With("job", JobType),
		builder: NewBuilder(log, gen),
	}
}

func (p *Pipeline) Type() string { return JobType }

func (p *Pipeline) Builder() *Builder { return p.builder }

func (p *Pipeline) Run(jc *runtime.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	var payload Payload
	if err := jc.DecodePayload(&payload); err != nil {
		jc.Fail("validate", errors.New(unknownFailure))
		return nil
	}

	var timings []StageTiming
	pb, err := p.builder.Build(jc.Ctx, payload.BusinessData, func(u Update) {
		if u.CompletedAt != nil {
			timings = append(timings, StageTiming{Stage: u.Stage, CompletedAt: *u.CompletedAt})
		}
		jc.Progress(u.Stage, u.Progress, u.Label)
	})
	if err != nil {
		stage := "run"
		var se *StageError
		if errors.As(err, &se) && se.Stage != "" {
			stage = string(se.Stage)
		}
		p.log.Warn("playbook build failed", "job_id", jc.Job.ID, "session_id", jc.Job.SessionID, "stage", stage, "error", err)
		jc.Fail(stage, err)
		return nil
	}

	jc.Succeed(StageComplete, Result{Playbook: pb, StageTimings: timings})
	p.log.Info("playbook build complete", "job_id", jc.Job.ID, "session_id", jc.Job.SessionID)
	return nil
}
