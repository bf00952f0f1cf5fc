package playbook_build

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/playbook-backend/internal/domain/playbook"
	"github.com/yungbote/playbook-backend/internal/generation"
	"github.com/yungbote/playbook-backend/internal/observability"
	"github.com/yungbote/playbook-backend/internal/platform/logger"
)

const (
	StageFinalize = "finalize"
	StageComplete = "complete"

	finalizingLabel = "Finalizing your plan..."
	completeLabel   = "Plan Complete!"
	unknownFailure  = "An unknown error occurred. Reload and try again."
)

// Update is one observable step of a build. Label is what the loading view shows; CompletedAt is
// set on the update that follows a finished stage.
type Update struct {
	Stage       string
	Label       string
	Progress    int
	CompletedAt *time.Time
}

type Observer func(Update)

// StageError reports the stage a build stopped at. Message is what the error view shows.
type StageError struct {
	Stage   playbook.SectionKind
	Message string
	Err     error
}

func (e *StageError) Error() string { return e.Message }
func (e *StageError) Unwrap() error { return e.Err }

type Builder struct {
	log    *logger.Logger
	gen    generation.Generator
	stages []Stage
	tracer trace.Tracer
	now    func() time.Time
}

func NewBuilder(log *logger.Logger, gen generation.Generator) *Builder {
	return &Builder{
		log:    log.With("service", "PlaybookBuilder"),
		gen:    gen,
		stages: Stages(log),
		tracer: observability.Tracer("playbook_build"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (b *Builder) Stages() []Stage { return append([]Stage(nil), b.stages...) }

// StageProgress is the percentage published once stage index i has finished.
func StageProgress(i, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(i+1) / float64(total) * 100))
}

/*
Build runs every stage in order against a private draft. Stage i+1 never starts before stage i has
stored its result. The first failure aborts the run and the draft is dropped, so callers only ever
see a complete playbook or an error.
*/
func (b *Builder) Build(ctx context.Context, biz playbook.BusinessData, observe Observer) (playbook.GeneratedPlaybook, error) {
	if observe == nil {
		observe = func(Update) {}
	}
	if err := biz.Validate(); err != nil {
		return playbook.GeneratedPlaybook{}, &StageError{Message: err.Error(), Err: err}
	}

	var draft playbook.Draft
	progress := 0
	for i, stage := range b.stages {
		if err := ctx.Err(); err != nil {
			return playbook.GeneratedPlaybook{}, err
		}
		observe(Update{Stage: string(stage.Kind), Label: stage.Label, Progress: progress})

		section, err := b.runStage(ctx, i, stage, biz)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return playbook.GeneratedPlaybook{}, ctxErr
			}
			b.log.Warn("playbook stage failed", "stage", stage.Kind, "error", err)
			return playbook.GeneratedPlaybook{}, &StageError{Stage: stage.Kind, Message: failureMessage(err), Err: err}
		}
		if err := draft.Set(stage.Kind, section); err != nil {
			return playbook.GeneratedPlaybook{}, &StageError{Stage: stage.Kind, Message: unknownFailure, Err: err}
		}

		done := b.now()
		progress = StageProgress(i, len(b.stages))
		observe(Update{Stage: string(stage.Kind), Label: stage.Label, Progress: progress, CompletedAt: &done})
	}

	observe(Update{Stage: StageFinalize, Label: finalizingLabel, Progress: 100})
	pb, err := draft.Finalize()
	if err != nil {
		return playbook.GeneratedPlaybook{}, &StageError{Message: unknownFailure, Err: err}
	}
	observe(Update{Stage: StageComplete, Label: completeLabel, Progress: 100})
	return pb, nil
}

func (b *Builder) runStage(ctx context.Context, i int, stage Stage, biz playbook.BusinessData) (section playbook.Section, err error) {
	ctx, span := b.tracer.Start(ctx, "playbook_build."+string(stage.Kind), trace.WithAttributes(
		attribute.String("playbook.stage", string(stage.Kind)),
		attribute.Int("playbook.stage_index", i),
	))
	defer span.End()
	start := time.Now()
	defer func() {
		observability.Current().ObserveStage(string(stage.Kind), observability.RunStatus(err), time.Since(start))
	}()

	section, err = b.gen.GenerateSection(ctx, biz, stage.Kind)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if section == nil {
		err = fmt.Errorf("stage %s returned no content", stage.Kind)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return section, nil
}

func failureMessage(err error) string {
	if ge, ok := generation.AsGenerationError(err); ok && ge.Message != "" {
		return ge.Message
	}
	var se *StageError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return unknownFailure
}
