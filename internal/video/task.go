// Package video produces the narrated overview of a finished playbook: a script is written, a
// render is started on the video service, and the render is polled until it has a download link.
package video

import (
	"context"
	"errors"
	"fmt"
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
	msgScript      = "Generating video script..."
	msgSynthesis   = "Video synthesis in progress... (this can take several minutes)"
	msgFinalizing  = "Finalizing video..."
	msgReady       = "Video ready!"
	msgMissingLink = "Video generation completed, but no download link was found."

	failurePrefix = "Video Generation Failed: "
)

var pollMessages = []string{
	"Analyzing script and preparing scenes...",
	"Rendering visual elements...",
	"Compositing video layers...",
	"Almost there, finalizing the video...",
}

var (
	ErrMissingInput = errors.New("Cannot generate video: Missing playbook or business data.")
	errTimedOut     = errors.New("video render did not finish in time")
)

// Event is one step of a run. The last event on the channel has Done or Error set.
type Event struct {
	Progress     int    `json:"progress"`
	Message      string `json:"message"`
	Done         bool   `json:"done,omitempty"`
	DownloadLink string `json:"downloadLink,omitempty"`
	Error        string `json:"error,omitempty"`
}

func (e Event) Terminal() bool { return e.Done || e.Error != "" }

type Config struct {
	PollInterval time.Duration
	// MaxWait bounds the polling phase; zero polls until the context ends.
	MaxWait time.Duration
}

const defaultPollInterval = 10 * time.Second

type Task struct {
	log    *logger.Logger
	gen    generation.Generator
	cfg    Config
	after  func(time.Duration) <-chan time.Time
	tracer trace.Tracer
}

func New(log *logger.Logger, gen generation.Generator, cfg Config) *Task {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &Task{
		log:    log.With("service", "VideoTask"),
		gen:    gen,
		cfg:    cfg,
		after:  time.After,
		tracer: observability.Tracer("video"),
	}
}

// Run starts a render in the background and reports its progress on the returned channel, which
// is closed after the terminal event. Missing inputs fail synchronously with ErrMissingInput.
func (t *Task) Run(ctx context.Context, pb *playbook.GeneratedPlaybook, biz *playbook.BusinessData) (<-chan Event, error) {
	if pb == nil || biz == nil || !pb.Complete() {
		return nil, ErrMissingInput
	}
	out := make(chan Event, 8)
	go func() {
		defer close(out)
		t.run(ctx, *pb, *biz, out)
	}()
	return out, nil
}

func (t *Task) run(ctx context.Context, pb playbook.GeneratedPlaybook, biz playbook.BusinessData, out chan<- Event) {
	ctx, span := t.tracer.Start(ctx, "video.run")
	defer span.End()

	send := func(e Event) bool {
		select {
		case out <- e:
			return true
		case <-ctx.Done():
			return false
		}
	}
	fail := func(err error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		t.log.Warn("video generation failed", "error", err)
		observability.Current().IncVideo(observability.RunStatus(err))
		e := Event{Error: failurePrefix + failureMessage(err)}
		select {
		case out <- e:
		default:
			// a reader that has gone away with the context gets no terminal event
			if ctx.Err() == nil {
				out <- e
			}
		}
	}

	if !send(Event{Progress: 5, Message: msgScript}) {
		return
	}
	script, err := t.gen.GenerateVideoScript(ctx, pb, biz)
	if err != nil {
		fail(err)
		return
	}
	opID, err := t.gen.StartVideo(ctx, script)
	if err != nil {
		fail(err)
		return
	}
	span.SetAttributes(attribute.String("video.operation_id", opID))
	if !send(Event{Progress: 30, Message: msgSynthesis}) {
		return
	}

	var deadline <-chan time.Time
	if t.cfg.MaxWait > 0 {
		deadline = t.after(t.cfg.MaxWait)
	}
	progress := 30
	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			fail(ctx.Err())
			return
		case <-deadline:
			fail(errTimedOut)
			return
		case <-t.after(t.cfg.PollInterval):
		}

		poll, err := t.gen.PollVideo(ctx, opID)
		if err != nil {
			fail(err)
			return
		}
		if poll.Done {
			if !send(Event{Progress: 95, Message: msgFinalizing}) {
				return
			}
			if poll.DownloadLink == "" {
				fail(errors.New(msgMissingLink))
				return
			}
			t.log.Info("video ready", "operation_id", opID, "polls", i+1)
			observability.Current().IncVideo(observability.StatusSucceeded)
			send(Event{Progress: 100, Message: msgReady, Done: true, DownloadLink: poll.DownloadLink})
			return
		}
		progress = min(90, progress+5)
		if !send(Event{Progress: progress, Message: pollMessages[i%len(pollMessages)]}) {
			return
		}
	}
}

func failureMessage(err error) string {
	if ge, ok := generation.AsGenerationError(err); ok && ge.Message != "" {
		return ge.Message
	}
	if errors.Is(err, context.Canceled) {
		return "video generation was canceled"
	}
	return fmt.Sprint(err)
}
