package video

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/playbook-backend/internal/domain/playbook"
	"github.com/yungbote/playbook-backend/internal/domain/playbook/playbooktest"
	"github.com/yungbote/playbook-backend/internal/generation"
	"github.com/yungbote/playbook-backend/internal/generation/generationtest"
	"github.com/yungbote/playbook-backend/internal/platform/logger"
)

// instant fires every timer immediately.
func instant(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func newTask(gen generation.Generator, cfg Config) *Task {
	t := New(logger.Nop(), gen, cfg)
	t.after = instant
	return t
}

func collect(t *testing.T, ch <-chan Event) []Event {
	t.Helper()
	var out []Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, e)
		case <-timeout:
			t.Fatalf("run did not finish; got %+v", out)
		}
	}
}

func inputs() (*playbook.GeneratedPlaybook, *playbook.BusinessData) {
	pb := playbooktest.Complete()
	biz := playbooktest.Business()
	return &pb, &biz
}

func TestRunReportsProgressUntilReady(t *testing.T) {
	gen := &generationtest.Fake{VideoPolls: []generation.VideoPoll{
		{}, {}, {},
		{Done: true, DownloadLink: "https://videos.test/v1.mp4"},
	}}
	pb, biz := inputs()
	ch, err := newTask(gen, Config{}).Run(context.Background(), pb, biz)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	events := collect(t, ch)

	want := []Event{
		{Progress: 5, Message: "Generating video script..."},
		{Progress: 30, Message: "Video synthesis in progress... (this can take several minutes)"},
		{Progress: 35, Message: "Analyzing script and preparing scenes..."},
		{Progress: 40, Message: "Rendering visual elements..."},
		{Progress: 45, Message: "Compositing video layers..."},
		{Progress: 95, Message: "Finalizing video..."},
		{Progress: 100, Message: "Video ready!", Done: true, DownloadLink: "https://videos.test/v1.mp4"},
	}
	if len(events) != len(want) {
		t.Fatalf("events: got %+v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("event %d: got %+v want %+v", i, events[i], want[i])
		}
	}
}

func TestRunCapsPollingProgressAt90(t *testing.T) {
	polls := make([]generation.VideoPoll, 20)
	polls = append(polls, generation.VideoPoll{Done: true, DownloadLink: "https://videos.test/v.mp4"})
	gen := &generationtest.Fake{VideoPolls: polls}
	pb, biz := inputs()
	ch, _ := newTask(gen, Config{}).Run(context.Background(), pb, biz)

	last := 0
	for _, e := range collect(t, ch) {
		if e.Progress < last {
			t.Fatalf("progress went backwards: %d after %d", e.Progress, last)
		}
		if !e.Terminal() && e.Message != "Finalizing video..." && e.Progress > 90 {
			t.Fatalf("polling progress above 90: %+v", e)
		}
		last = e.Progress
	}
	if last != 100 {
		t.Fatalf("expected to finish at 100, got %d", last)
	}
}

func TestRunMissingLinkFails(t *testing.T) {
	gen := &generationtest.Fake{VideoPolls: []generation.VideoPoll{{Done: true}}}
	pb, biz := inputs()
	ch, _ := newTask(gen, Config{}).Run(context.Background(), pb, biz)
	events := collect(t, ch)

	last := events[len(events)-1]
	if last.Error != "Video Generation Failed: Video generation completed, but no download link was found." {
		t.Fatalf("unexpected terminal event %+v", last)
	}
}

func TestRunScriptFailure(t *testing.T) {
	gen := &generationtest.Fake{VideoErr: &generation.GenerationError{Message: "Failed to generate content: overloaded"}}
	pb, biz := inputs()
	ch, _ := newTask(gen, Config{}).Run(context.Background(), pb, biz)
	events := collect(t, ch)

	if len(events) != 2 || events[1].Error != "Video Generation Failed: Failed to generate content: overloaded" {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestRunMaxWait(t *testing.T) {
	gen := &generationtest.Fake{VideoPolls: []generation.VideoPoll{{}}}
	pb, biz := inputs()
	task := New(logger.Nop(), gen, Config{PollInterval: time.Hour, MaxWait: time.Millisecond})
	ch, _ := task.Run(context.Background(), pb, biz)
	events := collect(t, ch)

	last := events[len(events)-1]
	if last.Error == "" || last.Done {
		t.Fatalf("expected timeout failure, got %+v", last)
	}
}

func TestRunPreconditions(t *testing.T) {
	task := newTask(&generationtest.Fake{}, Config{})
	pb, biz := inputs()
	if _, err := task.Run(context.Background(), nil, biz); !errors.Is(err, ErrMissingInput) {
		t.Fatalf("nil playbook: got %v", err)
	}
	if _, err := task.Run(context.Background(), pb, nil); !errors.Is(err, ErrMissingInput) {
		t.Fatalf("nil business: got %v", err)
	}
	if ErrMissingInput.Error() != "Cannot generate video: Missing playbook or business data." {
		t.Fatalf("unexpected message %q", ErrMissingInput)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	gen := &generationtest.Fake{VideoPolls: []generation.VideoPoll{{}}}
	pb, biz := inputs()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	task := New(logger.Nop(), gen, Config{PollInterval: time.Hour})
	ch, _ := task.Run(ctx, pb, biz)

	for e := range ch {
		if e.Progress == 30 {
			cancel()
		}
	}
	if n := gen.PollRuns; n != 0 {
		t.Fatalf("expected no polls after cancel, got %d", n)
	}
}
