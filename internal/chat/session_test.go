package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/playbook-backend/internal/domain/playbook"
	"github.com/yungbote/playbook-backend/internal/domain/playbook/playbooktest"
	"github.com/yungbote/playbook-backend/internal/generation"
	"github.com/yungbote/playbook-backend/internal/generation/generationtest"
	"github.com/yungbote/playbook-backend/internal/platform/logger"
)

type recorder struct {
	mu      sync.Mutex
	session *Session
	events  []string
	lengths []int
}

func (r *recorder) MessageCreated(msg playbook.ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "created:"+string(msg.Role))
}

func (r *recorder) MessageDelta(id, delta string) {
	snap := r.session.Snapshot()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "delta:"+delta)
	r.lengths = append(r.lengths, len(snap[len(snap)-1].Content))
}

func (r *recorder) MessageDone(msg playbook.ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "done")
}

func (r *recorder) MessageError(id, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "error")
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func newSession(t *testing.T, gen generation.Generator) (*Session, *recorder) {
	t.Helper()
	rec := &recorder{}
	n := 0
	s := New(logger.Nop(), gen, playbooktest.Business(), playbooktest.Complete(),
		WithNotifier(rec),
		WithIDs(func() string { n++; return fmt.Sprintf("m%d", n) }),
	)
	rec.session = s
	return s, rec
}

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("turn did not finish")
	}
}

func TestNewSeedsWelcome(t *testing.T) {
	s, _ := newSession(t, &generationtest.Fake{})
	msgs := s.Snapshot()
	if len(msgs) != 1 || msgs[0].Role != playbook.RoleModel || msgs[0].Content != WelcomeMessage || !msgs[0].Complete {
		t.Fatalf("unexpected seed transcript %+v", msgs)
	}
}

func TestSubmitStreamsReply(t *testing.T) {
	gen := &generationtest.Fake{ChatDeltas: []string{"Raise ", "your ", "prices."}}
	s, rec := newSession(t, gen)

	done, err := s.Submit(context.Background(), "  How do I grow?  ")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	wait(t, done)

	msgs := s.Snapshot()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[1].Role != playbook.RoleUser || msgs[1].Content != "How do I grow?" {
		t.Fatalf("unexpected user message %+v", msgs[1])
	}
	if msgs[2].Role != playbook.RoleModel || msgs[2].Content != "Raise your prices." || !msgs[2].Complete {
		t.Fatalf("unexpected reply %+v", msgs[2])
	}
	if s.InFlight() {
		t.Fatalf("turn still marked in flight")
	}

	want := []string{"created:user", "created:model", "delta:Raise ", "delta:your ", "delta:prices.", "done"}
	got := rec.Events()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("events:\n got %v\nwant %v", got, want)
	}
	for i := 1; i < len(rec.lengths); i++ {
		if rec.lengths[i] <= rec.lengths[i-1] {
			t.Fatalf("reply did not grow monotonically: %v", rec.lengths)
		}
	}
}

func TestSubmitRejectsEmpty(t *testing.T) {
	s, rec := newSession(t, &generationtest.Fake{})
	if _, err := s.Submit(context.Background(), " \n\t "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("want ErrEmptyMessage, got %v", err)
	}
	if len(s.Snapshot()) != 1 || len(rec.Events()) != 0 {
		t.Fatalf("empty submit changed the transcript")
	}
}

type blockingGen struct {
	*generationtest.Fake
	release chan struct{}
}

func (b *blockingGen) StreamChat(ctx context.Context, biz playbook.BusinessData, pb playbook.GeneratedPlaybook, history []playbook.ChatMessage, onDelta func(string)) (string, error) {
	onDelta("thinking")
	<-b.release
	return "thinking", nil
}

func TestSubmitRejectsWhileStreaming(t *testing.T) {
	gen := &blockingGen{Fake: &generationtest.Fake{}, release: make(chan struct{})}
	s, _ := newSession(t, gen)

	done, err := s.Submit(context.Background(), "first")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := s.Submit(context.Background(), "second"); !errors.Is(err, ErrTurnInFlight) {
		t.Fatalf("want ErrTurnInFlight, got %v", err)
	}
	close(gen.release)
	wait(t, done)

	for _, m := range s.Snapshot() {
		if m.Content == "second" {
			t.Fatalf("rejected message was queued")
		}
	}
	if _, err := s.Submit(context.Background(), "third"); err != nil {
		t.Fatalf("Submit after turn: %v", err)
	}
}

func TestStreamFailureBeforeReplyAppendsApology(t *testing.T) {
	gen := &generationtest.Fake{ChatErr: &generation.GenerationError{Op: "chat_stream", Message: "Failed to generate content: quota exceeded"}}
	s, rec := newSession(t, gen)

	done, err := s.Submit(context.Background(), "help")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	wait(t, done)

	msgs := s.Snapshot()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	want := "Sorry, I ran into a problem: Chat Error: Failed to generate content: quota exceeded"
	if msgs[2].Role != playbook.RoleModel || msgs[2].Content != want || !msgs[2].Complete {
		t.Fatalf("unexpected apology %+v", msgs[2])
	}
	got := rec.Events()
	if fmt.Sprint(got) != fmt.Sprint([]string{"created:user", "created:model", "error", "done"}) {
		t.Fatalf("unexpected events %v", got)
	}
}

func TestStreamFailureMidReplyReplacesReply(t *testing.T) {
	gen := &generationtest.Fake{ChatDeltas: []string{"Half an"}, ChatErr: errors.New("connection reset")}
	s, _ := newSession(t, gen)

	done, _ := s.Submit(context.Background(), "help")
	wait(t, done)

	msgs := s.Snapshot()
	if len(msgs) != 3 {
		t.Fatalf("expected the partial reply to be reused, got %d messages", len(msgs))
	}
	if msgs[2].Content != "Sorry, I ran into a problem: Chat Error: connection reset" {
		t.Fatalf("unexpected reply %q", msgs[2].Content)
	}
	if msgs[1].Content != "help" {
		t.Fatalf("transcript was rolled back")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s, _ := newSession(t, &generationtest.Fake{})
	snap := s.Snapshot()
	snap[0].Content = "mutated"
	if s.Snapshot()[0].Content != WelcomeMessage {
		t.Fatalf("snapshot aliases session state")
	}
}
