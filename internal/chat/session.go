// Package chat holds the advisory conversation attached to a finished playbook. One turn streams at
// a time; the transcript only grows.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/playbook-backend/internal/domain/playbook"
	"github.com/yungbote/playbook-backend/internal/generation"
	"github.com/yungbote/playbook-backend/internal/observability"
	"github.com/yungbote/playbook-backend/internal/platform/logger"
)

const WelcomeMessage = "I've created your first plan. Now, let's make it perfect. Ask me to change a section, give you new ideas, or explain a concept. How can I help?"

const errorPrefix = "Sorry, I ran into a problem: Chat Error: "

var (
	ErrEmptyMessage = errors.New("chat message is empty")
	ErrTurnInFlight = errors.New("a chat response is still streaming")
)

// Notifier is told about every transcript change. Calls are made outside the session lock, in
// the order the changes happened.
type Notifier interface {
	MessageCreated(msg playbook.ChatMessage)
	MessageDelta(messageID, delta string)
	MessageDone(msg playbook.ChatMessage)
	MessageError(messageID, errMsg string)
}

type Option func(*Session)

func WithNotifier(n Notifier) Option { return func(s *Session) { s.notify = n } }

// WithIDs replaces the message id source.
func WithIDs(fn func() string) Option { return func(s *Session) { s.newID = fn } }

type Session struct {
	log    *logger.Logger
	gen    generation.Generator
	biz    playbook.BusinessData
	pb     playbook.GeneratedPlaybook
	notify Notifier
	newID  func() string
	tracer trace.Tracer

	mu       sync.Mutex
	messages []playbook.ChatMessage
	index    map[string]int
	inFlight bool
}

// New returns a session seeded with the welcome message.
func New(log *logger.Logger, gen generation.Generator, biz playbook.BusinessData, pb playbook.GeneratedPlaybook, opts ...Option) *Session {
	s := &Session{
		log:    log.With("service", "ChatSession"),
		gen:    gen,
		biz:    biz,
		pb:     pb,
		newID:  uuid.NewString,
		tracer: observability.Tracer("chat"),
		index:  map[string]int{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.append(playbook.ChatMessage{ID: s.newID(), Role: playbook.RoleModel, Content: WelcomeMessage, Complete: true})
	return s
}

// append must be called with mu held or before the session is shared.
func (s *Session) append(msg playbook.ChatMessage) {
	s.index[msg.ID] = len(s.messages)
	s.messages = append(s.messages, msg)
}

// Snapshot returns a copy of the transcript.
func (s *Session) Snapshot() []playbook.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]playbook.ChatMessage(nil), s.messages...)
}

func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Submit appends the user's message and streams the reply in the background. The returned channel
// closes when the turn has finished, successfully or not. Cancelling ctx ends the stream.
func (s *Session) Submit(ctx context.Context, text string) (<-chan struct{}, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrTurnInFlight
	}
	s.inFlight = true
	user := playbook.ChatMessage{ID: s.newID(), Role: playbook.RoleUser, Content: text, Complete: true}
	s.append(user)
	history := append([]playbook.ChatMessage(nil), s.messages...)
	s.mu.Unlock()
	s.created(user)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.turn(ctx, history)
	}()
	return done, nil
}

func (s *Session) turn(ctx context.Context, history []playbook.ChatMessage) {
	ctx, span := s.tracer.Start(ctx, "chat.turn", trace.WithAttributes(attribute.Int("chat.history", len(history))))
	defer span.End()
	start := time.Now()

	var replyID string
	full, err := s.gen.StreamChat(ctx, s.biz, s.pb, history, func(delta string) {
		if delta == "" {
			return
		}
		if replyID == "" {
			replyID = s.open()
		}
		s.grow(replyID, delta)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.log.Warn("chat turn failed", "error", err)
		s.fail(replyID, err)
		observability.Current().ObserveChatTurn(observability.RunStatus(err), time.Since(start))
		return
	}
	if replyID == "" {
		replyID = s.open()
	}
	s.complete(replyID, full)
	observability.Current().ObserveChatTurn(observability.StatusSucceeded, time.Since(start))
}

// open starts the model message the stream accumulates into.
func (s *Session) open() string {
	msg := playbook.ChatMessage{ID: s.newID(), Role: playbook.RoleModel}
	s.mu.Lock()
	s.append(msg)
	s.mu.Unlock()
	s.created(msg)
	return msg.ID
}

func (s *Session) grow(id, delta string) {
	s.mu.Lock()
	i, ok := s.index[id]
	if !ok || s.messages[i].Complete {
		s.mu.Unlock()
		return
	}
	s.messages[i].Content += delta
	s.mu.Unlock()
	if s.notify != nil {
		s.notify.MessageDelta(id, delta)
	}
}

func (s *Session) complete(id, full string) {
	s.mu.Lock()
	i := s.index[id]
	if full != "" {
		s.messages[i].Content = full
	}
	s.messages[i].Complete = true
	msg := s.messages[i]
	s.inFlight = false
	s.mu.Unlock()
	if s.notify != nil {
		s.notify.MessageDone(msg)
	}
}

// fail turns the reply into an apology. A turn that never opened a reply gets a new one.
func (s *Session) fail(id string, err error) {
	text := errorPrefix + chatErrorMessage(err)
	s.mu.Lock()
	var created bool
	if id == "" {
		id = s.newID()
		s.append(playbook.ChatMessage{ID: id, Role: playbook.RoleModel})
		created = true
	}
	i := s.index[id]
	s.messages[i].Content = text
	s.messages[i].Complete = true
	msg := s.messages[i]
	s.inFlight = false
	s.mu.Unlock()

	if s.notify == nil {
		return
	}
	if created {
		s.notify.MessageCreated(msg)
	}
	s.notify.MessageError(id, text)
	s.notify.MessageDone(msg)
}

func (s *Session) created(msg playbook.ChatMessage) {
	if s.notify != nil {
		s.notify.MessageCreated(msg)
	}
}

func chatErrorMessage(err error) string {
	if ge, ok := generation.AsGenerationError(err); ok && ge.Message != "" {
		return ge.Message
	}
	return err.Error()
}
