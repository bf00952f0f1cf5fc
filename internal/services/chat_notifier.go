package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/playbook-backend/internal/chat"
	"github.com/yungbote/playbook-backend/internal/domain/playbook"
	"github.com/yungbote/playbook-backend/internal/realtime"
)

type ChatNotifier = chat.Notifier

type chatNotifier struct {
	emit      SSEEmitter
	sessionID uuid.UUID
}

// NewChatNotifier publishes a session's transcript changes on the session channel.
func NewChatNotifier(emit SSEEmitter, sessionID uuid.UUID) ChatNotifier {
	return &chatNotifier{emit: emit, sessionID: sessionID}
}

func (n *chatNotifier) send(event realtime.SSEEvent, data map[string]any) {
	if n == nil || n.emit == nil || n.sessionID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: n.sessionID.String(),
		Event:   event,
		Data:    data,
	})
}

func (n *chatNotifier) MessageCreated(msg playbook.ChatMessage) {
	n.send(realtime.SSEEventChatMessage, map[string]any{"message": msg})
}

func (n *chatNotifier) MessageDelta(messageID, delta string) {
	if delta == "" {
		return
	}
	n.send(realtime.SSEEventChatDelta, map[string]any{
		"message_id": messageID,
		"delta":      delta,
	})
}

func (n *chatNotifier) MessageDone(msg playbook.ChatMessage) {
	n.send(realtime.SSEEventChatDone, map[string]any{"message": msg})
}

func (n *chatNotifier) MessageError(messageID, errMsg string) {
	n.send(realtime.SSEEventChatError, map[string]any{
		"message_id": messageID,
		"error":      errMsg,
	})
}
