package services

import (
	"context"

	"github.com/yungbote/playbook-backend/internal/platform/logger"
	"github.com/yungbote/playbook-backend/internal/realtime"
	"github.com/yungbote/playbook-backend/internal/realtime/bus"
)

type SSEEmitter interface {
	Emit(ctx context.Context, msg realtime.SSEMessage)
}

type HubEmitter struct{ Hub *realtime.SSEHub }

func (e *HubEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	e.Hub.Broadcast(msg)
}

// RedisEmitter publishes through the bus; every instance's forwarder, this one included, delivers
// the message to its local hub. A failed publish falls back to the local hub.
type RedisEmitter struct {
	Bus bus.Bus
	Hub *realtime.SSEHub
	Log *logger.Logger
}

func (e *RedisEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	if err := e.Bus.Publish(ctx, msg); err != nil {
		if e.Log != nil {
			e.Log.Warn("redis publish failed; delivering locally", "event", msg.Event, "error", err)
		}
		if e.Hub != nil {
			e.Hub.Broadcast(msg)
		}
	}
}
