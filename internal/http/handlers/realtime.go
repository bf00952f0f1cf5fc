package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/playbook-backend/internal/platform/logger"
	"github.com/yungbote/playbook-backend/internal/realtime"
)

type RealtimeHandler struct {
	Log      *logger.Logger
	Hub      *realtime.SSEHub
	sessions SessionLookup
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub, sessions SessionLookup) *RealtimeHandler {
	return &RealtimeHandler{
		Log:      log.With("handler", "RealtimeHandler"),
		Hub:      hub,
		sessions: sessions,
	}
}

// GET /api/sessions/:id/events
//
// The stream opens with the current snapshot so a client never misses state that changed before
// it subscribed.
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}
	channel := s.ID().String()

	client := h.Hub.NewSSEClient()
	h.Hub.AddChannel(client, channel)
	client.Outbound <- realtime.SSEMessage{
		Channel: channel,
		Event:   realtime.SSEEventSessionUpdated,
		Data:    map[string]any{"session": s.Snapshot()},
	}
	h.Log.Info("SSEStream open", "session_id", channel, "client_id", client.ID)

	h.Hub.ServeHTTP(c.Writer, c.Request, client)

	h.Hub.CloseClient(client)
	h.Log.Info("SSEStream closed", "session_id", channel, "client_id", client.ID)
}
