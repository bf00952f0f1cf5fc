package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/playbook-backend/internal/http/response"
)

type ChatHandler struct {
	sessions SessionLookup
}

func NewChatHandler(sessions SessionLookup) *ChatHandler {
	return &ChatHandler{sessions: sessions}
}

// GET /api/sessions/:id/chat
func (h *ChatHandler) ListMessages(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}
	msgs, err := s.Chat()
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"messages": msgs})
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

// POST /api/sessions/:id/chat
//
// The reply streams over the session's event channel; the response only acknowledges the turn.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_request", err)
		return
	}
	if _, err := s.SubmitChat(req.Message); err != nil {
		respondErr(c, err)
		return
	}
	msgs, err := s.Chat()
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondAccepted(c, gin.H{"messages": msgs})
}
