package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/playbook-backend/internal/http/response"
)

type VideoHandler struct {
	sessions SessionLookup
}

func NewVideoHandler(sessions SessionLookup) *VideoHandler {
	return &VideoHandler{sessions: sessions}
}

// POST /api/sessions/:id/video
func (h *VideoHandler) Start(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}
	state, err := s.StartVideo()
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondAccepted(c, gin.H{"video": state})
}

// GET /api/sessions/:id/video
func (h *VideoHandler) Get(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}
	response.RespondOK(c, gin.H{"video": s.VideoState()})
}
