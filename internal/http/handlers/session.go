package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/playbook-backend/internal/domain/playbook"
	"github.com/yungbote/playbook-backend/internal/http/response"
)

type SessionHandler struct {
	sessions SessionLookup
}

func NewSessionHandler(sessions SessionLookup) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// POST /api/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	s := h.sessions.Create()
	response.RespondOK(c, gin.H{"session": s.Snapshot()})
}

// GET /api/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}
	response.RespondOK(c, gin.H{"session": s.Snapshot()})
}

type generateRequest struct {
	BusinessData *playbook.BusinessData `json:"businessData"`
}

// POST /api/sessions/:id/generate
func (h *SessionHandler) Generate(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_request", err)
		return
	}
	if req.BusinessData == nil {
		badRequest(c, "invalid_business_data", errors.New("businessData is required"))
		return
	}
	job, err := s.StartGeneration(c.Request.Context(), *req.BusinessData)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondAccepted(c, gin.H{"session": s.Snapshot(), "job": job})
}

// POST /api/sessions/:id/reset
func (h *SessionHandler) Reset(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}
	response.RespondOK(c, gin.H{"session": s.Reset(c.Request.Context())})
}
