package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/playbook-backend/internal/domain/playbook"
	"github.com/yungbote/playbook-backend/internal/http/response"
)

// IntakeAssistant fills and suggests intake fields.
type IntakeAssistant interface {
	Autofill(ctx context.Context, description, url string) (playbook.BusinessData, error)
	SuggestField(ctx context.Context, partial playbook.BusinessData, field string) (string, error)
}

type IntakeHandler struct {
	assist IntakeAssistant
}

func NewIntakeHandler(assist IntakeAssistant) *IntakeHandler {
	return &IntakeHandler{assist: assist}
}

type autofillRequest struct {
	Description string `json:"description"`
	URL         string `json:"url"`
}

// POST /api/intake/autofill
func (h *IntakeHandler) Autofill(c *gin.Context) {
	var req autofillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_request", err)
		return
	}
	desc, url := strings.TrimSpace(req.Description), strings.TrimSpace(req.URL)
	if desc == "" && url == "" {
		badRequest(c, "invalid_request", errors.New("description or url is required"))
		return
	}
	biz, err := h.assist.Autofill(c.Request.Context(), desc, url)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"businessData": biz})
}

type suggestRequest struct {
	BusinessData playbook.BusinessData `json:"businessData"`
	Field        string                `json:"field"`
}

// POST /api/intake/suggest
func (h *IntakeHandler) Suggest(c *gin.Context) {
	var req suggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_request", err)
		return
	}
	field := strings.TrimSpace(req.Field)
	if field == "" {
		badRequest(c, "invalid_request", errors.New("field is required"))
		return
	}
	suggestion, err := h.assist.SuggestField(c.Request.Context(), req.BusinessData, field)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"suggestion": suggestion})
}
