package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/playbook-backend/internal/domain/exports"
	"github.com/yungbote/playbook-backend/internal/domain/playbook"
	"github.com/yungbote/playbook-backend/internal/export"
	"github.com/yungbote/playbook-backend/internal/http/response"
	"github.com/yungbote/playbook-backend/internal/session"
)

// ArtifactReader lists and opens stored export artifacts.
type ArtifactReader interface {
	Get(ctx context.Context, key string) (*exports.ExportArtifact, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*exports.ExportArtifact, error)
	Open(ctx context.Context, a *exports.ExportArtifact) (io.ReadCloser, error)
}

type ExportHandler struct {
	sessions  SessionLookup
	artifacts ArtifactReader
}

// NewExportHandler builds the export endpoints. artifacts may be nil, in which case the artifact
// listing endpoints report no stored copies.
func NewExportHandler(sessions SessionLookup, artifacts ArtifactReader) *ExportHandler {
	return &ExportHandler{sessions: sessions, artifacts: artifacts}
}

func sendResult(c *gin.Context, res *export.Result) {
	response.RespondFile(c, res.Filename, res.ContentType, res.Data)
}

type sectionRequest struct {
	Kind export.Kind `json:"kind"`
}

// POST /api/sessions/:id/exports/section
func (h *ExportHandler) Section(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}
	var req sectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_request", err)
		return
	}
	res, err := s.ExportSection(c.Request.Context(), req.Kind)
	if err != nil {
		respondErr(c, err)
		return
	}
	sendResult(c, res)
}

// POST /api/sessions/:id/exports/asset
func (h *ExportHandler) Asset(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}
	var ref session.ItemRef
	if err := c.ShouldBindJSON(&ref); err != nil {
		badRequest(c, "invalid_request", err)
		return
	}
	res, err := s.ExportAsset(c.Request.Context(), ref)
	if err != nil {
		respondErr(c, err)
		return
	}
	sendResult(c, res)
}

type bundleRequest struct {
	Offer playbook.OfferSlot `json:"offer"`
}

// POST /api/sessions/:id/exports/bundle
func (h *ExportHandler) Bundle(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}
	var req bundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_request", err)
		return
	}
	res, err := s.ExportBundle(c.Request.Context(), req.Offer)
	if err != nil {
		respondErr(c, err)
		return
	}
	sendResult(c, res)
}

// POST /api/sessions/:id/exports/kit
func (h *ExportHandler) Kit(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}
	res, err := s.ExportKit(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	sendResult(c, res)
}

// GET /api/sessions/:id/exports/state
func (h *ExportHandler) State(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}
	response.RespondOK(c, gin.H{"export": s.ExportState()})
}

// GET /api/sessions/:id/offline-page
func (h *ExportHandler) OfflinePage(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}
	page, err := s.OfflinePage()
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondFile(c, "index.html", export.ContentTypeHTML, page)
}

// POST /api/sessions/:id/assets/preview
func (h *ExportHandler) PreviewAsset(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}
	var ref session.ItemRef
	if err := c.ShouldBindJSON(&ref); err != nil {
		badRequest(c, "invalid_request", err)
		return
	}
	item, err := s.PreviewAsset(c.Request.Context(), ref)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"item": item})
}

// GET /api/sessions/:id/exports/artifacts
func (h *ExportHandler) ListArtifacts(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}
	if h.artifacts == nil {
		response.RespondOK(c, gin.H{"artifacts": []*exports.ExportArtifact{}})
		return
	}
	out, err := h.artifacts.ListBySession(c.Request.Context(), s.ID())
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"artifacts": out})
}

// GET /api/exports/:key
func (h *ExportHandler) DownloadArtifact(c *gin.Context) {
	if h.artifacts == nil {
		response.RespondError(c, http.StatusNotFound, "artifact_not_found", errors.New("export artifacts are not recorded"))
		return
	}
	ctx := c.Request.Context()
	a, err := h.artifacts.Get(ctx, c.Param("key"))
	if err != nil {
		respondErr(c, err)
		return
	}
	if a == nil {
		response.RespondError(c, http.StatusNotFound, "artifact_not_found", errors.New("export artifact not found"))
		return
	}
	rc, err := h.artifacts.Open(ctx, a)
	if err != nil {
		respondErr(c, err)
		return
	}
	defer rc.Close()
	c.DataFromReader(http.StatusOK, a.SizeBytes, a.ContentType, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", a.Filename),
	})
}
