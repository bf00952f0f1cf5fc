package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/playbook-backend/internal/chat"
	"github.com/yungbote/playbook-backend/internal/domain/playbook"
	"github.com/yungbote/playbook-backend/internal/export"
	"github.com/yungbote/playbook-backend/internal/generation"
	"github.com/yungbote/playbook-backend/internal/http/response"
	"github.com/yungbote/playbook-backend/internal/platform/apierr"
	"github.com/yungbote/playbook-backend/internal/services"
	"github.com/yungbote/playbook-backend/internal/session"
	"github.com/yungbote/playbook-backend/internal/video"
)

// classify maps a domain error to the status and code the API reports for it.
func classify(err error) *apierr.Error {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae
	}
	if pe, ok := export.AsPreconditionError(err); ok {
		return apierr.New(http.StatusUnprocessableEntity, "precondition_failed", pe)
	}
	var ee *export.Error
	if errors.As(err, &ee) {
		return apierr.New(http.StatusBadGateway, "export_failed", ee)
	}
	if ge, ok := generation.AsGenerationError(err); ok {
		return apierr.New(http.StatusBadGateway, "generation_failed", errors.New(ge.Message))
	}

	switch {
	case errors.Is(err, session.ErrNotFound):
		return apierr.New(http.StatusNotFound, "session_not_found", err)
	case errors.Is(err, session.ErrInvalidTransition):
		return apierr.New(http.StatusConflict, "invalid_transition", err)
	case errors.Is(err, session.ErrNotReady):
		return apierr.New(http.StatusConflict, "playbook_not_ready", err)
	case errors.Is(err, session.ErrVideoInProgress):
		return apierr.New(http.StatusConflict, "video_in_progress", err)
	case errors.Is(err, export.ErrExportInProgress):
		return apierr.New(http.StatusConflict, "export_in_progress", err)
	case errors.Is(err, chat.ErrTurnInFlight):
		return apierr.New(http.StatusConflict, "chat_in_flight", err)
	case errors.Is(err, chat.ErrEmptyMessage):
		return apierr.New(http.StatusBadRequest, "empty_message", err)
	case errors.Is(err, playbook.ErrMissingBusinessType):
		return apierr.New(http.StatusBadRequest, "invalid_business_data", err)
	case errors.Is(err, video.ErrMissingInput):
		return apierr.New(http.StatusUnprocessableEntity, "precondition_failed", err)
	case errors.Is(err, services.ErrArtifactNotStored):
		return apierr.New(http.StatusNotFound, "artifact_not_stored", err)
	case errors.Is(err, context.Canceled):
		return apierr.New(http.StatusConflict, "canceled", err)
	}
	return apierr.From(err)
}

func respondErr(c *gin.Context, err error) {
	response.RespondAPIError(c, classify(err))
}

func badRequest(c *gin.Context, code string, err error) {
	response.RespondError(c, http.StatusBadRequest, code, err)
}

// SessionLookup finds live sessions by id.
type SessionLookup interface {
	Create() *session.Session
	Get(id uuid.UUID) (*session.Session, error)
}

// lookupSession resolves :id or writes the error response.
func lookupSession(c *gin.Context, sessions SessionLookup) (*session.Session, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid_session_id", err)
		return nil, false
	}
	s, err := sessions.Get(id)
	if err != nil {
		respondErr(c, err)
		return nil, false
	}
	return s, true
}
