package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/playbook-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"
	headerSessionID = "X-Session-Id"

	sessionRoutePrefix = "/api/sessions/:id"
)

// AttachTraceContext stamps trace, request and (on session routes) session ids onto the request
// context, the gin context, the active span and the response headers.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		td := &ctxutil.TraceData{
			RequestID: strings.TrimSpace(c.GetHeader(headerRequestID)),
			TraceID:   strings.TrimSpace(c.GetHeader(headerTraceID)),
			SessionID: routeSessionID(c),
		}
		if td.RequestID == "" {
			td.RequestID = uuid.NewString()
		}
		if td.TraceID == "" && span.SpanContext().HasTraceID() {
			td.TraceID = span.SpanContext().TraceID().String()
		}
		if td.TraceID == "" {
			td.TraceID = uuid.NewString()
		}

		c.Request = c.Request.WithContext(ctxutil.WithTraceData(c.Request.Context(), td))
		c.Set("trace_id", td.TraceID)
		c.Set("request_id", td.RequestID)
		c.Writer.Header().Set(headerTraceID, td.TraceID)
		c.Writer.Header().Set(headerRequestID, td.RequestID)
		if td.SessionID != "" {
			c.Set("session_id", td.SessionID)
			c.Writer.Header().Set(headerSessionID, td.SessionID)
			span.SetAttributes(attribute.String("playbook.session_id", td.SessionID))
		}
		c.Next()
	}
}

// routeSessionID returns the canonical session id of a session route, or "" elsewhere.
func routeSessionID(c *gin.Context) string {
	if !strings.HasPrefix(c.FullPath(), sessionRoutePrefix) {
		return ""
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ""
	}
	return id.String()
}
