package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/playbook-backend/internal/platform/ctxutil"
)

func TestAttachTraceContextKeepsCallerIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	var seen *ctxutil.TraceData
	r.GET("/healthcheck", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	req.Header.Set(headerRequestID, "req-1")
	req.Header.Set(headerTraceID, "trace-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if seen == nil || seen.RequestID != "req-1" || seen.TraceID != "trace-1" {
		t.Fatalf("unexpected trace data: %+v", seen)
	}
	if rec.Header().Get(headerRequestID) != "req-1" {
		t.Fatalf("request id not echoed")
	}
}

func TestAttachTraceContextGeneratesIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/healthcheck", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Header().Get(headerRequestID) == "" || rec.Header().Get(headerTraceID) == "" {
		t.Fatalf("expected generated ids, got headers %v", rec.Header())
	}
}

func TestAttachTraceContextTagsSessionRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	var seen *ctxutil.TraceData
	handler := func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusOK)
	}
	r.GET("/api/sessions/:id", handler)
	r.GET("/api/exports/:key", handler)

	id := "8F14E45F-CEEA-467A-9A36-DEDD4BEA2543"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id, nil))
	want := strings.ToLower(id)
	if seen == nil || seen.SessionID != want || rec.Header().Get(headerSessionID) != want {
		t.Fatalf("session id not attached: %+v header=%q", seen, rec.Header().Get(headerSessionID))
	}

	for _, path := range []string{"/api/sessions/not-a-uuid", "/api/exports/" + id} {
		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if seen == nil || seen.SessionID != "" || rec.Header().Get(headerSessionID) != "" {
			t.Fatalf("%s: unexpected session id %+v", path, seen)
		}
	}
}
