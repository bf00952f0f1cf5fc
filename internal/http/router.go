package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/playbook-backend/internal/http/handlers"
	httpMW "github.com/yungbote/playbook-backend/internal/http/middleware"
	"github.com/yungbote/playbook-backend/internal/observability"
	"github.com/yungbote/playbook-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Metrics     *observability.Metrics

	HealthHandler   *httpH.HealthHandler
	IntakeHandler   *httpH.IntakeHandler
	SessionHandler  *httpH.SessionHandler
	RealtimeHandler *httpH.RealtimeHandler
	ChatHandler     *httpH.ChatHandler
	ExportHandler   *httpH.ExportHandler
	VideoHandler    *httpH.VideoHandler
	JobHandler      *httpH.JobHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		if cfg.IntakeHandler != nil {
			api.POST("/intake/autofill", cfg.IntakeHandler.Autofill)
			api.POST("/intake/suggest", cfg.IntakeHandler.Suggest)
		}
		if cfg.JobHandler != nil {
			api.GET("/jobs/:id", cfg.JobHandler.GetJob)
		}
		if cfg.ExportHandler != nil {
			api.GET("/exports/:key", cfg.ExportHandler.DownloadArtifact)
		}
	}

	sessions := api.Group("/sessions")
	{
		if cfg.SessionHandler != nil {
			sessions.POST("", cfg.SessionHandler.CreateSession)
			sessions.GET("/:id", cfg.SessionHandler.GetSession)
			sessions.POST("/:id/generate", cfg.SessionHandler.Generate)
			sessions.POST("/:id/reset", cfg.SessionHandler.Reset)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			sessions.GET("/:id/events", cfg.RealtimeHandler.SSEStream)
		}

		if cfg.ChatHandler != nil {
			sessions.GET("/:id/chat", cfg.ChatHandler.ListMessages)
			sessions.POST("/:id/chat", cfg.ChatHandler.SendMessage)
		}

		if cfg.ExportHandler != nil {
			sessions.POST("/:id/exports/section", cfg.ExportHandler.Section)
			sessions.POST("/:id/exports/asset", cfg.ExportHandler.Asset)
			sessions.POST("/:id/exports/bundle", cfg.ExportHandler.Bundle)
			sessions.POST("/:id/exports/kit", cfg.ExportHandler.Kit)
			sessions.GET("/:id/exports/state", cfg.ExportHandler.State)
			sessions.GET("/:id/exports/artifacts", cfg.ExportHandler.ListArtifacts)
			sessions.GET("/:id/offline-page", cfg.ExportHandler.OfflinePage)
			sessions.POST("/:id/assets/preview", cfg.ExportHandler.PreviewAsset)
		}

		if cfg.VideoHandler != nil {
			sessions.POST("/:id/video", cfg.VideoHandler.Start)
			sessions.GET("/:id/video", cfg.VideoHandler.Get)
		}
	}

	return r
}
