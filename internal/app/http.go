package app

import (
	"github.com/yungbote/playbook-backend/internal/http"
	httpH "github.com/yungbote/playbook-backend/internal/http/handlers"
	"github.com/yungbote/playbook-backend/internal/observability"
	"github.com/yungbote/playbook-backend/internal/platform/logger"
	"github.com/yungbote/playbook-backend/internal/realtime"
)

type Handlers struct {
	Health   *httpH.HealthHandler
	Intake   *httpH.IntakeHandler
	Session  *httpH.SessionHandler
	Realtime *httpH.RealtimeHandler
	Chat     *httpH.ChatHandler
	Export   *httpH.ExportHandler
	Video    *httpH.VideoHandler
	Job      *httpH.JobHandler
}

func wireHandlers(log *logger.Logger, services Services, sseHub *realtime.SSEHub, checks map[string]httpH.HealthCheck) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(checks),
		Intake:   httpH.NewIntakeHandler(services.Generator),
		Session:  httpH.NewSessionHandler(services.Sessions),
		Realtime: httpH.NewRealtimeHandler(log, sseHub, services.Sessions),
		Chat:     httpH.NewChatHandler(services.Sessions),
		Export:   httpH.NewExportHandler(services.Sessions, services.Artifacts),
		Video:    httpH.NewVideoHandler(services.Sessions),
		Job:      httpH.NewJobHandler(services.JobService),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *http.Server {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return http.NewServer(http.RouterConfig{
		Log:             log,
		ServiceName:     serviceName,
		CORSOrigins:     cfg.CORSOrigins,
		Metrics:         metrics,
		HealthHandler:   handlers.Health,
		IntakeHandler:   handlers.Intake,
		SessionHandler:  handlers.Session,
		RealtimeHandler: handlers.Realtime,
		ChatHandler:     handlers.Chat,
		ExportHandler:   handlers.Export,
		VideoHandler:    handlers.Video,
		JobHandler:      handlers.Job,
	})
}
