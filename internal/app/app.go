package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/playbook-backend/internal/data/db"
	"github.com/yungbote/playbook-backend/internal/data/repos"
	"github.com/yungbote/playbook-backend/internal/http"
	httpH "github.com/yungbote/playbook-backend/internal/http/handlers"
	"github.com/yungbote/playbook-backend/internal/observability"
	"github.com/yungbote/playbook-backend/internal/platform/logger"
	"github.com/yungbote/playbook-backend/internal/realtime"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *http.Server
	Cfg      Config
	Repos    repos.Repos
	Clients  Clients
	Services Services
	SSEHub   *realtime.SSEHub
	Metrics  *observability.Metrics

	dbService    *db.Service
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logger.NewWithOptions(cfg.LoggerOptions())
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	gin.SetMode(ginMode(cfg.GinMode))

	otelShutdown := observability.InitOTel(context.Background(), log, cfg.OtelConfig())
	metrics := observability.Init(log, cfg.MetricsEnabled)

	dbService, err := db.Open(log, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(dbService.DB()); err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := dbService.DB()

	sseHub := realtime.NewSSEHub(log)
	reposet := repos.New(theDB, log)

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}

	serviceset, err := wireServices(log, cfg, reposet, sseHub, clients)
	if err != nil {
		clients.Close()
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, serviceset, sseHub, map[string]httpH.HealthCheck{
		"database": dbService.Ping,
	})
	server := wireServer(log, cfg, handlerset, metrics)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clients,
		Services:     serviceset,
		SSEHub:       sseHub,
		Metrics:      metrics,
		dbService:    dbService,
		otelShutdown: otelShutdown,
	}, nil
}

// ginMode maps GIN_MODE onto a mode gin accepts; gin.SetMode panics on anything else.
func ginMode(raw string) string {
	switch mode := strings.ToLower(strings.TrimSpace(raw)); mode {
	case gin.DebugMode, gin.TestMode:
		return mode
	default:
		return gin.ReleaseMode
	}
}

func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Clients.SSEBus != nil {
		if err := a.Clients.SSEBus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
			a.Log.Warn("SSE forwarder failed to start; events stay local", "error", err)
		}
	}
	if a.Services.JobWorker != nil {
		a.Services.JobWorker.Start(ctx)
	}
	if a.Services.Sessions != nil {
		a.Services.Sessions.Start(ctx)
	}

	a.Metrics.StartDBCollector(ctx, a.Log, a.DB, 0)
	a.Metrics.StartJobQueueCollector(ctx, a.Log, a.DB, 0)
	a.Metrics.StartRedisCollector(ctx, a.Log, a.Cfg.RedisAddr, 0)
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := a.Cfg.Addr()
	a.Log.Info("Server listening", "addr", addr)
	return a.Server.Run(addr)
}

// Close stops the server, cancels background work and releases clients. Safe to call twice.
func (a *App) Close() {
	if a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.SSEHub != nil {
		a.SSEHub.Close()
	}
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			a.Log.Warn("HTTP shutdown failed", "error", err)
		}
	}
	if a.Services.Sessions != nil {
		a.Services.Sessions.Close()
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		a.otelShutdown = nil
	}
	if a.dbService != nil {
		_ = a.dbService.Close()
		a.dbService = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
