package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/playbook-backend/internal/chat"
	"github.com/yungbote/playbook-backend/internal/data/repos"
	"github.com/yungbote/playbook-backend/internal/generation"
	build "github.com/yungbote/playbook-backend/internal/jobs/pipeline/playbook_build"
	jobruntime "github.com/yungbote/playbook-backend/internal/jobs/runtime"
	"github.com/yungbote/playbook-backend/internal/jobs/worker"
	"github.com/yungbote/playbook-backend/internal/materialize"
	"github.com/yungbote/playbook-backend/internal/platform/logger"
	"github.com/yungbote/playbook-backend/internal/realtime"
	"github.com/yungbote/playbook-backend/internal/render"
	"github.com/yungbote/playbook-backend/internal/services"
	"github.com/yungbote/playbook-backend/internal/session"
	"github.com/yungbote/playbook-backend/internal/video"
)

type Services struct {
	Generator generation.Generator

	// Jobs + notifications
	Emitter     services.SSEEmitter
	JobNotifier services.JobNotifier
	JobService  services.JobService
	JobRegistry *jobruntime.Registry
	JobWorker   *worker.Worker

	// Exports
	Artifacts    services.ExportArtifactService
	Materializer *materialize.Materializer
	Renderer     render.Renderer

	Video    *video.Task
	Sessions *session.Store
}

func wireServices(log *logger.Logger, cfg Config, reposet repos.Repos, sseHub *realtime.SSEHub, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	gen, err := generation.New(log, clients.OpenaiClient)
	if err != nil {
		return Services{}, fmt.Errorf("init generator: %w", err)
	}

	var emitter services.SSEEmitter
	if clients.SSEBus != nil {
		// every instance's forwarder delivers bus traffic to its own hub
		emitter = &services.RedisEmitter{Bus: clients.SSEBus, Hub: sseHub, Log: log}
	} else {
		emitter = &services.HubEmitter{Hub: sseHub}
	}

	registry := jobruntime.NewRegistry()
	if err := registry.Register(build.New(log, gen)); err != nil {
		return Services{}, fmt.Errorf("register %s: %w", build.JobType, err)
	}

	// The job service and the worker need each other; the dispatcher is bound once both exist.
	dispatch := &workerDispatcher{}
	jobNotifier := services.NewJobNotifier(emitter)
	jobService := services.NewJobService(log, reposet.JobRuns, jobNotifier, dispatch)

	artifacts := services.NewExportArtifactService(log, reposet.ExportArtifacts, clients.ExportBucket)
	materializer := materialize.New(log, gen, cfg.MaterializeConcurrency)
	renderer := render.NewPDFRenderer()
	videoTask := video.New(log, gen, video.Config{
		PollInterval: cfg.VideoPollInterval,
		MaxWait:      cfg.VideoPollMaxWait,
	})

	perStage := time.Duration(cfg.AverageSecondsPerStage) * time.Second
	if perStage <= 0 {
		perStage = build.AverageStageDuration(log)
	}

	store := session.NewStore(session.Deps{
		Log:       log,
		Generator: gen,
		Queue:     jobService,
		Emitter:   emitter,
		ChatNotifier: func(sessionID uuid.UUID) chat.Notifier {
			return services.NewChatNotifier(emitter, sessionID)
		},
		Sinks:        artifacts,
		Materializer: materializer,
		Renderer:     renderer,
		Video:        videoTask,
	}, session.Config{
		IdleTTL:   cfg.SessionIdleTTL,
		Geometry:  cfg.Geometry(),
		Estimator: build.NewEstimator(len(build.Stages(log)), perStage),
	})

	jobWorker := worker.NewWorker(log, reposet.JobRuns, registry, services.MultiNotifier{jobNotifier, store}, worker.Options{
		Concurrency: cfg.WorkerConcurrency,
	})
	dispatch.bind(jobWorker)

	return Services{
		Generator:    gen,
		Emitter:      emitter,
		JobNotifier:  jobNotifier,
		JobService:   jobService,
		JobRegistry:  registry,
		JobWorker:    jobWorker,
		Artifacts:    artifacts,
		Materializer: materializer,
		Renderer:     renderer,
		Video:        videoTask,
		Sessions:     store,
	}, nil
}

// workerDispatcher forwards to the worker once it is bound. Calls before that are dropped; the
// worker's poll loop picks up anything queued in the meantime.
type workerDispatcher struct {
	mu sync.RWMutex
	w  *worker.Worker
}

var _ services.Dispatcher = (*workerDispatcher)(nil)

func (d *workerDispatcher) bind(w *worker.Worker) {
	d.mu.Lock()
	d.w = w
	d.mu.Unlock()
}

func (d *workerDispatcher) current() *worker.Worker {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.w
}

func (d *workerDispatcher) Wake() {
	if w := d.current(); w != nil {
		w.Wake()
	}
}

func (d *workerDispatcher) Cancel(jobID uuid.UUID) bool {
	if w := d.current(); w != nil {
		return w.Cancel(jobID)
	}
	return false
}
