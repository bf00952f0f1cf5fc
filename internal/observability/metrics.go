package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/playbook-backend/internal/domain/jobs"
	"github.com/yungbote/playbook-backend/internal/platform/logger"
)

// Metrics is the process-wide Prometheus registry. A nil *Metrics records nothing, so callers
// never check whether metrics are enabled.
type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiReqError *Counter

	stageRuns    *CounterVec
	stageLatency *HistogramVec
	exportRuns   *CounterVec
	exportTime   *HistogramVec
	chatTurns    *CounterVec
	chatLatency  *HistogramVec
	videoRuns    *CounterVec

	storageBootstrap *CounterVec
	busMessages      *CounterVec

	queueDepth *GaugeVec
	dbStats    *GaugeVec
	redisUp    *Gauge
	redisPing  *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

const defaultScrapeInterval = 10 * time.Second

// Status labels shared by the run counters.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusCanceled  = "canceled"
)

// RunStatus maps a run's outcome to a status label.
func RunStatus(err error) string {
	switch {
	case err == nil:
		return StatusSucceeded
	case errors.Is(err, context.Canceled):
		return StatusCanceled
	default:
		return StatusFailed
	}
}

func Current() *Metrics {
	return instance
}

// Init builds the registry once. It returns nil when metrics are disabled.
func Init(log *logger.Logger, enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("Metrics enabled")
		}
	})
	return instance
}

func newMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("pb_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"pb_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 120},
		),
		apiInflight: NewGauge("pb_api_inflight_requests", "In-flight API requests."),
		apiReqError: NewCounter("pb_api_requests_error_total", "Total API requests with 5xx status."),
		stageRuns:   NewCounterVec("pb_playbook_stage_total", "Playbook stage runs by stage/status.", []string{"stage", "status"}),
		stageLatency: NewHistogramVec(
			"pb_playbook_stage_duration_seconds",
			"Playbook stage duration in seconds.",
			[]string{"stage", "status"},
			[]float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		),
		exportRuns: NewCounterVec("pb_export_total", "Exports by operation/status.", []string{"op", "status"}),
		exportTime: NewHistogramVec(
			"pb_export_duration_seconds",
			"Export duration in seconds by operation/status.",
			[]string{"op", "status"},
			[]float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		),
		chatTurns: NewCounterVec("pb_chat_turns_total", "Chat turns by status.", []string{"status"}),
		chatLatency: NewHistogramVec(
			"pb_chat_turn_duration_seconds",
			"Chat turn duration in seconds.",
			[]string{"status"},
			[]float64{0.5, 1, 2, 5, 10, 30, 60},
		),
		videoRuns: NewCounterVec("pb_video_runs_total", "Video overview runs by status.", []string{"status"}),
		storageBootstrap: NewCounterVec(
			"pb_object_storage_bootstrap_total",
			"Object storage provider bootstrap attempts by mode/outcome/error code.",
			[]string{"mode", "outcome", "code"},
		),
		busMessages: NewCounterVec(
			"pb_sse_bus_messages_total",
			"SSE bus traffic by op (publish/forward) and outcome.",
			[]string{"op", "outcome"},
		),
		queueDepth: NewGaugeVec("pb_job_queue_depth", "Job runs by status.", []string{"status"}),
		dbStats:    NewGaugeVec("pb_db_pool", "Database pool statistics.", []string{"stat"}),
		redisUp:    NewGauge("pb_redis_up", "Redis reachable (1) or not (0)."),
		redisPing:  NewGauge("pb_redis_ping_seconds", "Redis ping latency in seconds."),
	}
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) writers() []promWriter {
	return []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiReqError,
		m.stageRuns, m.stageLatency,
		m.exportRuns, m.exportTime,
		m.chatTurns, m.chatLatency,
		m.videoRuns,
		m.storageBootstrap, m.busMessages,
		m.queueDepth, m.dbStats, m.redisUp, m.redisPing,
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, mw := range m.writers() {
		if err := mw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	if isServerErrorStatus(status) {
		m.apiReqError.Inc()
	}
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveStage(stage, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.stageRuns.Inc(stage, status)
	m.stageLatency.Observe(dur.Seconds(), stage, status)
}

func (m *Metrics) ObserveExport(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.exportRuns.Inc(op, status)
	m.exportTime.Observe(dur.Seconds(), op, status)
}

func (m *Metrics) ObserveChatTurn(status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.chatTurns.Inc(status)
	m.chatLatency.Observe(dur.Seconds(), status)
}

func (m *Metrics) IncVideo(status string) {
	if m == nil {
		return
	}
	m.videoRuns.Inc(status)
}

func (m *Metrics) ObserveStorageBootstrap(mode, outcome, code string) {
	if m == nil {
		return
	}
	if mode == "" {
		mode = "unset"
	}
	if code == "" {
		code = "none"
	}
	m.storageBootstrap.Inc(mode, outcome, code)
}

func (m *Metrics) IncBus(op, outcome string) {
	if m == nil {
		return
	}
	m.busMessages.Inc(op, outcome)
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	every(ctx, interval, func() {
		sqlDB, err := db.DB()
		if err != nil {
			if log != nil {
				log.Warn("metrics: db stats unavailable", "error", err)
			}
			return
		}
		stats := sqlDB.Stats()
		m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
		m.dbStats.Set(float64(stats.InUse), "in_use")
		m.dbStats.Set(float64(stats.Idle), "idle")
		m.dbStats.Set(float64(stats.WaitCount), "wait_count")
		m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
	})
}

// StartRedisCollector pings addr on its own client until ctx ends.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, addr string, interval time.Duration) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	context.AfterFunc(ctx, func() { _ = rdb.Close() })
	every(ctx, interval, func() {
		start := time.Now()
		if err := rdb.Ping(ctx).Err(); err != nil {
			m.redisUp.Set(0)
			if log != nil {
				log.Warn("metrics: redis ping failed", "error", err)
			}
			return
		}
		m.redisUp.Set(1)
		m.redisPing.Set(time.Since(start).Seconds())
	})
}

func (m *Metrics) StartJobQueueCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	statuses := []string{jobs.StatusQueued, jobs.StatusRunning, jobs.StatusSucceeded, jobs.StatusFailed, jobs.StatusCanceled}
	every(ctx, interval, func() {
		if err := m.collectQueueDepth(ctx, db, statuses); err != nil && log != nil {
			log.Warn("metrics: job queue depth query failed", "error", err)
		}
	})
}

func (m *Metrics) collectQueueDepth(ctx context.Context, db *gorm.DB, statuses []string) error {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := db.WithContext(ctx).
		Model(&jobs.JobRun{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return err
	}
	for _, s := range statuses {
		m.queueDepth.Set(0, s)
	}
	for _, row := range rows {
		status := strings.TrimSpace(row.Status)
		if status == "" {
			status = "unknown"
		}
		m.queueDepth.Set(float64(row.Count), status)
	}
	return nil
}

func every(ctx context.Context, interval time.Duration, fn func()) {
	if interval <= 0 {
		interval = defaultScrapeInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

func isServerErrorStatus(status string) bool {
	status = strings.TrimSpace(status)
	if len(status) < 3 {
		return false
	}
	return status[0] == '5'
}
