package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/yungbote/playbook-backend/internal/observability"
	"github.com/yungbote/playbook-backend/internal/platform/logger"
	"github.com/yungbote/playbook-backend/internal/render"
)

type Config struct {
	Port    int    `env:"PORT" envDefault:"8080"`
	GinMode string `env:"GIN_MODE" envDefault:"release"`

	LogMode       string `env:"LOG_MODE" envDefault:"development"`
	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"100"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"14"`

	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN    string `env:"DB_DSN"`

	WorkerConcurrency      int           `env:"WORKER_CONCURRENCY" envDefault:"2"`
	MaterializeConcurrency int           `env:"MATERIALIZE_CONCURRENCY" envDefault:"4"`
	SessionIdleTTL         time.Duration `env:"SESSION_IDLE_TTL" envDefault:"2h"`
	VideoPollInterval      time.Duration `env:"VIDEO_POLL_INTERVAL" envDefault:"10s"`
	VideoPollMaxWait       time.Duration `env:"VIDEO_POLL_MAX_WAIT" envDefault:"0s"`
	// zero takes the value from the embedded stage file
	AverageSecondsPerStage int     `env:"AVERAGE_SECONDS_PER_STAGE" envDefault:"0"`
	PDFMarginMM            float64 `env:"PDF_MARGIN_MM" envDefault:"15"`

	RedisAddr string `env:"REDIS_ADDR"`
	// RedisChannel prefixes the per-session pub/sub channels (<prefix>:<session id>).
	RedisChannel string `env:"REDIS_CHANNEL" envDefault:"playbook:sse"`

	ObjectStorageMode     string `env:"OBJECT_STORAGE_MODE"`
	StorageEmulatorHost   string `env:"STORAGE_EMULATOR_HOST"`
	ExportBucketName      string `env:"EXPORT_GCS_BUCKET_NAME"`
	ExportCDNDomain       string `env:"EXPORT_CDN_DOMAIN"`
	ExportPublicBaseURL   string `env:"EXPORT_PUBLIC_BASE_URL"`
	GoogleCredentialsJSON string `env:"GOOGLE_APPLICATION_CREDENTIALS_JSON"`

	MetricsEnabled bool     `env:"METRICS_ENABLED" envDefault:"true"`
	CORSOrigins    []string `env:"CORS_ORIGINS" envSeparator:","`

	Otel OtelEnv
}

type OtelEnv struct {
	Enabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	ServiceName string  `env:"OTEL_SERVICE_NAME" envDefault:"playbook-api"`
	Environment string  `env:"OTEL_ENVIRONMENT" envDefault:"development"`
	Version     string  `env:"OTEL_SERVICE_VERSION"`
	Endpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Headers     string  `env:"OTEL_EXPORTER_OTLP_HEADERS"`
	Insecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"false"`
	SampleRatio float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"1"`
}

// LoadConfig reads .env from the working directory when present, then the process environment.
// Values already set in the environment win over the file.
func LoadConfig() (Config, error) {
	if filename, err := filepath.Abs(".env"); err == nil {
		if _, statErr := os.Stat(filename); statErr == nil {
			if loadErr := godotenv.Load(filename); loadErr != nil {
				return Config{}, fmt.Errorf("load %s: %w", filename, loadErr)
			}
		} else if !errors.Is(statErr, os.ErrNotExist) {
			return Config{}, fmt.Errorf("stat %s: %w", filename, statErr)
		}
	}
	return parseConfig()
}

func parseConfig() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.CORSOrigins = trimAll(cfg.CORSOrigins)
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid PORT %d", cfg.Port)
	}
	if cfg.PDFMarginMM <= 0 {
		return Config{}, fmt.Errorf("invalid PDF_MARGIN_MM %v", cfg.PDFMarginMM)
	}
	if cfg.VideoPollMaxWait < 0 {
		return Config{}, fmt.Errorf("invalid VIDEO_POLL_MAX_WAIT %s", cfg.VideoPollMaxWait)
	}
	return cfg, nil
}

func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

func (c Config) LoggerOptions() logger.Options {
	return logger.Options{
		Mode:       c.LogMode,
		File:       c.LogFile,
		MaxSizeMB:  c.LogMaxSizeMB,
		MaxBackups: c.LogMaxBackups,
		MaxAgeDays: c.LogMaxAgeDays,
	}
}

func (c Config) Geometry() render.Geometry {
	g := render.DefaultGeometry()
	g.MarginMM = c.PDFMarginMM
	return g
}

func (c Config) OtelConfig() observability.OtelConfig {
	return observability.OtelConfig{
		Enabled:     c.Otel.Enabled,
		ServiceName: c.Otel.ServiceName,
		Environment: c.Otel.Environment,
		Version:     c.Otel.Version,
		Endpoint:    c.Otel.Endpoint,
		Headers:     c.Otel.Headers,
		Insecure:    c.Otel.Insecure,
		SampleRatio: c.Otel.SampleRatio,
	}
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
