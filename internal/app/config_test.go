package app

import (
	"testing"
	"time"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := parseConfig()
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	if cfg.Port != 8080 || cfg.Addr() != ":8080" {
		t.Fatalf("port: got=%d addr=%q", cfg.Port, cfg.Addr())
	}
	if cfg.DBDriver != "sqlite" {
		t.Fatalf("db driver: got=%q", cfg.DBDriver)
	}
	if cfg.SessionIdleTTL != 2*time.Hour {
		t.Fatalf("idle ttl: got=%s", cfg.SessionIdleTTL)
	}
	if cfg.VideoPollMaxWait != 0 {
		t.Fatalf("video max wait: want unbounded, got=%s", cfg.VideoPollMaxWait)
	}
	g := cfg.Geometry()
	if g.PageSize != "A4" || g.Unit != "mm" || g.MarginMM != 15 {
		t.Fatalf("geometry: %+v", g)
	}
}

func TestParseConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", " Postgres ")
	t.Setenv("SESSION_IDLE_TTL", "30m")
	t.Setenv("VIDEO_POLL_INTERVAL", "2s")
	t.Setenv("PDF_MARGIN_MM", "20")
	t.Setenv("CORS_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SAMPLE_RATIO", "0.25")

	cfg, err := parseConfig()
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	if cfg.Addr() != ":9090" {
		t.Fatalf("addr: got=%q", cfg.Addr())
	}
	if cfg.DBDriver != "postgres" {
		t.Fatalf("db driver: got=%q", cfg.DBDriver)
	}
	if cfg.SessionIdleTTL != 30*time.Minute || cfg.VideoPollInterval != 2*time.Second {
		t.Fatalf("durations: ttl=%s poll=%s", cfg.SessionIdleTTL, cfg.VideoPollInterval)
	}
	if cfg.Geometry().MarginMM != 20 {
		t.Fatalf("margin: got=%v", cfg.Geometry().MarginMM)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "http://a.test" || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("cors origins: %#v", cfg.CORSOrigins)
	}
	otel := cfg.OtelConfig()
	if !otel.Enabled || otel.SampleRatio != 0.25 || otel.ServiceName != "playbook-api" {
		t.Fatalf("otel config: %+v", otel)
	}
}

func TestParseConfigRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"bad port":     {"PORT", "0"},
		"bad margin":   {"PDF_MARGIN_MM", "-1"},
		"bad max wait": {"VIDEO_POLL_MAX_WAIT", "-5s"},
		"unparsable":   {"WORKER_CONCURRENCY", "many"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			if _, err := parseConfig(); err == nil {
				t.Fatalf("expected error for %s=%s", kv[0], kv[1])
			}
		})
	}
}
