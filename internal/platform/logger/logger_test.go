package logger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeRedactsSecretsAndHashesAddresses(t *testing.T) {
	kv := sanitizeKVs([]interface{}{
		"api_key", "sk-live",
		"client_ip", "10.0.0.1",
		"stage", "diagnosis",
	})
	if len(kv) != 6 {
		t.Fatalf("unexpected kv length: %d", len(kv))
	}
	if kv[1] != "[REDACTED]" {
		t.Fatalf("api_key not redacted: %v", kv[1])
	}
	if s, _ := kv[3].(string); len(s) != len("hash:")+12 {
		t.Fatalf("client_ip not hashed: %v", kv[3])
	}
	if kv[5] != "diagnosis" {
		t.Fatalf("plain value changed: %v", kv[5])
	}
}

func TestNewWithOptionsWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playbook.log")
	log, err := NewWithOptions(Options{Mode: "production", File: path})
	if err != nil {
		t.Fatalf("NewWithOptions: %v", err)
	}
	log.Info("pipeline started", "stage", "diagnosis")
	log.Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(raw) == 0 {
		t.Fatalf("expected log file to have content")
	}
}
