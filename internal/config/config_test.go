package config_test

import (
	"testing"
	"time"

	"github.com/replyforge/email-responder/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected port 8080, got %s", cfg.HTTPPort)
	}
	if cfg.WorkerCount != 10 {
		t.Fatalf("expected 10 workers, got %d", cfg.WorkerCount)
	}
	if cfg.MaxRetries != 3 {
		t.Fatalf("expected 3 max retries, got %d", cfg.MaxRetries)
	}
	if cfg.BaseBackoff != 200*time.Millisecond {
		t.Fatalf("expected 200ms base backoff, got %v", cfg.BaseBackoff)
	}
	if cfg.TargetLead != 500*time.Millisecond {
		t.Fatalf("expected 500ms target lead, got %v", cfg.TargetLead)
	}
	if cfg.InterReleaseGap != 100*time.Microsecond {
		t.Fatalf("expected 100µs inter-release gap, got %v", cfg.InterReleaseGap)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Fatalf("expected 10s request timeout, got %v", cfg.RequestTimeout)
	}
	if !cfg.TestMode {
		t.Fatal("expected test mode on by default")
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("expected empty database URL by default, got %s", cfg.DatabaseURL)
	}
	if cfg.GenDelayMin != 400*time.Millisecond || cfg.GenDelayMax != 600*time.Millisecond {
		t.Fatalf("unexpected generation delay bounds: %v..%v", cfg.GenDelayMin, cfg.GenDelayMax)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("API_KEY", "override123")
	t.Setenv("WORKER_COUNT", "3")
	t.Setenv("BASE_BACKOFF", "50ms")
	t.Setenv("TEST_MODE", "false")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIKey != "override123" {
		t.Fatalf("expected overridden api key, got %s", cfg.APIKey)
	}
	if cfg.WorkerCount != 3 {
		t.Fatalf("expected 3 workers, got %d", cfg.WorkerCount)
	}
	if cfg.BaseBackoff != 50*time.Millisecond {
		t.Fatalf("expected 50ms base backoff, got %v", cfg.BaseBackoff)
	}
	if cfg.TestMode {
		t.Fatal("expected test mode off")
	}
	// Unrelated defaults remain intact.
	if cfg.MaxRetries != 3 {
		t.Fatalf("expected default max retries, got %d", cfg.MaxRetries)
	}
}

func TestLoad_MalformedEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("WORKER_COUNT", "not-a-number")
	t.Setenv("BASE_BACKOFF", "soon")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.WorkerCount != 10 {
		t.Fatalf("expected default worker count, got %d", cfg.WorkerCount)
	}
	if cfg.BaseBackoff != 200*time.Millisecond {
		t.Fatalf("expected default base backoff, got %v", cfg.BaseBackoff)
	}
}
