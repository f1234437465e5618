package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  health_port: 9091
logging:
  level: debug
  format: json
recovery:
  retry:
    max_attempts: 5
    base_delay: 500ms
    max_delay: 10s
    exponential: false
    jitter: false
  circuit_breaker:
    failure_threshold: 7
    recovery_timeout: 30s
    half_open_max_calls: 2
  fallback:
    enabled: false
    timeout: 2s
    cache_validity: 30m
  bulkhead:
    max_concurrent: 20
    queue_size: 100
    queue_timeout: 3s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 || cfg.Server.HealthPort != 9091 {
		t.Errorf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging config %+v", cfg.Logging)
	}

	r := cfg.Recovery
	if r.Retry.MaxAttempts != 5 || r.Retry.BaseDelay != 500*time.Millisecond {
		t.Errorf("unexpected retry config %+v", r.Retry)
	}
	if r.Retry.Exponential == nil || *r.Retry.Exponential {
		t.Error("expected exponential explicitly false")
	}
	if r.CircuitBreaker.FailureThreshold != 7 {
		t.Errorf("unexpected breaker config %+v", r.CircuitBreaker)
	}
	if r.Fallback.Enabled == nil || *r.Fallback.Enabled {
		t.Error("expected fallback explicitly disabled")
	}
	if r.Fallback.CacheValidity != 30*time.Minute {
		t.Errorf("unexpected cache validity %v", r.Fallback.CacheValidity)
	}
	if r.Bulkhead.MaxConcurrent != 20 || r.Bulkhead.QueueSize != 100 {
		t.Errorf("unexpected bulkhead config %+v", r.Bulkhead)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 8080\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := cfg.Recovery
	if r.Retry.MaxAttempts != 3 || r.Retry.BaseDelay != time.Second || r.Retry.MaxDelay != 30*time.Second {
		t.Errorf("unexpected retry defaults %+v", r.Retry)
	}
	if r.CircuitBreaker.FailureThreshold != 5 || r.CircuitBreaker.RecoveryTimeout != 60*time.Second || r.CircuitBreaker.HalfOpenMaxCalls != 3 {
		t.Errorf("unexpected breaker defaults %+v", r.CircuitBreaker)
	}
	if r.Fallback.Timeout != 5*time.Second || r.Fallback.CacheValidity != time.Hour {
		t.Errorf("unexpected fallback defaults %+v", r.Fallback)
	}
	if r.Bulkhead.MaxConcurrent != 10 || r.Bulkhead.QueueSize != 50 || r.Bulkhead.QueueTimeout != 5*time.Second {
		t.Errorf("unexpected bulkhead defaults %+v", r.Bulkhead)
	}
	if r.History.Limit != 1000 || r.History.MaxAge != 24*time.Hour || r.History.PruneInterval != 5*time.Minute {
		t.Errorf("unexpected history defaults %+v", r.History)
	}
	if r.Health.DegradedErrorsPerHour != 50 || r.Health.UnhealthyErrorsPerHour != 100 {
		t.Errorf("unexpected health defaults %+v", r.Health)
	}
	if cfg.Server.HealthPort != 8081 {
		t.Errorf("expected default health port, got %d", cfg.Server.HealthPort)
	}
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load(writeConfig(t, "redis:\n  url: ${TEST_REDIS_URL}\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Errorf("expected env expansion, got %q", cfg.Redis.URL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "server: [not a map")); err == nil {
		t.Error("expected error for invalid YAML")
	}
}
