package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.HealthPort == 0 {
		cfg.Server.HealthPort = 8081
	}

	r := &cfg.Recovery
	if r.Retry.MaxAttempts == 0 {
		r.Retry.MaxAttempts = 3
	}
	if r.Retry.BaseDelay == 0 {
		r.Retry.BaseDelay = 1 * time.Second
	}
	if r.Retry.MaxDelay == 0 {
		r.Retry.MaxDelay = 30 * time.Second
	}
	if r.CircuitBreaker.FailureThreshold == 0 {
		r.CircuitBreaker.FailureThreshold = 5
	}
	if r.CircuitBreaker.RecoveryTimeout == 0 {
		r.CircuitBreaker.RecoveryTimeout = 60 * time.Second
	}
	if r.CircuitBreaker.HalfOpenMaxCalls == 0 {
		r.CircuitBreaker.HalfOpenMaxCalls = 3
	}
	if r.Fallback.Timeout == 0 {
		r.Fallback.Timeout = 5 * time.Second
	}
	if r.Fallback.CacheValidity == 0 {
		r.Fallback.CacheValidity = time.Hour
	}
	if r.Bulkhead.MaxConcurrent == 0 {
		r.Bulkhead.MaxConcurrent = 10
	}
	if r.Bulkhead.QueueSize == 0 {
		r.Bulkhead.QueueSize = 50
	}
	if r.Bulkhead.QueueTimeout == 0 {
		r.Bulkhead.QueueTimeout = 5 * time.Second
	}
	if r.History.Limit == 0 {
		r.History.Limit = 1000
	}
	if r.History.MaxAge == 0 {
		r.History.MaxAge = 24 * time.Hour
	}
	if r.History.PruneInterval == 0 {
		r.History.PruneInterval = 5 * time.Minute
	}
	if r.Health.DegradedErrorsPerHour == 0 {
		r.Health.DegradedErrorsPerHour = 50
	}
	if r.Health.UnhealthyErrorsPerHour == 0 {
		r.Health.UnhealthyErrorsPerHour = 100
	}
}
