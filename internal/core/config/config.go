package config

import (
	"time"

	cacheclient "github.com/iwangdonghui/tsconv-sub005/internal/infra/cache"
	"github.com/iwangdonghui/tsconv-sub005/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Logging  LoggingConfig      `yaml:"logging"`
	Redis    cacheclient.Config `yaml:"redis"`
	Database postgres.Config    `yaml:"database"`
	Recovery RecoveryConfig     `yaml:"recovery"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port       int `yaml:"port"`
	HealthPort int `yaml:"health_port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// RecoveryConfig holds the resilience layer settings.
type RecoveryConfig struct {
	Retry          RetryConfig          `yaml:"retry"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	Fallback       FallbackConfig       `yaml:"fallback"`
	Bulkhead       BulkheadConfig       `yaml:"bulkhead"`
	History        HistoryConfig        `yaml:"history"`
	Health         HealthConfig         `yaml:"health"`
}

// RetryConfig holds retry executor settings. Exponential and Jitter are
// pointers so an explicit false can be told apart from unset.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
	Exponential *bool         `yaml:"exponential"`
	Jitter      *bool         `yaml:"jitter"`
}

// CircuitBreakerConfig holds circuit breaker settings.
type CircuitBreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	RecoveryTimeout  time.Duration `yaml:"recovery_timeout"`
	HalfOpenMaxCalls int           `yaml:"half_open_max_calls"`
}

// FallbackConfig holds fallback executor settings.
type FallbackConfig struct {
	Enabled       *bool         `yaml:"enabled"`
	Timeout       time.Duration `yaml:"timeout"`
	CacheValidity time.Duration `yaml:"cache_validity"`
}

// BulkheadConfig holds bulkhead executor settings.
type BulkheadConfig struct {
	MaxConcurrent int           `yaml:"max_concurrent"`
	QueueSize     int           `yaml:"queue_size"`
	QueueTimeout  time.Duration `yaml:"queue_timeout"`
}

// HistoryConfig bounds the rolling failure history.
type HistoryConfig struct {
	Limit         int           `yaml:"limit"`
	MaxAge        time.Duration `yaml:"max_age"`
	PruneInterval time.Duration `yaml:"prune_interval"`
}

// HealthConfig holds the health verdict thresholds.
type HealthConfig struct {
	DegradedErrorsPerHour  int `yaml:"degraded_errors_per_hour"`
	UnhealthyErrorsPerHour int `yaml:"unhealthy_errors_per_hour"`
}
