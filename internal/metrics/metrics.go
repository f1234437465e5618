package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FailuresClassified tracks classified failures per category and severity
	FailuresClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tsconv_failures_classified_total",
			Help: "Total number of failures classified",
		},
		[]string{"category", "severity"},
	)

	// RecoveryAttempts tracks recovery executions per strategy and outcome
	RecoveryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tsconv_recovery_attempts_total",
			Help: "Total number of recovery attempts",
		},
		[]string{"strategy", "outcome"},
	)

	// RecoveryDuration tracks recovery execution latency per strategy
	RecoveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tsconv_recovery_duration_seconds",
			Help:    "Recovery execution latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	// CircuitState tracks circuit breaker state per key (0=closed, 1=half-open, 2=open)
	CircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tsconv_circuit_state",
			Help: "Circuit breaker state per dependency key",
		},
		[]string{"key"},
	)

	// BulkheadActive tracks operations currently running inside the bulkhead
	BulkheadActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tsconv_bulkhead_active_requests",
			Help: "Operations currently executing inside the bulkhead",
		},
	)

	// BulkheadQueued tracks operations waiting for a bulkhead slot
	BulkheadQueued = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tsconv_bulkhead_queued_requests",
			Help: "Operations queued for a bulkhead slot",
		},
	)

	// ConversionRequests tracks API requests per endpoint and status
	ConversionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tsconv_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"endpoint", "status"},
	)

	// CacheLookups tracks domain cache lookups per result
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tsconv_cache_lookups_total",
			Help: "Total number of domain cache lookups",
		},
		[]string{"result"},
	)
)
