// Package recovery coordinates the resilience primitives: it takes a
// classified failure and its assigned strategy, dispatches to the
// matching primitive, records outcomes, and exposes aggregated
// statistics and a health verdict.
package recovery

import (
	"context"
	"log/slog"
	"time"

	"github.com/iwangdonghui/tsconv-sub005/internal/core/domain"
	"github.com/iwangdonghui/tsconv-sub005/internal/infra/storage"
	"github.com/iwangdonghui/tsconv-sub005/internal/metrics"
	"github.com/iwangdonghui/tsconv-sub005/internal/resilience/breaker"
	"github.com/iwangdonghui/tsconv-sub005/internal/resilience/bulkhead"
	"github.com/iwangdonghui/tsconv-sub005/internal/resilience/classify"
	"github.com/iwangdonghui/tsconv-sub005/internal/resilience/fallback"
	"github.com/iwangdonghui/tsconv-sub005/internal/resilience/retry"
)

// Health is the coordinator's tri-state verdict.
type Health string

const (
	HealthHealthy   Health = "healthy"
	HealthDegraded  Health = "degraded"
	HealthUnhealthy Health = "unhealthy"
)

// Config assembles the configuration of every primitive plus the
// coordinator's own thresholds.
type Config struct {
	Classifier classify.Config
	Retry      retry.Config
	Breaker    breaker.Config
	Fallback   fallback.Config
	Bulkhead   bulkhead.Config
	History    HistoryConfig

	// Error-volume thresholds for the health verdict, counted over the
	// trailing hour.
	DegradedErrorsPerHour  int
	UnhealthyErrorsPerHour int
}

// DefaultConfig provides sensible defaults.
func DefaultConfig() Config {
	return Config{
		Classifier:             classify.DefaultConfig(),
		Retry:                  retry.DefaultConfig(),
		Breaker:                breaker.DefaultConfig(),
		Fallback:               fallback.DefaultConfig(),
		Bulkhead:               bulkhead.DefaultConfig(),
		History:                DefaultHistoryConfig(),
		DegradedErrorsPerHour:  50,
		UnhealthyErrorsPerHour: 100,
	}
}

// Request carries the per-call context handed to the coordinator.
type Request struct {
	RequestID      string
	Endpoint       string
	Method         string
	Strategy       domain.Strategy
	FallbackKey    string
	CustomFallback domain.Operation
}

// Coordinator is the recovery façade. Construct one per process and
// inject it; it holds no global state.
type Coordinator struct {
	cfg        Config
	classifier *classify.Classifier
	retry      *retry.Executor
	breakers   *breaker.Registry
	fallback   *fallback.Executor
	bulkhead   *bulkhead.Executor
	history    *History
	log        *slog.Logger

	now func() time.Time
}

// New creates a coordinator with freshly constructed primitives. archive
// may be nil.
func New(cfg Config, archive storage.FailureArchiveRepository, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	// The retry budget recorded on classified failures must cover every
	// attempt the retry executor can make, or RetryCount could exceed
	// MaxRetries under a raised attempt cap.
	cfg.Classifier.MaxRetries = cfg.Retry.MaxAttempts
	return &Coordinator{
		cfg:        cfg,
		classifier: classify.New(cfg.Classifier),
		retry:      retry.New(cfg.Retry, log),
		breakers:   breaker.NewRegistry(cfg.Breaker),
		fallback:   fallback.New(cfg.Fallback, log),
		bulkhead:   bulkhead.New(cfg.Bulkhead),
		history:    NewHistory(cfg.History, archive, log),
		log:        log,
		now:        time.Now,
	}
}

// ExecuteWithRecovery runs op under the protection named by
// req.Strategy. An unknown or empty strategy gets the most defensive
// composition: retry wrapping the circuit breaker wrapping fallback.
func (c *Coordinator) ExecuteWithRecovery(
	ctx context.Context,
	op domain.Operation,
	req Request,
) (any, error) {
	start := c.now()
	result, err := c.dispatch(ctx, req.Strategy, nil, op, req)

	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	metrics.RecoveryAttempts.WithLabelValues(string(req.Strategy), outcome).Inc()
	metrics.RecoveryDuration.WithLabelValues(string(req.Strategy)).
		Observe(c.now().Sub(start).Seconds())

	return result, err
}

// Handle classifies a failure that already happened, runs the assigned
// recovery strategy against the original operation, and records the
// outcome on the returned FailureRecord. The record is appended to the
// rolling history whether or not recovery succeeded.
func (c *Coordinator) Handle(
	ctx context.Context,
	cause error,
	op domain.Operation,
	req Request,
) (any, *domain.FailureRecord, error) {
	start := c.now()

	rec := c.classifier.Classify(cause, domain.RequestContext{
		RequestID: req.RequestID,
		Endpoint:  req.Endpoint,
		Method:    req.Method,
	})
	metrics.FailuresClassified.
		WithLabelValues(string(rec.Category), string(rec.Severity)).Inc()

	strategy := rec.Recovery.Strategy
	if req.Strategy != "" {
		strategy = req.Strategy
		rec.Recovery.Strategy = req.Strategy
	}

	rec.Recovery.Attempted = true

	var result any
	var err error

	switch strategy {
	case domain.StrategyManualIntervention:
		rec.Monitoring.AlertTriggered = true
		c.log.Error("failure requires manual intervention",
			"id", rec.ID,
			"category", rec.Category,
			"endpoint", req.Endpoint,
			"error", cause)
		err = cause
	case domain.StrategyFailFast:
		err = cause
	case domain.StrategyRetry:
		// Retryability is a caller decision; the retry executor itself
		// does not filter by category.
		if !c.retry.IsRetryable(rec.Category) {
			err = cause
			break
		}
		result, err = c.dispatch(ctx, strategy, rec, op, req)
	default:
		result, err = c.dispatch(ctx, strategy, rec, op, req)
	}

	rec.Recovery.Successful = err == nil
	rec.Monitoring.ProcessingTime = c.now().Sub(start)
	c.history.Add(rec)

	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	metrics.RecoveryAttempts.WithLabelValues(string(strategy), outcome).Inc()
	metrics.RecoveryDuration.WithLabelValues(string(strategy)).
		Observe(rec.Monitoring.ProcessingTime.Seconds())

	return result, rec, err
}

// dispatch routes to the primitive matching the strategy. rec may be nil
// when the caller did not classify the failure first.
func (c *Coordinator) dispatch(
	ctx context.Context,
	strategy domain.Strategy,
	rec *domain.FailureRecord,
	op domain.Operation,
	req Request,
) (any, error) {
	switch strategy {
	case domain.StrategyRetry:
		return c.retry.Do(ctx, op, c.requestContext(req), c.onRetry(rec))

	case domain.StrategyCircuitBreaker:
		return c.executeBreaker(ctx, op, req, rec)

	case domain.StrategyFallback:
		return c.executeFallback(ctx, op, req, rec)

	case domain.StrategyGracefulDegradation:
		result, err := c.bulkhead.Execute(ctx, op)
		c.observeBulkhead()
		return result, err

	case domain.StrategyFailFast:
		return op(ctx)

	default:
		return c.executeComposed(ctx, op, req, rec)
	}
}

// executeComposed nests the most defensive combination:
// retry(circuitBreaker(fallback(operation))).
func (c *Coordinator) executeComposed(
	ctx context.Context,
	op domain.Operation,
	req Request,
	rec *domain.FailureRecord,
) (any, error) {
	guarded := func(ctx context.Context) (any, error) {
		return c.executeFallback(ctx, op, req, rec)
	}
	withBreaker := func(ctx context.Context) (any, error) {
		return c.executeBreaker(ctx, guarded, req, rec)
	}
	return c.retry.Do(ctx, withBreaker, c.requestContext(req), c.onRetry(rec))
}

func (c *Coordinator) executeBreaker(
	ctx context.Context,
	op domain.Operation,
	req Request,
	rec *domain.FailureRecord,
) (any, error) {
	key := c.breakerKey(req, rec)
	b := c.breakers.Get(key)
	result, err := b.Execute(ctx, op)
	observeCircuit(key, b.Status().State)
	return result, err
}

func (c *Coordinator) executeFallback(
	ctx context.Context,
	op domain.Operation,
	req Request,
	rec *domain.FailureRecord,
) (any, error) {
	key := req.FallbackKey
	if key == "" {
		key = req.Endpoint
	}
	result, usedFallback, err := c.fallback.Execute(ctx, op, key, req.CustomFallback)
	if rec != nil && usedFallback {
		rec.Recovery.FallbackUsed = true
	}
	return result, err
}

// onRetry keeps the failure record's retry bookkeeping current while the
// retry executor works through its attempts.
func (c *Coordinator) onRetry(rec *domain.FailureRecord) retry.OnRetry {
	if rec == nil {
		return nil
	}
	return func(attempt int, err error) {
		rec.Recovery.RetryCount = attempt
		rec.Recovery.NextRetryAt = c.now().Add(c.retry.Delay(attempt))
	}
}

func (c *Coordinator) requestContext(req Request) domain.RequestContext {
	return domain.RequestContext{
		RequestID: req.RequestID,
		Endpoint:  req.Endpoint,
		Method:    req.Method,
	}
}

// breakerKey keys circuit state by endpoint and failure category so one
// failing dependency does not open circuits for unrelated ones.
func (c *Coordinator) breakerKey(req Request, rec *domain.FailureRecord) string {
	category := domain.CategoryUnknown
	if rec != nil {
		category = rec.Category
	}
	return req.Endpoint + ":" + string(category)
}

func (c *Coordinator) observeBulkhead() {
	st := c.bulkhead.Status()
	metrics.BulkheadActive.Set(float64(st.ActiveRequests))
	metrics.BulkheadQueued.Set(float64(st.QueuedRequests))
}

func observeCircuit(key string, state breaker.State) {
	var v float64
	switch state {
	case breaker.StateHalfOpen:
		v = 1
	case breaker.StateOpen:
		v = 2
	}
	metrics.CircuitState.WithLabelValues(key).Set(v)
}
