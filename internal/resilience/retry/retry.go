// Package retry re-invokes failing operations with bounded, optionally
// exponential, jittered backoff.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/iwangdonghui/tsconv-sub005/internal/core/domain"
)

// maxJitter bounds the random addition to a computed delay.
const maxJitter = time.Second

// Config defines retry behavior.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Exponential bool
	Jitter      bool
	// Retryable lists the failure categories worth retrying. The executor
	// itself does not filter by category; callers are expected to check
	// IsRetryable before invoking Do.
	Retryable []domain.Category
}

// DefaultConfig provides sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		MaxDelay:    30 * time.Second,
		Exponential: true,
		Jitter:      true,
		Retryable: []domain.Category{
			domain.CategoryTimeout,
			domain.CategoryNetwork,
			domain.CategoryExternalService,
		},
	}
}

// OnRetry is invoked after a failed attempt, before the backoff sleep.
type OnRetry func(attempt int, err error)

// Executor runs operations with retry. Attempt bookkeeping is keyed by
// requestID:endpoint and is not an exact audit log: an entry reflects the
// attempts of the most recent retry loop for that key, and is removed on
// success.
type Executor struct {
	cfg Config
	log *slog.Logger

	mu       sync.Mutex
	attempts map[string]int
}

// New creates a retry executor.
func New(cfg Config, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{
		cfg:      cfg,
		log:      log,
		attempts: make(map[string]int),
	}
}

// IsRetryable reports whether a failure category is configured as
// worth retrying.
func (e *Executor) IsRetryable(category domain.Category) bool {
	for _, c := range e.cfg.Retryable {
		if c == category {
			return true
		}
	}
	return false
}

// Do invokes op up to MaxAttempts times. On success it clears the
// bookkeeping for this request key and returns the result. Once the last
// attempt fails, the operation's own final error is returned unwrapped.
func (e *Executor) Do(
	ctx context.Context,
	op domain.Operation,
	rctx domain.RequestContext,
	onRetry OnRetry,
) (any, error) {
	key := statsKey(rctx)
	var lastErr error

	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			e.mu.Lock()
			delete(e.attempts, key)
			e.mu.Unlock()
			return result, nil
		}

		lastErr = err
		e.mu.Lock()
		e.attempts[key] = attempt
		e.mu.Unlock()

		if attempt == e.cfg.MaxAttempts {
			break
		}

		if onRetry != nil {
			onRetry(attempt, err)
		}

		delay := e.Delay(attempt)
		e.log.Debug("retrying operation",
			"endpoint", rctx.Endpoint,
			"attempt", attempt,
			"delay", delay,
			"error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, lastErr
}

// Delay computes the backoff before the attempt following a failed
// attempt (1-indexed): min(base * 2^(attempt-1), max) when exponential,
// flat base otherwise, plus up to 1s of random jitter when enabled.
func (e *Executor) Delay(attempt int) time.Duration {
	delay := e.cfg.BaseDelay
	if e.cfg.Exponential {
		scaled := float64(e.cfg.BaseDelay) * math.Pow(2, float64(attempt-1))
		if scaled > float64(e.cfg.MaxDelay) {
			scaled = float64(e.cfg.MaxDelay)
		}
		delay = time.Duration(scaled)
	}
	if e.cfg.Jitter {
		delay += time.Duration(rand.Int63n(int64(maxJitter)))
	}
	return delay
}

// Stats summarizes retry bookkeeping.
type Stats struct {
	TotalRetries    int     `json:"total_retries"`
	ActiveRetries   int     `json:"active_retries"`
	AverageAttempts float64 `json:"average_attempts"`
}

// Stats returns a snapshot of current retry bookkeeping.
func (e *Executor) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Stats{ActiveRetries: len(e.attempts)}
	for _, n := range e.attempts {
		s.TotalRetries += n
	}
	if len(e.attempts) > 0 {
		s.AverageAttempts = float64(s.TotalRetries) / float64(len(e.attempts))
	}
	return s
}

// Reset clears all retry bookkeeping.
func (e *Executor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attempts = make(map[string]int)
}

func statsKey(rctx domain.RequestContext) string {
	return fmt.Sprintf("%s:%s", rctx.RequestID, rctx.Endpoint)
}
