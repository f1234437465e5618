// Package breaker implements a per-key circuit breaker that stops calling
// a chronically failing dependency and periodically probes recovery.
package breaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iwangdonghui/tsconv-sub005/internal/core/domain"
)

// State is the circuit breaker state.
type State string

const (
	StateClosed   State = "CLOSED"
	StateOpen     State = "OPEN"
	StateHalfOpen State = "HALF_OPEN"
)

// Rejections are raised without invoking the wrapped operation and are
// distinguishable from the operation's own failures.
var (
	ErrCircuitOpen       = errors.New("circuit breaker is open")
	ErrTooManyTrialCalls = errors.New("circuit breaker half-open trial limit reached")
)

// Config defines circuit breaker thresholds and timing.
type Config struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
	HalfOpenMaxCalls int
}

// DefaultConfig provides sensible defaults.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		RecoveryTimeout:  60 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

// Metrics holds running call totals for one breaker.
type Metrics struct {
	TotalCalls      int64 `json:"total_calls"`
	SuccessfulCalls int64 `json:"successful_calls"`
	FailedCalls     int64 `json:"failed_calls"`
	RejectedCalls   int64 `json:"rejected_calls"`
}

// Status is a read-only snapshot of one breaker.
type Status struct {
	State         State     `json:"state"`
	FailureCount  int       `json:"failure_count"`
	NextAttemptAt time.Time `json:"next_attempt_at,omitempty"`
	Metrics       Metrics   `json:"metrics"`
}

// Breaker is the canonical circuit breaker state machine.
//
// The failure counter has no sliding time window: a failure from an hour
// ago counts toward the threshold the same as one from a second ago until
// a qualifying success or an explicit reset intervenes.
type Breaker struct {
	cfg Config

	mu            sync.Mutex
	state         State
	failureCount  int
	lastFailureAt time.Time
	nextAttemptAt time.Time
	halfOpenCalls int
	metrics       Metrics

	now func() time.Time
}

// New creates a circuit breaker in the CLOSED state.
func New(cfg Config) *Breaker {
	return &Breaker{
		cfg:   cfg,
		state: StateClosed,
		now:   time.Now,
	}
}

// Execute runs op through the breaker. While OPEN the operation is never
// invoked and ErrCircuitOpen is returned; while HALF_OPEN at most
// HalfOpenMaxCalls trial calls are admitted, further calls fail with
// ErrTooManyTrialCalls.
func (b *Breaker) Execute(ctx context.Context, op domain.Operation) (any, error) {
	b.mu.Lock()
	b.evaluateLocked()

	if b.state == StateOpen {
		b.metrics.RejectedCalls++
		b.mu.Unlock()
		return nil, ErrCircuitOpen
	}
	if b.state == StateHalfOpen {
		if b.halfOpenCalls >= b.cfg.HalfOpenMaxCalls {
			b.metrics.RejectedCalls++
			b.mu.Unlock()
			return nil, ErrTooManyTrialCalls
		}
		b.halfOpenCalls++
	}
	b.metrics.TotalCalls++
	b.mu.Unlock()

	result, err := op(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.metrics.FailedCalls++
		b.recordFailureLocked()
		return nil, err
	}

	b.metrics.SuccessfulCalls++
	switch b.state {
	case StateHalfOpen:
		if b.halfOpenCalls >= b.cfg.HalfOpenMaxCalls {
			b.state = StateClosed
			b.halfOpenCalls = 0
			b.failureCount = 0
		}
	case StateClosed:
		b.failureCount = 0
	}

	return result, nil
}

// evaluateLocked lazily re-evaluates the state before an admission
// decision. Must be called with the mutex held.
func (b *Breaker) evaluateLocked() {
	if b.state == StateOpen && !b.now().Before(b.nextAttemptAt) {
		b.state = StateHalfOpen
		b.halfOpenCalls = 0
	}
}

func (b *Breaker) recordFailureLocked() {
	b.failureCount++
	b.lastFailureAt = b.now()
	if b.failureCount >= b.cfg.FailureThreshold {
		b.state = StateOpen
		b.nextAttemptAt = b.now().Add(b.cfg.RecoveryTimeout)
	}
}

// Status returns a read-only snapshot. NextAttemptAt is only populated
// while the breaker is OPEN.
func (b *Breaker) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := Status{
		State:        b.state,
		FailureCount: b.failureCount,
		Metrics:      b.metrics,
	}
	if b.state == StateOpen {
		s.NextAttemptAt = b.nextAttemptAt
	}
	return s
}

// Reset returns the breaker to the CLOSED state and zeroes its counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.failureCount = 0
	b.halfOpenCalls = 0
	b.nextAttemptAt = time.Time{}
	b.lastFailureAt = time.Time{}
}
