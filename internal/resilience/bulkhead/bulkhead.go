// Package bulkhead bounds concurrent in-flight operations and queues
// overflow with a wait timeout, isolating one workload from starving
// others.
package bulkhead

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iwangdonghui/tsconv-sub005/internal/core/domain"
)

// Rejections raised without running the operation.
var (
	ErrQueueFull    = errors.New("bulkhead queue is full")
	ErrQueueTimeout = errors.New("bulkhead queue wait timed out")
)

// Config defines bulkhead limits.
type Config struct {
	MaxConcurrent int           `json:"max_concurrent"`
	QueueSize     int           `json:"queue_size"`
	QueueTimeout  time.Duration `json:"queue_timeout"`
}

// DefaultConfig provides sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent: 10,
		QueueSize:     50,
		QueueTimeout:  5 * time.Second,
	}
}

// waiter is one queued operation awaiting a concurrency slot. admit is
// buffered so the drainer never blocks handing out a verdict.
type waiter struct {
	admit      chan error
	enqueuedAt time.Time
}

// Executor is the bulkhead. Queued entries are drained strictly FIFO;
// every entry is either started or rejected by its timeout, never
// dropped silently.
type Executor struct {
	cfg Config

	mu     sync.Mutex
	active int
	queue  []*waiter
}

// New creates a bulkhead executor.
func New(cfg Config) *Executor {
	return &Executor{cfg: cfg}
}

// Execute runs op if a slot is free, queues it if the queue has room,
// and rejects it with ErrQueueFull otherwise. A queued call that is not
// admitted within QueueTimeout fails with ErrQueueTimeout.
func (e *Executor) Execute(ctx context.Context, op domain.Operation) (any, error) {
	e.mu.Lock()
	if e.active < e.cfg.MaxConcurrent {
		e.active++
		e.mu.Unlock()
	} else if len(e.queue) >= e.cfg.QueueSize {
		e.mu.Unlock()
		return nil, ErrQueueFull
	} else {
		w := &waiter{admit: make(chan error, 1), enqueuedAt: time.Now()}
		e.queue = append(e.queue, w)
		e.mu.Unlock()

		if err := e.wait(ctx, w); err != nil {
			return nil, err
		}
		// Admitted: the drainer already took the slot for us.
	}

	defer e.release()
	return op(ctx)
}

// wait blocks until the waiter is admitted, rejected, timed out, or the
// context ends. If the timer loses the race against an admission the
// admission wins; the slot is already held and must be used.
func (e *Executor) wait(ctx context.Context, w *waiter) error {
	timer := time.NewTimer(e.cfg.QueueTimeout)
	defer timer.Stop()

	select {
	case err := <-w.admit:
		return err
	case <-timer.C:
		if e.dequeue(w) {
			return ErrQueueTimeout
		}
		return <-w.admit
	case <-ctx.Done():
		if e.dequeue(w) {
			return ctx.Err()
		}
		return <-w.admit
	}
}

// dequeue removes w from the queue. It returns false when w is no longer
// queued, meaning the drainer has already delivered a verdict.
func (e *Executor) dequeue(w *waiter) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, queued := range e.queue {
		if queued == w {
			e.queue = append(e.queue[:i], e.queue[i+1:]...)
			return true
		}
	}
	return false
}

// release returns a slot and drains the queue in FIFO order, rejecting
// entries whose wait already exceeded the timeout.
func (e *Executor) release() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.active--
	now := time.Now()
	for len(e.queue) > 0 && e.active < e.cfg.MaxConcurrent {
		w := e.queue[0]
		e.queue = e.queue[1:]

		if now.Sub(w.enqueuedAt) > e.cfg.QueueTimeout {
			w.admit <- ErrQueueTimeout
			continue
		}

		e.active++
		w.admit <- nil
	}
}

// Status is a read-only snapshot of the bulkhead.
type Status struct {
	ActiveRequests int    `json:"active_requests"`
	QueuedRequests int    `json:"queued_requests"`
	Limits         Config `json:"limits"`
}

// Status returns the current bulkhead occupancy.
func (e *Executor) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		ActiveRequests: e.active,
		QueuedRequests: len(e.queue),
		Limits:         e.cfg,
	}
}
