// Package fallback wraps an operation with a timeout and a tiered
// fallback chain: caller-supplied fallback, configured fallback function,
// last-known-good cached value, static default.
package fallback

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/iwangdonghui/tsconv-sub005/internal/core/domain"
)

// Config defines fallback behavior.
type Config struct {
	Enabled bool
	Timeout time.Duration
	// CacheValidity bounds the age of a cached value; entries older than
	// this are never served.
	CacheValidity time.Duration
	// Fn is the globally configured fallback function, tried after the
	// caller-supplied fallback.
	Fn domain.Operation
	// Static is the last-resort fallback value. A nil Static means none
	// is configured.
	Static any
}

// DefaultConfig provides sensible defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		Timeout:       5 * time.Second,
		CacheValidity: time.Hour,
	}
}

type cacheEntry struct {
	value    any
	storedAt time.Time
}

// Executor runs operations with fallback protection and keeps a
// last-known-good value per fallback key.
type Executor struct {
	cfg Config
	log *slog.Logger

	mu    sync.RWMutex
	cache map[string]cacheEntry

	now func() time.Time
}

// New creates a fallback executor.
func New(cfg Config, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{
		cfg:   cfg,
		log:   log,
		cache: make(map[string]cacheEntry),
		now:   time.Now,
	}
}

// Execute races op against the configured timeout. On success the result
// is cached under key without blocking the caller. On failure or timeout
// the fallback chain runs tier by tier; each tier's own failure is logged
// and swallowed so the next tier gets a chance. When every tier is
// exhausted the original failure is returned. The second return value
// reports whether a fallback tier, rather than the primary operation,
// served the result.
//
// The timeout only abandons the wait: it does not cancel work the
// operation has already started.
func (e *Executor) Execute(
	ctx context.Context,
	op domain.Operation,
	key string,
	custom domain.Operation,
) (any, bool, error) {
	if !e.cfg.Enabled {
		v, err := op(ctx)
		return v, false, err
	}

	result, primaryErr := e.run(ctx, op)
	if primaryErr == nil {
		go e.store(key, result)
		return result, false, nil
	}

	if custom != nil {
		v, err := custom(ctx)
		if err == nil {
			return v, true, nil
		}
		e.log.Debug("custom fallback failed", "key", key, "error", err)
	}

	if e.cfg.Fn != nil {
		v, err := e.cfg.Fn(ctx)
		if err == nil {
			return v, true, nil
		}
		e.log.Debug("configured fallback failed", "key", key, "error", err)
	}

	if v, ok := e.cached(key); ok {
		return v, true, nil
	}

	if e.cfg.Static != nil {
		return e.cfg.Static, true, nil
	}

	return nil, false, primaryErr
}

// run races op against the timeout without cancelling the underlying
// work. The operation goroutine writes to a buffered channel so it never
// leaks when the race is lost.
func (e *Executor) run(ctx context.Context, op domain.Operation) (any, error) {
	type outcome struct {
		value any
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		v, err := op(ctx)
		done <- outcome{value: v, err: err}
	}()

	timer := time.NewTimer(e.cfg.Timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		return out.value, out.err
	case <-timer.C:
		return nil, domain.NewError(domain.CategoryTimeout, "operation timed out before fallback")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *Executor) store(key string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache[key] = cacheEntry{value: value, storedAt: e.now()}
}

func (e *Executor) cached(key string) (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	entry, ok := e.cache[key]
	if !ok {
		return nil, false
	}
	if e.now().Sub(entry.storedAt) > e.cfg.CacheValidity {
		return nil, false
	}
	return entry.value, true
}

// Stats summarizes the fallback executor state.
type Stats struct {
	CacheSize int  `json:"cache_size"`
	Enabled   bool `json:"enabled"`
}

// Stats returns a read-only snapshot.
func (e *Executor) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Stats{CacheSize: len(e.cache), Enabled: e.cfg.Enabled}
}

// Reset clears the last-known-good cache.
func (e *Executor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]cacheEntry)
}
