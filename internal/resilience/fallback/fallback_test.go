package fallback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iwangdonghui/tsconv-sub005/internal/core/domain"
)

func testConfig() Config {
	return Config{
		Enabled:       true,
		Timeout:       200 * time.Millisecond,
		CacheValidity: time.Hour,
	}
}

func failOp(ctx context.Context) (any, error) {
	return nil, errors.New("primary failed")
}

// =============================================================================
// Tier ordering
// =============================================================================

func TestExecute_PrimarySuccess(t *testing.T) {
	e := New(testConfig(), nil)

	result, used, err := e.Execute(context.Background(), func(ctx context.Context) (any, error) {
		return "primary", nil
	}, "key", nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "primary" {
		t.Errorf("expected primary, got %v", result)
	}
	if used {
		t.Error("primary success must not report fallback use")
	}
}

func TestExecute_CustomFallbackFirst(t *testing.T) {
	cfg := testConfig()
	cfg.Fn = func(ctx context.Context) (any, error) { return "configured", nil }
	cfg.Static = "static"
	e := New(cfg, nil)

	result, used, err := e.Execute(context.Background(), failOp, "key",
		func(ctx context.Context) (any, error) { return "custom", nil })

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "custom" {
		t.Errorf("expected custom fallback to win, got %v", result)
	}
	if !used {
		t.Error("expected fallback use to be reported")
	}
}

func TestExecute_ConfiguredFnAfterCustomFails(t *testing.T) {
	cfg := testConfig()
	cfg.Fn = func(ctx context.Context) (any, error) { return "configured", nil }
	e := New(cfg, nil)

	result, used, err := e.Execute(context.Background(), failOp, "key",
		func(ctx context.Context) (any, error) { return nil, errors.New("custom failed") })

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "configured" {
		t.Errorf("expected configured fallback, got %v", result)
	}
	if !used {
		t.Error("expected fallback use to be reported")
	}
}

func TestExecute_StaticLastResort(t *testing.T) {
	cfg := testConfig()
	cfg.Static = "static"
	e := New(cfg, nil)

	result, used, err := e.Execute(context.Background(), failOp, "key", nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "static" {
		t.Errorf("expected static fallback, got %v", result)
	}
	if !used {
		t.Error("expected fallback use to be reported")
	}
}

func TestExecute_AllTiersExhausted(t *testing.T) {
	e := New(testConfig(), nil)

	primary := errors.New("primary failed")
	_, used, err := e.Execute(context.Background(), func(ctx context.Context) (any, error) {
		return nil, primary
	}, "key", nil)

	if err != primary {
		t.Errorf("expected the original failure, got %v", err)
	}
	if used {
		t.Error("exhausted chain must not report fallback use")
	}
}

// =============================================================================
// Last-known-good cache
// =============================================================================

func TestExecute_ServesCachedValue(t *testing.T) {
	e := New(testConfig(), nil)
	e.store("key", "cached")

	result, used, err := e.Execute(context.Background(), failOp, "key", nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "cached" {
		t.Errorf("expected cached value, got %v", result)
	}
	if !used {
		t.Error("expected fallback use to be reported")
	}
}

func TestCached_ValidityBoundary(t *testing.T) {
	e := New(testConfig(), nil)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return base }
	e.store("key", "cached")

	// One millisecond inside the validity window: served.
	e.now = func() time.Time { return base.Add(time.Hour - time.Millisecond) }
	if _, ok := e.cached("key"); !ok {
		t.Error("entry just inside validity should be served")
	}

	// Exactly at the boundary: still served (age is not greater).
	e.now = func() time.Time { return base.Add(time.Hour) }
	if _, ok := e.cached("key"); !ok {
		t.Error("entry exactly at validity should be served")
	}

	// One millisecond past: rejected.
	e.now = func() time.Time { return base.Add(time.Hour + time.Millisecond) }
	if _, ok := e.cached("key"); ok {
		t.Error("entry past validity must not be served")
	}
}

func TestExecute_ExpiredCacheFallsThrough(t *testing.T) {
	cfg := testConfig()
	cfg.Static = "static"
	e := New(cfg, nil)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return base }
	e.store("key", "stale")
	e.now = func() time.Time { return base.Add(2 * time.Hour) }

	result, _, err := e.Execute(context.Background(), failOp, "key", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "static" {
		t.Errorf("expected static after stale cache, got %v", result)
	}
}

// =============================================================================
// Timeout and disabled paths
// =============================================================================

func TestExecute_TimeoutTriggersChain(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 20 * time.Millisecond
	cfg.Static = "static"
	e := New(cfg, nil)

	result, used, err := e.Execute(context.Background(), func(ctx context.Context) (any, error) {
		time.Sleep(500 * time.Millisecond)
		return "late", nil
	}, "key", nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "static" {
		t.Errorf("expected static after timeout, got %v", result)
	}
	if !used {
		t.Error("expected fallback use to be reported")
	}
}

func TestExecute_TimeoutErrorWhenNoTiers(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 20 * time.Millisecond
	e := New(cfg, nil)

	_, _, err := e.Execute(context.Background(), func(ctx context.Context) (any, error) {
		time.Sleep(500 * time.Millisecond)
		return "late", nil
	}, "key", nil)

	var tagged *domain.Error
	if !errors.As(err, &tagged) || tagged.Category != domain.CategoryTimeout {
		t.Errorf("expected a timeout-tagged error, got %v", err)
	}
}

func TestExecute_DisabledPassesThrough(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	cfg.Static = "static"
	e := New(cfg, nil)

	primary := errors.New("primary failed")
	_, used, err := e.Execute(context.Background(), func(ctx context.Context) (any, error) {
		return nil, primary
	}, "key", nil)

	if err != primary {
		t.Errorf("disabled executor must surface the primary error, got %v", err)
	}
	if used {
		t.Error("disabled executor must not report fallback use")
	}
}

// =============================================================================
// Stats and reset
// =============================================================================

func TestStatsAndReset(t *testing.T) {
	e := New(testConfig(), nil)
	e.store("a", 1)
	e.store("b", 2)

	if s := e.Stats(); s.CacheSize != 2 || !s.Enabled {
		t.Errorf("unexpected stats %+v", s)
	}

	e.Reset()
	if s := e.Stats(); s.CacheSize != 0 {
		t.Errorf("expected empty cache after reset, got %d", s.CacheSize)
	}
}
