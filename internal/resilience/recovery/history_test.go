package recovery

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/iwangdonghui/tsconv-sub005/internal/core/domain"
)

// =============================================================================
// Mock Archive
// =============================================================================

type mockArchive struct {
	mu       sync.Mutex
	archived []*domain.FailureRecord
	err      error
}

func (a *mockArchive) Archive(ctx context.Context, records []*domain.FailureRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.archived = append(a.archived, records...)
	return nil
}

func (a *mockArchive) Recent(ctx context.Context, limit int) ([]*domain.FailureRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.archived, nil
}

func (a *mockArchive) Count(ctx context.Context) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.archived), nil
}

func record(id string, at time.Time) *domain.FailureRecord {
	return &domain.FailureRecord{ID: id, CreatedAt: at}
}

// =============================================================================
// Rolling history
// =============================================================================

func TestHistory_AddEvictsPastLimit(t *testing.T) {
	h := NewHistory(HistoryConfig{Limit: 3, MaxAge: time.Hour}, nil, nil)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		h.Add(record(fmt.Sprintf("r%d", i), base.Add(time.Duration(i)*time.Minute)))
	}

	if got := h.Len(); got != 3 {
		t.Fatalf("expected 3 records, got %d", got)
	}

	recent := h.Recent(0)
	if recent[0].ID != "r4" || recent[2].ID != "r2" {
		t.Errorf("expected newest-first [r4 r3 r2], got [%s %s %s]",
			recent[0].ID, recent[1].ID, recent[2].ID)
	}
}

func TestHistory_RecentLimit(t *testing.T) {
	h := NewHistory(HistoryConfig{Limit: 10, MaxAge: time.Hour}, nil, nil)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		h.Add(record(fmt.Sprintf("r%d", i), base))
	}

	if got := len(h.Recent(2)); got != 2 {
		t.Errorf("expected 2 records, got %d", got)
	}
	if got := len(h.Recent(50)); got != 5 {
		t.Errorf("expected all 5 records, got %d", got)
	}
}

func TestHistory_CountSince(t *testing.T) {
	h := NewHistory(HistoryConfig{Limit: 10, MaxAge: 24 * time.Hour}, nil, nil)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	h.Add(record("old", base.Add(-2*time.Hour)))
	h.Add(record("recent1", base.Add(-30*time.Minute)))
	h.Add(record("recent2", base.Add(-10*time.Minute)))

	if got := h.CountSince(base.Add(-time.Hour)); got != 2 {
		t.Errorf("expected 2 records in the last hour, got %d", got)
	}
	if got := h.CountSince(base.Add(-3 * time.Hour)); got != 3 {
		t.Errorf("expected all 3 records, got %d", got)
	}
}

// =============================================================================
// Prune and archive
// =============================================================================

func TestPrune_ArchivesAgedAndEvicted(t *testing.T) {
	archive := &mockArchive{}
	h := NewHistory(HistoryConfig{Limit: 2, MaxAge: time.Hour}, archive, nil)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return base }

	// "evicted" overflows the cap, "aged" is past MaxAge.
	h.Add(record("evicted", base.Add(-3*time.Hour)))
	h.Add(record("aged", base.Add(-2*time.Hour)))
	h.Add(record("fresh", base.Add(-time.Minute)))

	if err := h.Prune(context.Background()); err != nil {
		t.Fatalf("prune failed: %v", err)
	}

	if got := h.Len(); got != 1 {
		t.Errorf("expected 1 record remaining, got %d", got)
	}
	if got := h.Recent(0)[0].ID; got != "fresh" {
		t.Errorf("expected fresh to remain, got %s", got)
	}

	archive.mu.Lock()
	defer archive.mu.Unlock()
	if len(archive.archived) != 2 {
		t.Fatalf("expected 2 archived records, got %d", len(archive.archived))
	}
}

func TestPrune_NilArchiveDiscards(t *testing.T) {
	h := NewHistory(HistoryConfig{Limit: 10, MaxAge: time.Hour}, nil, nil)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return base }
	h.Add(record("aged", base.Add(-2*time.Hour)))

	if err := h.Prune(context.Background()); err != nil {
		t.Fatalf("prune with nil archive should not error: %v", err)
	}
	if got := h.Len(); got != 0 {
		t.Errorf("expected aged record dropped, got %d", got)
	}
}

func TestPrune_NothingToDo(t *testing.T) {
	archive := &mockArchive{}
	h := NewHistory(HistoryConfig{Limit: 10, MaxAge: time.Hour}, archive, nil)
	h.Add(record("fresh", time.Now()))

	if err := h.Prune(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n, _ := archive.Count(context.Background()); n != 0 {
		t.Errorf("expected nothing archived, got %d", n)
	}
}
