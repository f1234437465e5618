package recovery

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/iwangdonghui/tsconv-sub005/internal/core/domain"
	"github.com/iwangdonghui/tsconv-sub005/internal/infra/storage"
)

// HistoryConfig bounds the rolling failure history.
type HistoryConfig struct {
	Limit  int
	MaxAge time.Duration
}

// DefaultHistoryConfig provides sensible defaults.
func DefaultHistoryConfig() HistoryConfig {
	return HistoryConfig{
		Limit:  1000,
		MaxAge: 24 * time.Hour,
	}
}

// History is the bounded rolling record of handled failures. Records
// that age out or overflow the cap are handed to the archive on the next
// Prune, never lost in between.
type History struct {
	cfg     HistoryConfig
	archive storage.FailureArchiveRepository
	log     *slog.Logger

	mu      sync.RWMutex
	records []*domain.FailureRecord
	pending []*domain.FailureRecord

	now func() time.Time
}

// NewHistory creates a rolling history. archive may be nil, in which
// case pruned records are simply discarded.
func NewHistory(cfg HistoryConfig, archive storage.FailureArchiveRepository, log *slog.Logger) *History {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultHistoryConfig().Limit
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultHistoryConfig().MaxAge
	}
	if log == nil {
		log = slog.Default()
	}
	return &History{cfg: cfg, archive: archive, log: log, now: time.Now}
}

// Add appends a record, evicting the oldest past the cap.
func (h *History) Add(rec *domain.FailureRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append(h.records, rec)
	if overflow := len(h.records) - h.cfg.Limit; overflow > 0 {
		h.pending = append(h.pending, h.records[:overflow]...)
		h.records = h.records[overflow:]
	}
}

// Recent returns up to limit records, newest first.
func (h *History) Recent(limit int) []*domain.FailureRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if limit <= 0 || limit > len(h.records) {
		limit = len(h.records)
	}

	out := make([]*domain.FailureRecord, 0, limit)
	for i := len(h.records) - 1; i >= len(h.records)-limit; i-- {
		out = append(out, h.records[i])
	}
	return out
}

// CountSince returns how many failures were recorded at or after t.
func (h *History) CountSince(t time.Time) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for i := len(h.records) - 1; i >= 0; i-- {
		if h.records[i].CreatedAt.Before(t) {
			break
		}
		count++
	}
	return count
}

// Len returns the number of records currently held.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}

// Prune drops records older than MaxAge and flushes them, along with any
// earlier evictions, to the archive.
func (h *History) Prune(ctx context.Context) error {
	cutoff := h.now().Add(-h.cfg.MaxAge)

	h.mu.Lock()
	idx := 0
	for idx < len(h.records) && h.records[idx].CreatedAt.Before(cutoff) {
		idx++
	}
	batch := append(h.pending, h.records[:idx]...)
	h.records = h.records[idx:]
	h.pending = nil
	h.mu.Unlock()

	if len(batch) == 0 || h.archive == nil {
		return nil
	}

	if err := h.archive.Archive(ctx, batch); err != nil {
		h.mu.Lock()
		h.pending = append(batch, h.pending...)
		h.mu.Unlock()
		h.log.Warn("failed to archive pruned failure records", "count", len(batch), "error", err)
		return err
	}
	h.log.Debug("archived pruned failure records", "count", len(batch))
	return nil
}
