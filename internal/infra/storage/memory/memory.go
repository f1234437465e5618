package memory

import (
	"context"
	"sync"

	"github.com/iwangdonghui/tsconv-sub005/internal/core/domain"
)

// ArchiveRepo is an in-memory FailureArchiveRepository used when no
// database is configured. It keeps at most cap records, newest first.
type ArchiveRepo struct {
	mu      sync.RWMutex
	records []*domain.FailureRecord
	cap     int
}

// NewArchiveRepo creates an in-memory archive bounded to cap records.
func NewArchiveRepo(cap int) *ArchiveRepo {
	if cap <= 0 {
		cap = 1000
	}
	return &ArchiveRepo{cap: cap}
}

func (r *ArchiveRepo) Archive(ctx context.Context, records []*domain.FailureRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, records...)
	if len(r.records) > r.cap {
		r.records = r.records[len(r.records)-r.cap:]
	}
	return nil
}

func (r *ArchiveRepo) Recent(ctx context.Context, limit int) ([]*domain.FailureRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.records) {
		limit = len(r.records)
	}

	out := make([]*domain.FailureRecord, 0, limit)
	for i := len(r.records) - 1; i >= len(r.records)-limit; i-- {
		out = append(out, r.records[i])
	}
	return out, nil
}

func (r *ArchiveRepo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records), nil
}
