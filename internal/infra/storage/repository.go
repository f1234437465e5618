package storage

import (
	"context"

	"github.com/iwangdonghui/tsconv-sub005/internal/core/domain"
)

// FailureArchiveRepository persists failure records that have aged out of
// the in-memory rolling history, for the admin/ops surface.
type FailureArchiveRepository interface {
	// Archive stores a batch of pruned failure records
	Archive(ctx context.Context, records []*domain.FailureRecord) error

	// Recent retrieves the most recently archived records, newest first
	Recent(ctx context.Context, limit int) ([]*domain.FailureRecord, error)

	// Count returns the number of archived records
	Count(ctx context.Context) (int, error)
}
