package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iwangdonghui/tsconv-sub005/internal/core/domain"
)

// ArchiveRepo implements storage.FailureArchiveRepository using PostgreSQL.
type ArchiveRepo struct {
	db *DB
}

// NewArchiveRepo creates a new PostgreSQL failure archive repository.
func NewArchiveRepo(db *DB) *ArchiveRepo {
	return &ArchiveRepo{db: db}
}

type archiveRow struct {
	ID          string    `db:"id"`
	Message     string    `db:"message"`
	Category    string    `db:"category"`
	Severity    string    `db:"severity"`
	StatusCode  int       `db:"status_code"`
	RequestID   string    `db:"request_id"`
	Endpoint    string    `db:"endpoint"`
	Strategy    string    `db:"strategy"`
	Recovered   bool      `db:"recovered"`
	RetryCount  int       `db:"retry_count"`
	UserMessage string    `db:"user_message"`
	Detail      []byte    `db:"detail"`
	CreatedAt   time.Time `db:"created_at"`
}

// Archive stores a batch of pruned failure records.
func (r *ArchiveRepo) Archive(ctx context.Context, records []*domain.FailureRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO failure_archive
			(id, message, category, severity, status_code, request_id,
			 endpoint, strategy, recovered, retry_count, user_message, detail, created_at)
		VALUES
			(:id, :message, :category, :severity, :status_code, :request_id,
			 :endpoint, :strategy, :recovered, :retry_count, :user_message, :detail, :created_at)
		ON CONFLICT (id) DO NOTHING
	`

	rows := make([]archiveRow, 0, len(records))
	for _, rec := range records {
		detail, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode failure record %s: %w", rec.ID, err)
		}
		rows = append(rows, archiveRow{
			ID:          rec.ID,
			Message:     rec.Message,
			Category:    string(rec.Category),
			Severity:    string(rec.Severity),
			StatusCode:  rec.StatusCode,
			RequestID:   rec.RequestID,
			Endpoint:    rec.Context.Endpoint,
			Strategy:    string(rec.Recovery.Strategy),
			Recovered:   rec.Recovery.Successful,
			RetryCount:  rec.Recovery.RetryCount,
			UserMessage: rec.UserMessage,
			Detail:      detail,
			CreatedAt:   rec.CreatedAt,
		})
	}

	if _, err := r.db.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("failed to archive failure records: %w", err)
	}
	return nil
}

// Recent retrieves the most recently archived records, newest first.
func (r *ArchiveRepo) Recent(ctx context.Context, limit int) ([]*domain.FailureRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT detail FROM failure_archive
		ORDER BY created_at DESC
		LIMIT $1
	`

	var payloads [][]byte
	if err := r.db.SelectContext(ctx, &payloads, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query failure archive: %w", err)
	}

	records := make([]*domain.FailureRecord, 0, len(payloads))
	for _, payload := range payloads {
		var rec domain.FailureRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode archived record: %w", err)
		}
		records = append(records, &rec)
	}
	return records, nil
}

// Count returns the number of archived records.
func (r *ArchiveRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM failure_archive`); err != nil {
		return 0, fmt.Errorf("failed to count archived records: %w", err)
	}
	return count, nil
}
