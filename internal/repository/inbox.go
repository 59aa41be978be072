package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/gocatalog/internal/logger"
	"github.com/jonesrussell/gocatalog/internal/models"
)

type InboxRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewInboxRepository(db *sql.DB, log logger.Logger) *InboxRepository {
	return &InboxRepository{
		db:     db,
		logger: log,
	}
}

// Create appends an inbox entry. Quarantined entries (is_valid=false) are
// stored the same way as valid ones so they can be audited later.
func (r *InboxRepository) Create(ctx context.Context, entry *models.InboxEntry) error {
	entry.ID = uuid.New().String()
	if entry.CapturedAt.IsZero() {
		entry.CapturedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO inbox_entries (
			id, url, origin, captured_at, is_valid, validation_error, processed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx,
		query,
		entry.ID,
		entry.URL,
		entry.Origin,
		entry.CapturedAt,
		entry.IsValid,
		entry.ValidationError,
		entry.ProcessedAt,
	)

	if err != nil {
		return fmt.Errorf("insert inbox entry: %w", err)
	}

	return nil
}

// ListUnprocessed returns valid, unprocessed entries in capture order.
func (r *InboxRepository) ListUnprocessed(ctx context.Context, limit int) ([]models.InboxEntry, error) {
	query := `
		SELECT id, url, origin, captured_at, is_valid, validation_error, processed_at
		FROM inbox_entries
		WHERE is_valid AND processed_at IS NULL
		ORDER BY captured_at
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed entries: %w", err)
	}
	defer rows.Close()

	return scanInboxRows(rows)
}

// ListQuarantined returns invalid entries for audit.
func (r *InboxRepository) ListQuarantined(ctx context.Context, limit int) ([]models.InboxEntry, error) {
	query := `
		SELECT id, url, origin, captured_at, is_valid, validation_error, processed_at
		FROM inbox_entries
		WHERE NOT is_valid
		ORDER BY captured_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query quarantined entries: %w", err)
	}
	defer rows.Close()

	return scanInboxRows(rows)
}

func scanInboxRows(rows *sql.Rows) ([]models.InboxEntry, error) {
	entries := make([]models.InboxEntry, 0)
	for rows.Next() {
		var entry models.InboxEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.URL,
			&entry.Origin,
			&entry.CapturedAt,
			&entry.IsValid,
			&entry.ValidationError,
			&entry.ProcessedAt,
		); err != nil {
			return nil, fmt.Errorf("scan inbox entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inbox entries: %w", err)
	}
	return entries, nil
}

// MarkProcessed stamps an entry as consumed by enrichment.
func (r *InboxRepository) MarkProcessed(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE inbox_entries SET processed_at = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("mark entry processed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("inbox entry %s not found", id)
	}

	return nil
}

// PruneProcessed removes processed entries older than the cutoff. Quarantined
// entries are kept regardless of age.
func (r *InboxRepository) PruneProcessed(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `DELETE FROM inbox_entries WHERE processed_at IS NOT NULL AND processed_at < $1`

	result, err := r.db.ExecContext(ctx, query, olderThan)
	if err != nil {
		return 0, fmt.Errorf("prune inbox entries: %w", err)
	}

	pruned, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}

	return pruned, nil
}
