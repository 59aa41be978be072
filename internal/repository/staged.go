package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/gocatalog/internal/logger"
	"github.com/jonesrussell/gocatalog/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

type StagedRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewStagedRepository(db *sql.DB, log logger.Logger) *StagedRepository {
	return &StagedRepository{
		db:     db,
		logger: log,
	}
}

const stagedColumns = `
	id, normalized_url, domain, title, description, content_type, language,
	citation_count, distinct_project_count, projects, first_seen, last_seen,
	staging_score, source_inbox_ids, promoted_at, promoted_to
`

// CitationMerge carries one citation's contribution to a staged source.
// Metadata fields are only used when the citation creates a new record.
type CitationMerge struct {
	NormalizedURL string
	Domain        string
	Project       string
	InboxID       string
	SeenAt        time.Time
	Title         string
	Description   string
	ContentType   models.ContentType
	Language      string
}

// MergeCitation applies one citation to the staged source for its normalized
// URL inside a single transaction: the current row is locked, counters are
// incremented against the locked state, and the rescore callback computes the
// new staging score from the merged record. A uniqueness race on insert is
// resolved by re-reading and merging into the winner instead of failing.
// Returns the merged record and whether it was newly created.
func (r *StagedRepository) MergeCitation(
	ctx context.Context,
	merge CitationMerge,
	rescore func(*models.StagedSource) float64,
) (source *models.StagedSource, created bool, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error("failed to rollback citation merge",
					logger.Error(rbErr),
				)
			}
		}
	}()

	source, err = lockStagedByURL(ctx, tx, merge.NormalizedURL)
	switch {
	case err == nil:
		if mergeErr := mergeIntoLocked(ctx, tx, source, merge, rescore); mergeErr != nil {
			err = mergeErr
			return nil, false, err
		}

	case errors.Is(err, ErrNotFound):
		source = newStagedFromMerge(merge)
		source.StagingScore = rescore(source)

		inserted, insertErr := insertStaged(ctx, tx, source)
		if insertErr != nil {
			err = insertErr
			return nil, false, err
		}

		if !inserted {
			// Lost a race on normalized_url uniqueness: merge into the winner.
			source, err = lockStagedByURL(ctx, tx, merge.NormalizedURL)
			if err != nil {
				err = fmt.Errorf("re-read after conflict: %w", err)
				return nil, false, err
			}
			if mergeErr := mergeIntoLocked(ctx, tx, source, merge, rescore); mergeErr != nil {
				err = mergeErr
				return nil, false, err
			}
		} else {
			created = true
		}

	default:
		return nil, false, err
	}

	if commitErr := tx.Commit(); commitErr != nil {
		err = fmt.Errorf("commit citation merge: %w", commitErr)
		return nil, false, err
	}

	return source, created, nil
}

func newStagedFromMerge(merge CitationMerge) *models.StagedSource {
	contentType := merge.ContentType
	if contentType == "" {
		contentType = models.ContentOther
	}

	source := &models.StagedSource{
		ID:                   uuid.New().String(),
		NormalizedURL:        merge.NormalizedURL,
		Domain:               merge.Domain,
		Title:                merge.Title,
		Description:          merge.Description,
		ContentType:          contentType,
		Language:             merge.Language,
		CitationCount:        1,
		DistinctProjectCount: 1,
		FirstSeen:            merge.SeenAt,
		LastSeen:             merge.SeenAt,
	}
	if merge.Project != "" {
		source.Projects = models.StringArray{merge.Project}
	}
	if merge.InboxID != "" {
		source.SourceInboxIDs = models.StringArray{merge.InboxID}
	}
	return source
}

func lockStagedByURL(ctx context.Context, tx *sql.Tx, normalizedURL string) (*models.StagedSource, error) {
	query := `
		SELECT ` + stagedColumns + `
		FROM staged_sources
		WHERE normalized_url = $1
		FOR UPDATE
	`

	source, err := scanStaged(tx.QueryRowContext(ctx, query, normalizedURL))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock staged source: %w", err)
	}
	return source, nil
}

func mergeIntoLocked(
	ctx context.Context,
	tx *sql.Tx,
	source *models.StagedSource,
	merge CitationMerge,
	rescore func(*models.StagedSource) float64,
) error {
	source.CitationCount++
	if merge.Project != "" && !source.Projects.Contains(merge.Project) {
		source.Projects = append(source.Projects, merge.Project)
		source.DistinctProjectCount++
	}
	if merge.SeenAt.After(source.LastSeen) {
		source.LastSeen = merge.SeenAt
	}
	if merge.InboxID != "" {
		source.SourceInboxIDs = append(source.SourceInboxIDs, merge.InboxID)
	}
	source.StagingScore = rescore(source)

	query := `
		UPDATE staged_sources
		SET citation_count = $2, distinct_project_count = $3, projects = $4,
		    last_seen = $5, staging_score = $6, source_inbox_ids = $7
		WHERE id = $1
	`

	_, err := tx.ExecContext(ctx,
		query,
		source.ID,
		source.CitationCount,
		source.DistinctProjectCount,
		source.Projects,
		source.LastSeen,
		source.StagingScore,
		source.SourceInboxIDs,
	)
	if err != nil {
		return fmt.Errorf("update staged source: %w", err)
	}
	return nil
}

func insertStaged(ctx context.Context, tx *sql.Tx, source *models.StagedSource) (bool, error) {
	query := `
		INSERT INTO staged_sources (
			id, normalized_url, domain, title, description, content_type, language,
			citation_count, distinct_project_count, projects, first_seen, last_seen,
			staging_score, source_inbox_ids
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (normalized_url) DO NOTHING
	`

	result, err := tx.ExecContext(ctx,
		query,
		source.ID,
		source.NormalizedURL,
		source.Domain,
		source.Title,
		source.Description,
		source.ContentType,
		source.Language,
		source.CitationCount,
		source.DistinctProjectCount,
		source.Projects,
		source.FirstSeen,
		source.LastSeen,
		source.StagingScore,
		source.SourceInboxIDs,
	)
	if err != nil {
		return false, fmt.Errorf("insert staged source: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

func (r *StagedRepository) GetByID(ctx context.Context, id string) (*models.StagedSource, error) {
	query := `SELECT ` + stagedColumns + ` FROM staged_sources WHERE id = $1`

	source, err := scanStaged(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query staged source: %w", err)
	}
	return source, nil
}

func (r *StagedRepository) GetByNormalizedURL(ctx context.Context, normalizedURL string) (*models.StagedSource, error) {
	query := `SELECT ` + stagedColumns + ` FROM staged_sources WHERE normalized_url = $1`

	source, err := scanStaged(r.db.QueryRowContext(ctx, query, normalizedURL))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query staged source: %w", err)
	}
	return source, nil
}

// ListUnpromoted returns staged sources without a catalog counterpart,
// candidates for the automatic promotion pass.
func (r *StagedRepository) ListUnpromoted(ctx context.Context) ([]models.StagedSource, error) {
	query := `
		SELECT ` + stagedColumns + `
		FROM staged_sources
		WHERE promoted_to IS NULL
		ORDER BY staging_score DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query staged sources: %w", err)
	}
	defer rows.Close()

	return scanStagedRows(rows)
}

// ListNearThreshold returns unpromoted staged sources at or above the given
// score, for discovery views alongside the catalog.
func (r *StagedRepository) ListNearThreshold(ctx context.Context, minScore float64, limit int) ([]models.StagedSource, error) {
	query := `
		SELECT ` + stagedColumns + `
		FROM staged_sources
		WHERE promoted_to IS NULL AND staging_score >= $1
		ORDER BY staging_score DESC, domain ASC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, minScore, limit)
	if err != nil {
		return nil, fmt.Errorf("query staged sources: %w", err)
	}
	defer rows.Close()

	return scanStagedRows(rows)
}

// UpdateScore stores a recomputed staging score.
func (r *StagedRepository) UpdateScore(ctx context.Context, id string, score float64) error {
	query := `UPDATE staged_sources SET staging_score = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, score)
	if err != nil {
		return fmt.Errorf("update staging score: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateMetadata stores user- or seed-provided metadata fields.
func (r *StagedRepository) UpdateMetadata(ctx context.Context, source *models.StagedSource) error {
	query := `
		UPDATE staged_sources
		SET title = $2, description = $3, content_type = $4, language = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx,
		query,
		source.ID,
		source.Title,
		source.Description,
		source.ContentType,
		source.Language,
	)
	if err != nil {
		return fmt.Errorf("update staged metadata: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPromotion records that a staged source now has a catalog counterpart.
// The silver record is kept, not deleted, so demotion can restore it.
func (r *StagedRepository) SetPromotion(ctx context.Context, stagedID, catalogID string, at time.Time) error {
	query := `UPDATE staged_sources SET promoted_at = $2, promoted_to = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, stagedID, at, catalogID)
	if err != nil {
		return fmt.Errorf("set promotion: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearPromotion reverts a staged source to unpromoted after demotion.
func (r *StagedRepository) ClearPromotion(ctx context.Context, stagedID string) error {
	query := `UPDATE staged_sources SET promoted_at = NULL, promoted_to = NULL WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, stagedID)
	if err != nil {
		return fmt.Errorf("clear promotion: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByPromotedTo finds the silver record backing a catalog source.
func (r *StagedRepository) GetByPromotedTo(ctx context.Context, catalogID string) (*models.StagedSource, error) {
	query := `SELECT ` + stagedColumns + ` FROM staged_sources WHERE promoted_to = $1`

	source, err := scanStaged(r.db.QueryRowContext(ctx, query, catalogID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query staged source: %w", err)
	}
	return source, nil
}

// Delete drops a staged source the user explicitly discarded.
func (r *StagedRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM staged_sources WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete staged source: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStaged(row rowScanner) (*models.StagedSource, error) {
	var source models.StagedSource
	err := row.Scan(
		&source.ID,
		&source.NormalizedURL,
		&source.Domain,
		&source.Title,
		&source.Description,
		&source.ContentType,
		&source.Language,
		&source.CitationCount,
		&source.DistinctProjectCount,
		&source.Projects,
		&source.FirstSeen,
		&source.LastSeen,
		&source.StagingScore,
		&source.SourceInboxIDs,
		&source.PromotedAt,
		&source.PromotedTo,
	)
	if err != nil {
		return nil, err
	}
	return &source, nil
}

func scanStagedRows(rows *sql.Rows) ([]models.StagedSource, error) {
	sources := make([]models.StagedSource, 0)
	for rows.Next() {
		source, err := scanStaged(rows)
		if err != nil {
			return nil, fmt.Errorf("scan staged source: %w", err)
		}
		sources = append(sources, *source)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate staged sources: %w", err)
	}
	return sources, nil
}
