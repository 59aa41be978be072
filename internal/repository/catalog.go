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

type CatalogRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewCatalogRepository(db *sql.DB, log logger.Logger) *CatalogRepository {
	return &CatalogRepository{
		db:     db,
		logger: log,
	}
}

const catalogColumns = `
	id, domain, url_pattern, usage_count, last_used, score, reliability,
	decay_class, role, is_seed, citation_quality_factor, status,
	consecutive_failures, last_verified, created_at
`

func (r *CatalogRepository) Create(ctx context.Context, source *models.CatalogSource) error {
	if source.ID == "" {
		source.ID = uuid.New().String()
	}
	if source.CreatedAt.IsZero() {
		source.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO catalog_sources (
			id, domain, url_pattern, usage_count, last_used, score, reliability,
			decay_class, role, is_seed, citation_quality_factor, status,
			consecutive_failures, last_verified, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.ExecContext(ctx,
		query,
		source.ID,
		source.Domain,
		source.URLPattern,
		source.UsageCount,
		source.LastUsed,
		source.Score,
		source.Reliability,
		source.DecayClass,
		source.Role,
		source.IsSeed,
		source.CitationQualityFactor,
		source.Status,
		source.ConsecutiveFailures,
		source.LastVerified,
		source.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert catalog source: %w", err)
	}

	return nil
}

func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*models.CatalogSource, error) {
	query := `SELECT ` + catalogColumns + ` FROM catalog_sources WHERE id = $1`

	source, err := scanCatalog(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query catalog source: %w", err)
	}
	return source, nil
}

// GetByURLPattern looks a source up by its normalized URL pattern. Seeding
// uses this for idempotency.
func (r *CatalogRepository) GetByURLPattern(ctx context.Context, pattern string) (*models.CatalogSource, error) {
	query := `SELECT ` + catalogColumns + ` FROM catalog_sources WHERE url_pattern = $1`

	source, err := scanCatalog(r.db.QueryRowContext(ctx, query, pattern))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query catalog source: %w", err)
	}
	return source, nil
}

func (r *CatalogRepository) List(ctx context.Context) ([]models.CatalogSource, error) {
	query := `SELECT ` + catalogColumns + ` FROM catalog_sources ORDER BY score DESC, domain ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query catalog sources: %w", err)
	}
	defer rows.Close()

	return scanCatalogRows(rows)
}

func (r *CatalogRepository) Update(ctx context.Context, source *models.CatalogSource) error {
	query := `
		UPDATE catalog_sources
		SET domain = $2, url_pattern = $3, usage_count = $4, last_used = $5,
		    score = $6, reliability = $7, decay_class = $8, role = $9,
		    is_seed = $10, citation_quality_factor = $11, status = $12,
		    consecutive_failures = $13, last_verified = $14
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx,
		query,
		source.ID,
		source.Domain,
		source.URLPattern,
		source.UsageCount,
		source.LastUsed,
		source.Score,
		source.Reliability,
		source.DecayClass,
		source.Role,
		source.IsSeed,
		source.CitationQualityFactor,
		source.Status,
		source.ConsecutiveFailures,
		source.LastVerified,
	)
	if err != nil {
		return fmt.Errorf("update catalog source: %w", err)
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

// RecordUsage increments the usage counter in place so concurrent citations
// of the same source never overwrite each other from stale reads.
func (r *CatalogRepository) RecordUsage(ctx context.Context, id string, usedAt time.Time) error {
	query := `
		UPDATE catalog_sources
		SET usage_count = usage_count + 1,
		    last_used = GREATEST(last_used, $2)
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, usedAt)
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
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

// UpdateScore stores a recomputed score and the citation quality that fed it.
func (r *CatalogRepository) UpdateScore(ctx context.Context, id string, score, citationQuality float64) error {
	query := `
		UPDATE catalog_sources
		SET score = $2, citation_quality_factor = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, score, citationQuality)
	if err != nil {
		return fmt.Errorf("update catalog score: %w", err)
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

// SetVerification records a link-rot probe outcome.
func (r *CatalogRepository) SetVerification(
	ctx context.Context,
	id string,
	status models.SourceStatus,
	consecutiveFailures int,
	verifiedAt time.Time,
) error {
	query := `
		UPDATE catalog_sources
		SET status = $2, consecutive_failures = $3, last_verified = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, status, consecutiveFailures, verifiedAt)
	if err != nil {
		return fmt.Errorf("set verification: %w", err)
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

// ListStaleVerified returns non-archived sources whose last verification is
// older than the cutoff (or missing), oldest first.
func (r *CatalogRepository) ListStaleVerified(ctx context.Context, cutoff time.Time, limit int) ([]models.CatalogSource, error) {
	query := `
		SELECT ` + catalogColumns + `
		FROM catalog_sources
		WHERE status <> 'archived'
		  AND (last_verified IS NULL OR last_verified < $1)
		ORDER BY last_verified ASC NULLS FIRST
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("query stale sources: %w", err)
	}
	defer rows.Close()

	return scanCatalogRows(rows)
}

// Delete removes a catalog source. Citation links survive with source_id set
// to null and theme tags cascade, per the schema.
func (r *CatalogRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM catalog_sources WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete catalog source: %w", err)
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

// CoCitedSources returns catalog sources that share at least one citing entry
// with the given source. One hop only; the caller averages their scores into
// the citation quality factor.
func (r *CatalogRepository) CoCitedSources(ctx context.Context, sourceID string) ([]models.CatalogSource, error) {
	query := `
		SELECT DISTINCT ` + prefixColumns("cs", catalogColumns) + `
		FROM citation_links cl1
		JOIN citation_links cl2 ON cl1.entry_id = cl2.entry_id AND cl2.source_id <> cl1.source_id
		JOIN catalog_sources cs ON cs.id = cl2.source_id
		WHERE cl1.source_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, sourceID)
	if err != nil {
		return nil, fmt.Errorf("query co-cited sources: %w", err)
	}
	defer rows.Close()

	return scanCatalogRows(rows)
}

// AddThemeTag associates a source with a theme. Idempotent.
func (r *CatalogRepository) AddThemeTag(ctx context.Context, sourceID, theme string) error {
	query := `
		INSERT INTO theme_tags (source_id, theme)
		VALUES ($1, $2)
		ON CONFLICT (source_id, theme) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, sourceID, theme); err != nil {
		return fmt.Errorf("add theme tag: %w", err)
	}
	return nil
}

// RemoveThemeTag removes a theme association.
func (r *CatalogRepository) RemoveThemeTag(ctx context.Context, sourceID, theme string) error {
	query := `DELETE FROM theme_tags WHERE source_id = $1 AND theme = $2`

	if _, err := r.db.ExecContext(ctx, query, sourceID, theme); err != nil {
		return fmt.Errorf("remove theme tag: %w", err)
	}
	return nil
}

// ListByTheme returns catalog sources tagged with the theme, seeds and
// promoted sources first, then score. Seeds win equal-score ties before the
// deterministic domain tiebreak.
func (r *CatalogRepository) ListByTheme(ctx context.Context, theme string, limit int) ([]models.CatalogSource, error) {
	query := `
		SELECT ` + prefixColumns("cs", catalogColumns) + `
		FROM catalog_sources cs
		JOIN theme_tags tt ON tt.source_id = cs.id
		WHERE tt.theme = $1
		ORDER BY (cs.is_seed OR EXISTS (
			SELECT 1 FROM staged_sources ss WHERE ss.promoted_to = cs.id
		)) DESC, cs.score DESC, cs.is_seed DESC, cs.domain ASC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, theme, limit)
	if err != nil {
		return nil, fmt.Errorf("query sources by theme: %w", err)
	}
	defer rows.Close()

	return scanCatalogRows(rows)
}

// ListTop returns the n highest ranked catalog sources.
func (r *CatalogRepository) ListTop(ctx context.Context, n int) ([]models.CatalogSource, error) {
	query := `
		SELECT ` + prefixColumns("cs", catalogColumns) + `
		FROM catalog_sources cs
		ORDER BY (cs.is_seed OR EXISTS (
			SELECT 1 FROM staged_sources ss WHERE ss.promoted_to = cs.id
		)) DESC, cs.score DESC, cs.is_seed DESC, cs.domain ASC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("query top sources: %w", err)
	}
	defer rows.Close()

	return scanCatalogRows(rows)
}

// ListDormant returns sources not used for at least minDays, most stale first.
func (r *CatalogRepository) ListDormant(ctx context.Context, minDays int) ([]models.CatalogSource, error) {
	query := `
		SELECT ` + catalogColumns + `
		FROM catalog_sources
		WHERE last_used < NOW() - ($1 * INTERVAL '1 day')
		ORDER BY last_used ASC
	`

	rows, err := r.db.QueryContext(ctx, query, minDays)
	if err != nil {
		return nil, fmt.Errorf("query dormant sources: %w", err)
	}
	defer rows.Close()

	return scanCatalogRows(rows)
}

// ListEmerging returns sources with at least minRecent citation links created
// inside the window, busiest first.
func (r *CatalogRepository) ListEmerging(ctx context.Context, minRecent, windowDays int) ([]models.CatalogSource, error) {
	query := `
		SELECT ` + prefixColumns("cs", catalogColumns) + `
		FROM catalog_sources cs
		JOIN citation_links cl ON cl.source_id = cs.id
		WHERE cl.created_at >= NOW() - ($2 * INTERVAL '1 day')
		GROUP BY cs.id
		HAVING COUNT(cl.id) >= $1
		ORDER BY COUNT(cl.id) DESC, cs.domain ASC
	`

	rows, err := r.db.QueryContext(ctx, query, minRecent, windowDays)
	if err != nil {
		return nil, fmt.Errorf("query emerging sources: %w", err)
	}
	defer rows.Close()

	return scanCatalogRows(rows)
}

func scanCatalog(row rowScanner) (*models.CatalogSource, error) {
	var source models.CatalogSource
	err := row.Scan(
		&source.ID,
		&source.Domain,
		&source.URLPattern,
		&source.UsageCount,
		&source.LastUsed,
		&source.Score,
		&source.Reliability,
		&source.DecayClass,
		&source.Role,
		&source.IsSeed,
		&source.CitationQualityFactor,
		&source.Status,
		&source.ConsecutiveFailures,
		&source.LastVerified,
		&source.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &source, nil
}

func scanCatalogRows(rows *sql.Rows) ([]models.CatalogSource, error) {
	sources := make([]models.CatalogSource, 0)
	for rows.Next() {
		source, err := scanCatalog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan catalog source: %w", err)
		}
		sources = append(sources, *source)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog sources: %w", err)
	}
	return sources, nil
}
