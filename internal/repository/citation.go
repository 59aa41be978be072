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

type CitationLinkRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewCitationLinkRepository(db *sql.DB, log logger.Logger) *CitationLinkRepository {
	return &CitationLinkRepository{
		db:     db,
		logger: log,
	}
}

func (r *CitationLinkRepository) Create(ctx context.Context, link *models.CitationLink) error {
	link.ID = uuid.New().String()
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO citation_links (id, entry_id, source_id, link_kind, reference, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx,
		query,
		link.ID,
		link.EntryID,
		link.SourceID,
		link.LinkKind,
		link.Reference,
		link.Note,
		link.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert citation link: %w", err)
	}

	return nil
}

// DeleteByEntry removes all links owned by an entry. Called by the entry
// store when the owning entry is deleted.
func (r *CitationLinkRepository) DeleteByEntry(ctx context.Context, entryID string) (int64, error) {
	query := `DELETE FROM citation_links WHERE entry_id = $1`

	result, err := r.db.ExecContext(ctx, query, entryID)
	if err != nil {
		return 0, fmt.Errorf("delete citation links: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return deleted, nil
}

// BacklinksFor returns the distinct entry ids that cite a catalog source.
func (r *CitationLinkRepository) BacklinksFor(ctx context.Context, sourceID string) ([]string, error) {
	query := `
		SELECT DISTINCT entry_id
		FROM citation_links
		WHERE source_id = $1
		ORDER BY entry_id
	`

	rows, err := r.db.QueryContext(ctx, query, sourceID)
	if err != nil {
		return nil, fmt.Errorf("query backlinks: %w", err)
	}
	defer rows.Close()

	entryIDs := make([]string, 0)
	for rows.Next() {
		var entryID string
		if scanErr := rows.Scan(&entryID); scanErr != nil {
			return nil, fmt.Errorf("scan backlink: %w", scanErr)
		}
		entryIDs = append(entryIDs, entryID)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate backlinks: %w", rowsErr)
	}
	return entryIDs, nil
}

// ListByEntry returns the links an entry owns, oldest first.
func (r *CitationLinkRepository) ListByEntry(ctx context.Context, entryID string) ([]models.CitationLink, error) {
	query := `
		SELECT id, entry_id, source_id, link_kind, reference, note, created_at
		FROM citation_links
		WHERE entry_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("query citation links: %w", err)
	}
	defer rows.Close()

	links := make([]models.CitationLink, 0)
	for rows.Next() {
		var link models.CitationLink
		if scanErr := rows.Scan(
			&link.ID,
			&link.EntryID,
			&link.SourceID,
			&link.LinkKind,
			&link.Reference,
			&link.Note,
			&link.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("scan citation link: %w", scanErr)
		}
		links = append(links, link)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate citation links: %w", rowsErr)
	}
	return links, nil
}
