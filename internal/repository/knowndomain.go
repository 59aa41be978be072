package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jonesrussell/gocatalog/internal/logger"
	"github.com/jonesrussell/gocatalog/internal/models"
)

type KnownDomainRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewKnownDomainRepository(db *sql.DB, log logger.Logger) *KnownDomainRepository {
	return &KnownDomainRepository{
		db:     db,
		logger: log,
	}
}

func (r *KnownDomainRepository) Get(ctx context.Context, domain string) (*models.KnownDomain, error) {
	query := `SELECT domain, role, notes FROM known_domains WHERE domain = $1`

	var kd models.KnownDomain
	err := r.db.QueryRowContext(ctx, query, domain).Scan(&kd.Domain, &kd.Role, &kd.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query known domain: %w", err)
	}
	return &kd, nil
}

// Upsert inserts or updates a known domain row. The table is append-only in
// normal operation; updates happen only through explicit re-seeding.
func (r *KnownDomainRepository) Upsert(ctx context.Context, kd *models.KnownDomain) error {
	query := `
		INSERT INTO known_domains (domain, role, notes)
		VALUES ($1, $2, $3)
		ON CONFLICT (domain) DO UPDATE SET
			role = EXCLUDED.role,
			notes = EXCLUDED.notes
	`

	if _, err := r.db.ExecContext(ctx, query, kd.Domain, kd.Role, kd.Notes); err != nil {
		return fmt.Errorf("upsert known domain: %w", err)
	}
	return nil
}

func (r *KnownDomainRepository) List(ctx context.Context) ([]models.KnownDomain, error) {
	query := `SELECT domain, role, notes FROM known_domains ORDER BY domain`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query known domains: %w", err)
	}
	defer rows.Close()

	domains := make([]models.KnownDomain, 0)
	for rows.Next() {
		var kd models.KnownDomain
		if scanErr := rows.Scan(&kd.Domain, &kd.Role, &kd.Notes); scanErr != nil {
			return nil, fmt.Errorf("scan known domain: %w", scanErr)
		}
		domains = append(domains, kd)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate known domains: %w", rowsErr)
	}
	return domains, nil
}
