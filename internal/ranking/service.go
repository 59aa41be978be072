// Package ranking is the consumer-facing read path over the curated catalog.
package ranking

import (
	"context"
	"fmt"

	"github.com/jonesrussell/gocatalog/internal/logger"
	"github.com/jonesrussell/gocatalog/internal/models"
)

// CatalogReader provides the ordered catalog queries. Ordering is done in
// SQL: seeds and promoted sources first, then score, then domain.
type CatalogReader interface {
	ListByTheme(ctx context.Context, theme string, limit int) ([]models.CatalogSource, error)
	ListTop(ctx context.Context, n int) ([]models.CatalogSource, error)
	ListDormant(ctx context.Context, minDays int) ([]models.CatalogSource, error)
	ListEmerging(ctx context.Context, minRecent, windowDays int) ([]models.CatalogSource, error)
}

// StagedReader exposes near-threshold staging for discovery views.
type StagedReader interface {
	ListNearThreshold(ctx context.Context, minScore float64, limit int) ([]models.StagedSource, error)
}

type Service struct {
	catalog CatalogReader
	staged  StagedReader
	logger  logger.Logger
}

func NewService(catalog CatalogReader, staged StagedReader, log logger.Logger) *Service {
	return &Service{
		catalog: catalog,
		staged:  staged,
		logger:  log,
	}
}

// SourcesForTheme returns catalog sources tagged with the theme, ranked.
func (s *Service) SourcesForTheme(ctx context.Context, theme string, limit int) ([]models.CatalogSource, error) {
	sources, err := s.catalog.ListByTheme(ctx, theme, limit)
	if err != nil {
		return nil, fmt.Errorf("sources for theme %q: %w", theme, err)
	}
	return sources, nil
}

// TopSources returns the n highest ranked catalog sources.
func (s *Service) TopSources(ctx context.Context, n int) ([]models.CatalogSource, error) {
	sources, err := s.catalog.ListTop(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("top sources: %w", err)
	}
	return sources, nil
}

// DormantSources returns catalog sources unused for at least minDays.
func (s *Service) DormantSources(ctx context.Context, minDays int) ([]models.CatalogSource, error) {
	sources, err := s.catalog.ListDormant(ctx, minDays)
	if err != nil {
		return nil, fmt.Errorf("dormant sources: %w", err)
	}
	return sources, nil
}

// EmergingSources returns catalog sources with at least minRecent citations
// inside the window.
func (s *Service) EmergingSources(ctx context.Context, minRecent, windowDays int) ([]models.CatalogSource, error) {
	sources, err := s.catalog.ListEmerging(ctx, minRecent, windowDays)
	if err != nil {
		return nil, fmt.Errorf("emerging sources: %w", err)
	}
	return sources, nil
}

// DiscoverySources returns staged sources near the promotion threshold, for
// views that surface what is about to graduate into the catalog.
func (s *Service) DiscoverySources(ctx context.Context, minScore float64, limit int) ([]models.StagedSource, error) {
	sources, err := s.staged.ListNearThreshold(ctx, minScore, limit)
	if err != nil {
		return nil, fmt.Errorf("discovery sources: %w", err)
	}
	return sources, nil
}
