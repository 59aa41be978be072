// Package citations is the narrow interface the external entry store calls
// when an entry records a source reference.
package citations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/gocatalog/internal/logger"
	"github.com/jonesrussell/gocatalog/internal/models"
	"github.com/jonesrussell/gocatalog/internal/repository"
	"github.com/jonesrussell/gocatalog/internal/urlnorm"
)

// LinkStore persists citation links.
type LinkStore interface {
	Create(ctx context.Context, link *models.CitationLink) error
	DeleteByEntry(ctx context.Context, entryID string) (int64, error)
	BacklinksFor(ctx context.Context, sourceID string) ([]string, error)
	ListByEntry(ctx context.Context, entryID string) ([]models.CitationLink, error)
}

// CatalogStore resolves URL references against the catalog and records usage.
type CatalogStore interface {
	GetByURLPattern(ctx context.Context, pattern string) (*models.CatalogSource, error)
	RecordUsage(ctx context.Context, id string, usedAt time.Time) error
}

type Service struct {
	links   LinkStore
	catalog CatalogStore
	logger  logger.Logger
}

func NewService(links LinkStore, catalog CatalogStore, log logger.Logger) *Service {
	return &Service{
		links:   links,
		catalog: catalog,
		logger:  log,
	}
}

// Reference describes one source reference recorded on an entry.
type Reference struct {
	Kind      models.LinkKind
	Reference string
	Note      *string
}

// LinkEntryToSource records a citation link. URL references are resolved
// against the catalog by normalized URL; a match attaches the source and
// bumps its usage counter. References to uncurated URLs are stored with a
// null source id.
func (s *Service) LinkEntryToSource(ctx context.Context, entryID string, ref Reference) (*models.CitationLink, error) {
	if entryID == "" {
		return nil, errors.New("entry id is required")
	}
	if !ref.Kind.Valid() {
		return nil, fmt.Errorf("invalid link kind %q", ref.Kind)
	}

	link := &models.CitationLink{
		EntryID:   entryID,
		LinkKind:  ref.Kind,
		Reference: ref.Reference,
		Note:      ref.Note,
	}

	if ref.Kind == models.LinkKindURL {
		s.resolveSource(ctx, link, ref.Reference)
	}

	if err := s.links.Create(ctx, link); err != nil {
		return nil, fmt.Errorf("create citation link: %w", err)
	}

	return link, nil
}

// resolveSource attaches a catalog source to a URL link when one exists.
// Resolution failures leave the link dangling-safe rather than failing it.
func (s *Service) resolveSource(ctx context.Context, link *models.CitationLink, rawURL string) {
	normalized, err := urlnorm.Normalize(rawURL)
	if err != nil {
		s.logger.Debug("Citation URL not normalizable, storing unresolved",
			logger.String("url", rawURL),
			logger.Error(err),
		)
		return
	}

	source, err := s.catalog.GetByURLPattern(ctx, normalized)
	if errors.Is(err, repository.ErrNotFound) {
		return
	}
	if err != nil {
		s.logger.Warn("Catalog lookup failed, storing unresolved",
			logger.String("url", rawURL),
			logger.Error(err),
		)
		return
	}

	link.SourceID = &source.ID
	if usageErr := s.catalog.RecordUsage(ctx, source.ID, time.Now().UTC()); usageErr != nil {
		s.logger.Warn("Failed to record source usage",
			logger.String("source_id", source.ID),
			logger.Error(usageErr),
		)
	}
}

// RemoveEntryLinks cascades an entry deletion into its citation links.
func (s *Service) RemoveEntryLinks(ctx context.Context, entryID string) (int64, error) {
	deleted, err := s.links.DeleteByEntry(ctx, entryID)
	if err != nil {
		return 0, fmt.Errorf("delete entry links: %w", err)
	}
	return deleted, nil
}

// EntryLinks returns the links an entry owns, oldest first.
func (s *Service) EntryLinks(ctx context.Context, entryID string) ([]models.CitationLink, error) {
	if entryID == "" {
		return nil, errors.New("entry id is required")
	}
	links, err := s.links.ListByEntry(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("links for entry %s: %w", entryID, err)
	}
	return links, nil
}

// BacklinksFor returns the entry ids citing a catalog source.
func (s *Service) BacklinksFor(ctx context.Context, sourceID string) ([]string, error) {
	entryIDs, err := s.links.BacklinksFor(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("backlinks for %s: %w", sourceID, err)
	}
	return entryIDs, nil
}
