// Package ingest is the bronze tier: it accepts raw citation events and
// appends them to the inbox. Capture never touches the network, so recording
// a citation from a live session is fast and cannot fail on a slow host.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/jonesrussell/gocatalog/internal/logger"
	"github.com/jonesrussell/gocatalog/internal/models"
	"github.com/jonesrussell/gocatalog/internal/urlnorm"
)

// InboxStore is the persistence the capture service appends to.
type InboxStore interface {
	Create(ctx context.Context, entry *models.InboxEntry) error
}

type Service struct {
	inbox  InboxStore
	logger logger.Logger
}

func NewService(inbox InboxStore, log logger.Logger) *Service {
	return &Service{
		inbox:  inbox,
		logger: log,
	}
}

// Capture validates and appends one citation event. Invalid URLs are stored
// quarantined with a human-readable validation error rather than dropped, so
// they can be audited or whitelisted later. The returned entry reflects what
// was stored; the error is non-nil only when the append itself failed.
func (s *Service) Capture(ctx context.Context, rawURL string, origin models.OriginContext) (*models.InboxEntry, error) {
	entry := &models.InboxEntry{
		URL:        rawURL,
		Origin:     origin,
		CapturedAt: time.Now().UTC(),
		IsValid:    true,
	}

	if err := urlnorm.Validate(rawURL); err != nil {
		entry.IsValid = false
		entry.ValidationError = err.Error()
	}

	if err := s.inbox.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("append inbox entry: %w", err)
	}

	if entry.IsValid {
		s.logger.Debug("Citation captured",
			logger.String("entry_id", entry.ID),
			logger.String("url", rawURL),
			logger.String("project", origin.Project),
		)
	} else {
		s.logger.Info("Citation quarantined",
			logger.String("entry_id", entry.ID),
			logger.String("url", rawURL),
			logger.String("validation_error", entry.ValidationError),
		)
	}

	return entry, nil
}

// CaptureBatch appends a batch of citation events, such as an imported
// transcript. Storage failures are counted per item, never aborting the batch.
func (s *Service) CaptureBatch(ctx context.Context, urls []string, origin models.OriginContext) (captured, quarantined, failed int) {
	for _, rawURL := range urls {
		entry, err := s.Capture(ctx, rawURL, origin)
		if err != nil {
			failed++
			s.logger.Error("Failed to capture citation",
				logger.String("url", rawURL),
				logger.Error(err),
			)
			continue
		}
		if entry.IsValid {
			captured++
		} else {
			quarantined++
		}
	}
	return captured, quarantined, failed
}
