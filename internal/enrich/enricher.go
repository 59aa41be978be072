// Package enrich is the silver tier: it consumes inbox entries, deduplicates
// them against staged sources by normalized URL, fetches page metadata, and
// computes staging scores.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonesrussell/gocatalog/internal/classify"
	"github.com/jonesrussell/gocatalog/internal/logger"
	"github.com/jonesrussell/gocatalog/internal/metadata"
	"github.com/jonesrussell/gocatalog/internal/models"
	"github.com/jonesrussell/gocatalog/internal/repository"
	"github.com/jonesrussell/gocatalog/internal/scoring"
	"github.com/jonesrussell/gocatalog/internal/urlnorm"
	"github.com/jonesrussell/gocatalog/internal/worker"
)

// ErrAlreadyRunning is returned when an enrichment run is invoked while a
// previous run is still in progress.
var ErrAlreadyRunning = errors.New("enrichment already running")

// InboxStore reads and consumes bronze-tier entries.
type InboxStore interface {
	ListUnprocessed(ctx context.Context, limit int) ([]models.InboxEntry, error)
	MarkProcessed(ctx context.Context, id string, at time.Time) error
}

// StagedStore merges citations into silver-tier sources.
type StagedStore interface {
	GetByNormalizedURL(ctx context.Context, normalizedURL string) (*models.StagedSource, error)
	MergeCitation(ctx context.Context, merge repository.CitationMerge, rescore func(*models.StagedSource) float64) (*models.StagedSource, bool, error)
}

// Fetcher retrieves advisory page metadata.
type Fetcher interface {
	FetchMetadata(ctx context.Context, pageURL string) (*metadata.PageMetadata, error)
}

// Report summarizes one enrichment run. Per-item failures are accumulated
// here, not raised to the caller.
type Report struct {
	Processed     int      `json:"processed"`
	Created       int      `json:"created"`
	Merged        int      `json:"merged"`
	FetchFailures int      `json:"fetch_failures"`
	ItemFailures  int      `json:"item_failures"`
	Errors        []string `json:"errors,omitempty"`
}

// Config holds enrichment batch settings.
type Config struct {
	BatchSize    int
	FetchTimeout time.Duration
}

type Enricher struct {
	cfg     Config
	inbox   InboxStore
	staged  StagedStore
	fetcher Fetcher
	scoring scoring.Config
	pool    *worker.Pool
	logger  logger.Logger
	running atomic.Bool
}

func NewEnricher(
	cfg Config,
	inbox InboxStore,
	staged StagedStore,
	fetcher Fetcher,
	scoringCfg scoring.Config,
	pool *worker.Pool,
	log logger.Logger,
) *Enricher {
	return &Enricher{
		cfg:     cfg,
		inbox:   inbox,
		staged:  staged,
		fetcher: fetcher,
		scoring: scoringCfg,
		pool:    pool,
		logger:  log,
	}
}

// Enrich consumes one batch of unprocessed inbox entries in capture order.
// Metadata for first-seen URLs is prefetched on the bounded worker pool; each
// entry is then merged into staging inside its own transaction, so
// cancellation between items never leaves a source half-updated. Returns
// ErrAlreadyRunning if a previous run has not finished.
func (e *Enricher) Enrich(ctx context.Context) (*Report, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer e.running.Store(false)

	entries, err := e.inbox.ListUnprocessed(ctx, e.cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed entries: %w", err)
	}

	report := &Report{}
	if len(entries) == 0 {
		return report, nil
	}

	prefetched := e.prefetchMetadata(ctx, entries, report)

	for i := range entries {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		e.enrichEntry(ctx, &entries[i], prefetched, report)
	}

	e.logger.Info("Enrichment batch complete",
		logger.Int("processed", report.Processed),
		logger.Int("created", report.Created),
		logger.Int("merged", report.Merged),
		logger.Int("fetch_failures", report.FetchFailures),
		logger.Int("item_failures", report.ItemFailures),
	)

	return report, nil
}

// prefetchMetadata fetches metadata for URLs not yet staged, concurrently on
// the bounded pool. Fetch failures degrade to empty metadata; they are
// counted, never fatal.
func (e *Enricher) prefetchMetadata(ctx context.Context, entries []models.InboxEntry, report *Report) map[string]*metadata.PageMetadata {
	type fetchTarget struct {
		normalizedURL string
		rawURL        string
	}

	seen := make(map[string]bool)
	targets := make([]fetchTarget, 0)

	for i := range entries {
		normalized, err := urlnorm.Normalize(entries[i].URL)
		if err != nil || seen[normalized] {
			continue
		}
		seen[normalized] = true

		if _, lookupErr := e.staged.GetByNormalizedURL(ctx, normalized); lookupErr == nil {
			continue // already staged, counters merge without a fetch
		}
		targets = append(targets, fetchTarget{normalizedURL: normalized, rawURL: entries[i].URL})
	}

	results := make(map[string]*metadata.PageMetadata, len(targets))
	var mu sync.Mutex
	var fetchFailures atomic.Int64

	_ = e.pool.Run(ctx, len(targets), func(ctx context.Context, i int) error {
		fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
		defer cancel()

		meta, fetchErr := e.fetcher.FetchMetadata(fetchCtx, targets[i].rawURL)
		if fetchErr != nil {
			fetchFailures.Add(1)
			e.logger.Warn("Metadata fetch failed, proceeding without metadata",
				logger.String("url", targets[i].rawURL),
				logger.Error(fetchErr),
			)
			return fetchErr
		}

		mu.Lock()
		results[targets[i].normalizedURL] = meta
		mu.Unlock()
		return nil
	})

	report.FetchFailures = int(fetchFailures.Load())
	return results
}

func (e *Enricher) enrichEntry(
	ctx context.Context,
	entry *models.InboxEntry,
	prefetched map[string]*metadata.PageMetadata,
	report *Report,
) {
	normalized, err := urlnorm.Normalize(entry.URL)
	if err != nil {
		e.failEntry(ctx, entry, report, fmt.Errorf("normalize url: %w", err))
		return
	}

	domain, err := urlnorm.Domain(entry.URL)
	if err != nil {
		e.failEntry(ctx, entry, report, fmt.Errorf("extract domain: %w", err))
		return
	}

	merge := repository.CitationMerge{
		NormalizedURL: normalized,
		Domain:        domain,
		Project:       entry.Origin.Project,
		InboxID:       entry.ID,
		SeenAt:        entry.CapturedAt,
		ContentType:   classify.ContentType(normalized),
	}
	if meta := prefetched[normalized]; meta != nil {
		merge.Title = meta.Title
		merge.Description = meta.Description
		merge.Language = meta.Language
	}

	now := time.Now().UTC()
	rescore := func(s *models.StagedSource) float64 {
		days := now.Sub(s.LastSeen).Hours() / 24
		return e.scoring.StagingScore(s, days)
	}

	_, created, err := e.staged.MergeCitation(ctx, merge, rescore)
	if err != nil {
		e.failEntry(ctx, entry, report, fmt.Errorf("merge citation: %w", err))
		return
	}

	if markErr := e.inbox.MarkProcessed(ctx, entry.ID, now); markErr != nil {
		e.failEntry(ctx, entry, report, fmt.Errorf("mark processed: %w", markErr))
		return
	}

	report.Processed++
	if created {
		report.Created++
	} else {
		report.Merged++
	}
}

// failEntry records a per-item failure and marks the entry processed so a
// poisoned entry cannot wedge the batch forever.
func (e *Enricher) failEntry(ctx context.Context, entry *models.InboxEntry, report *Report, cause error) {
	report.ItemFailures++
	report.Errors = append(report.Errors, fmt.Sprintf("entry %s: %v", entry.ID, cause))

	e.logger.Warn("Enrichment failed for entry",
		logger.String("entry_id", entry.ID),
		logger.String("url", entry.URL),
		logger.Error(cause),
	)

	if err := e.inbox.MarkProcessed(ctx, entry.ID, time.Now().UTC()); err != nil {
		e.logger.Error("Failed to mark failed entry processed",
			logger.String("entry_id", entry.ID),
			logger.Error(err),
		)
	}
}
