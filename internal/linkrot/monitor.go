// Package linkrot probes catalog URLs for reachability in the background and
// flips their status. Statuses are advisory: they feed the next scoring pass
// but never trigger demotion directly.
package linkrot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonesrussell/gocatalog/internal/config"
	"github.com/jonesrussell/gocatalog/internal/events"
	"github.com/jonesrussell/gocatalog/internal/logger"
	"github.com/jonesrussell/gocatalog/internal/models"
	"github.com/jonesrussell/gocatalog/internal/retry"
)

// ErrAlreadyRunning is returned when a verification run is invoked while a
// previous run is still in progress.
var ErrAlreadyRunning = errors.New("verification already running")

// failureThreshold is how many consecutive failed probes it takes to flip a
// source to inaccessible. A single transient failure never flips status.
const failureThreshold = 2

// CatalogStore is the catalog persistence the monitor reads and writes.
type CatalogStore interface {
	ListStaleVerified(ctx context.Context, cutoff time.Time, limit int) ([]models.CatalogSource, error)
	SetVerification(ctx context.Context, id string, status models.SourceStatus, consecutiveFailures int, verifiedAt time.Time) error
}

// Prober issues liveness probes.
type Prober interface {
	Probe(ctx context.Context, pageURL string) (int, error)
}

// Pool bounds probe concurrency.
type Pool interface {
	Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error
}

// Report summarizes one verification run.
type Report struct {
	Checked         int `json:"checked"`
	NowActive       int `json:"now_active"`
	NowInaccessible int `json:"now_inaccessible"`
}

type Monitor struct {
	cfg       config.LinkRotConfig
	catalog   CatalogStore
	prober    Prober
	pool      Pool
	publisher *events.Publisher
	logger    logger.Logger
	running   atomic.Bool
}

func NewMonitor(
	cfg config.LinkRotConfig,
	catalog CatalogStore,
	prober Prober,
	pool Pool,
	publisher *events.Publisher,
	log logger.Logger,
) *Monitor {
	return &Monitor{
		cfg:       cfg,
		catalog:   catalog,
		prober:    prober,
		pool:      pool,
		publisher: publisher,
		logger:    log,
	}
}

// VerifyBatch probes catalog sources whose verification is stale, bounded by
// the configured max checks per run. Each source's verification is written in
// its own update, so cancellation between items leaves nothing half-done.
// Returns ErrAlreadyRunning if a previous run has not finished.
func (m *Monitor) VerifyBatch(ctx context.Context) (*Report, error) {
	if !m.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer m.running.Store(false)

	cutoff := time.Now().UTC().Add(-time.Duration(m.cfg.CheckIntervalHours) * time.Hour)
	sources, err := m.catalog.ListStaleVerified(ctx, cutoff, m.cfg.MaxChecksPerRun)
	if err != nil {
		return nil, fmt.Errorf("list stale sources: %w", err)
	}

	report := &Report{}
	var mu sync.Mutex

	runErr := m.pool.Run(ctx, len(sources), func(ctx context.Context, i int) error {
		outcome := m.verifyOne(ctx, &sources[i])

		mu.Lock()
		defer mu.Unlock()
		report.Checked++
		switch {
		case outcome == nil:
		case *outcome == models.StatusActive:
			report.NowActive++
		case *outcome == models.StatusInaccessible:
			report.NowInaccessible++
		}
		return nil
	})
	if runErr != nil {
		return report, runErr
	}

	m.logger.Info("Link-rot verification complete",
		logger.Int("checked", report.Checked),
		logger.Int("now_active", report.NowActive),
		logger.Int("now_inaccessible", report.NowInaccessible),
	)

	return report, nil
}

// verifyOne probes a single source and persists the outcome. Returns the new
// status when it flipped, nil otherwise.
func (m *Monitor) verifyOne(ctx context.Context, source *models.CatalogSource) *models.SourceStatus {
	probeURL := "https://" + source.URLPattern

	statusCode, probeErr := m.probe(ctx, probeURL)
	if probeErr != nil {
		// URL patterns carry no scheme, so an http-only host fails the https
		// probe at the transport layer. Retry over plain http before counting
		// the source as unreachable.
		httpURL := "http://" + source.URLPattern
		if code, err := m.probe(ctx, httpURL); err == nil {
			probeURL, statusCode, probeErr = httpURL, code, nil
		}
	}

	reachable := probeErr == nil && statusCode < 400

	newStatus := source.Status
	failures := source.ConsecutiveFailures
	if reachable {
		failures = 0
		newStatus = models.StatusActive
	} else {
		failures++
		if failures >= failureThreshold {
			newStatus = models.StatusInaccessible
		}
	}

	now := time.Now().UTC()
	if err := m.catalog.SetVerification(ctx, source.ID, newStatus, failures, now); err != nil {
		m.logger.Error("Failed to record verification",
			logger.String("source_id", source.ID),
			logger.Error(err),
		)
		return nil
	}

	if newStatus == source.Status {
		return nil
	}

	reason := fmt.Sprintf("probe status %d", statusCode)
	if probeErr != nil {
		reason = fmt.Sprintf("probe error: %v", probeErr)
	}

	m.logger.Info("Source status changed",
		logger.String("source_id", source.ID),
		logger.String("url", probeURL),
		logger.String("old_status", string(source.Status)),
		logger.String("new_status", string(newStatus)),
		logger.String("reason", reason),
	)

	m.publisher.PublishAsync(events.SourceEvent{
		EventType: events.EventStatusChanged,
		SourceID:  source.ID,
		OldStatus: string(source.Status),
		NewStatus: string(newStatus),
		Reason:    reason,
	})

	return &newStatus
}

func (m *Monitor) probe(ctx context.Context, pageURL string) (int, error) {
	var statusCode int
	err := retry.Retry(ctx, retry.Config{
		MaxAttempts:  2,
		InitialDelay: 500 * time.Millisecond,
	}, func() error {
		probeCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
		defer cancel()

		var probeErr error
		statusCode, probeErr = m.prober.Probe(probeCtx, pageURL)
		return probeErr
	})
	return statusCode, err
}
