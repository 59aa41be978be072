// Package promotion moves sources between the staging tier and the curated
// catalog: threshold-based promotion, demotion, idempotent seeding, and the
// periodic full recomputation pass.
package promotion

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jonesrussell/gocatalog/internal/config"
	"github.com/jonesrussell/gocatalog/internal/events"
	"github.com/jonesrussell/gocatalog/internal/logger"
	"github.com/jonesrussell/gocatalog/internal/models"
	"github.com/jonesrussell/gocatalog/internal/repository"
	"github.com/jonesrussell/gocatalog/internal/scoring"
	"github.com/jonesrussell/gocatalog/internal/urlnorm"
)

var (
	// ErrAlreadyRunning is returned when RecalculateAll is invoked while a
	// previous pass is still in progress.
	ErrAlreadyRunning = errors.New("recalculation already running")

	// ErrSeedProtected is returned when automatic demotion reaches a seed.
	ErrSeedProtected = errors.New("seed sources are never demoted automatically")
)

// StagedStore is the silver-tier persistence the manager reads and writes.
type StagedStore interface {
	GetByID(ctx context.Context, id string) (*models.StagedSource, error)
	ListUnpromoted(ctx context.Context) ([]models.StagedSource, error)
	UpdateScore(ctx context.Context, id string, score float64) error
	SetPromotion(ctx context.Context, stagedID, catalogID string, at time.Time) error
	ClearPromotion(ctx context.Context, stagedID string) error
	GetByPromotedTo(ctx context.Context, catalogID string) (*models.StagedSource, error)
}

// CatalogStore is the gold-tier persistence the manager reads and writes.
type CatalogStore interface {
	Create(ctx context.Context, source *models.CatalogSource) error
	GetByID(ctx context.Context, id string) (*models.CatalogSource, error)
	GetByURLPattern(ctx context.Context, pattern string) (*models.CatalogSource, error)
	Update(ctx context.Context, source *models.CatalogSource) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.CatalogSource, error)
	UpdateScore(ctx context.Context, id string, score, citationQuality float64) error
	CoCitedSources(ctx context.Context, sourceID string) ([]models.CatalogSource, error)
	AddThemeTag(ctx context.Context, sourceID, theme string) error
}

// RoleClassifier assigns a role at promotion time.
type RoleClassifier interface {
	Classify(ctx context.Context, domain string) (models.Role, error)
}

// Report summarizes a promotion or recalculation pass.
type Report struct {
	Promoted     int      `json:"promoted"`
	Demoted      int      `json:"demoted"`
	Recalculated int      `json:"recalculated"`
	Errors       []string `json:"errors,omitempty"`
}

type Manager struct {
	cfg        config.PromotionConfig
	scoring    scoring.Config
	staged     StagedStore
	catalog    CatalogStore
	classifier RoleClassifier
	publisher  *events.Publisher
	logger     logger.Logger
	running    atomic.Bool
}

func NewManager(
	cfg config.PromotionConfig,
	scoringCfg scoring.Config,
	staged StagedStore,
	catalog CatalogStore,
	classifier RoleClassifier,
	publisher *events.Publisher,
	log logger.Logger,
) *Manager {
	return &Manager{
		cfg:        cfg,
		scoring:    scoringCfg,
		staged:     staged,
		catalog:    catalog,
		classifier: classifier,
		publisher:  publisher,
		logger:     log,
	}
}

// eligible reports whether a staged source meets all automatic promotion
// criteria: enough citations, a sufficient score, and recent use.
func (m *Manager) eligible(source *models.StagedSource, now time.Time) bool {
	if source.CitationCount < m.cfg.UsageThreshold {
		return false
	}
	if source.StagingScore < m.cfg.ScoreThreshold {
		return false
	}
	recencyCutoff := now.AddDate(0, 0, -m.cfg.RecencyDays)
	return !source.LastSeen.Before(recencyCutoff)
}

// PromoteEligible runs the automatic promotion pass over all unpromoted
// staged sources. Per-source failures are accumulated, not fatal.
func (m *Manager) PromoteEligible(ctx context.Context) (*Report, error) {
	staged, err := m.staged.ListUnpromoted(ctx)
	if err != nil {
		return nil, fmt.Errorf("list staged sources: %w", err)
	}

	report := &Report{}
	now := time.Now().UTC()

	for i := range staged {
		if !m.eligible(&staged[i], now) {
			continue
		}
		if _, promoteErr := m.promote(ctx, &staged[i], "automatic promotion: thresholds met"); promoteErr != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("promote %s: %v", staged[i].ID, promoteErr))
			continue
		}
		report.Promoted++
	}

	return report, nil
}

// Promote promotes a staged source by id, bypassing the automatic thresholds.
func (m *Manager) Promote(ctx context.Context, stagedID string) (*models.CatalogSource, error) {
	source, err := m.staged.GetByID(ctx, stagedID)
	if err != nil {
		return nil, fmt.Errorf("load staged source: %w", err)
	}
	if source.IsPromoted() {
		return nil, fmt.Errorf("staged source %s is already promoted", stagedID)
	}
	return m.promote(ctx, source, "manual promotion")
}

func (m *Manager) promote(ctx context.Context, source *models.StagedSource, reason string) (*models.CatalogSource, error) {
	role, err := m.classifier.Classify(ctx, source.Domain)
	if err != nil {
		m.logger.Warn("Role classification failed, promoting unclassified",
			logger.String("domain", source.Domain),
			logger.Error(err),
		)
		role = models.RoleUnclassified
	}

	promoted := &models.CatalogSource{
		Domain:                source.Domain,
		URLPattern:            source.NormalizedURL,
		UsageCount:            source.CitationCount,
		LastUsed:              source.LastSeen,
		Score:                 source.StagingScore,
		Reliability:           models.ReliabilityB,
		DecayClass:            decayClassFor(source.ContentType),
		Role:                  role,
		IsSeed:                false,
		CitationQualityFactor: scoring.DefaultCitationQuality,
		Status:                models.StatusActive,
	}

	if err := m.catalog.Create(ctx, promoted); err != nil {
		return nil, fmt.Errorf("create catalog source: %w", err)
	}

	now := time.Now().UTC()
	if err := m.staged.SetPromotion(ctx, source.ID, promoted.ID, now); err != nil {
		return nil, fmt.Errorf("set promotion backlink: %w", err)
	}

	m.logger.Info("Source promoted to catalog",
		logger.String("staged_id", source.ID),
		logger.String("catalog_id", promoted.ID),
		logger.String("domain", source.Domain),
		logger.Float64("score", source.StagingScore),
	)

	m.publisher.PublishAsync(events.SourceEvent{
		EventType: events.EventPromoted,
		SourceID:  promoted.ID,
		OldStatus: "staged",
		NewStatus: "catalog",
		Reason:    reason,
	})

	return promoted, nil
}

// Demote moves a catalog source back to staging. Seeds are refused unless
// forced by an explicit operator action.
func (m *Manager) Demote(ctx context.Context, catalogID, reason string, force bool) error {
	source, err := m.catalog.GetByID(ctx, catalogID)
	if err != nil {
		return fmt.Errorf("load catalog source: %w", err)
	}

	if source.IsSeed && !force {
		return ErrSeedProtected
	}

	staged, err := m.staged.GetByPromotedTo(ctx, catalogID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("load staged backlink: %w", err)
	}
	if staged != nil {
		if clearErr := m.staged.ClearPromotion(ctx, staged.ID); clearErr != nil {
			return fmt.Errorf("clear promotion backlink: %w", clearErr)
		}
	}

	if err := m.catalog.Delete(ctx, catalogID); err != nil {
		return fmt.Errorf("delete catalog source: %w", err)
	}

	m.logger.Info("Source demoted to staging",
		logger.String("catalog_id", catalogID),
		logger.String("domain", source.Domain),
		logger.String("reason", reason),
	)

	m.publisher.PublishAsync(events.SourceEvent{
		EventType: events.EventDemoted,
		SourceID:  catalogID,
		OldStatus: "catalog",
		NewStatus: "staged",
		Reason:    reason,
	})

	return nil
}

// SeedSource is a bulk-imported, pre-trusted catalog entry.
type SeedSource struct {
	URL         string
	Reliability models.Reliability
	DecayClass  models.DecayClass
	Role        models.Role
	Themes      []string
}

// Seed creates or updates a seed catalog source, idempotent by normalized URL:
// re-seeding an existing source updates its metadata and never duplicates.
// Seeds skip the staging tier entirely and are permanent once imported.
// The boolean result reports whether a new catalog source was created.
func (m *Manager) Seed(ctx context.Context, seed SeedSource) (*models.CatalogSource, bool, error) {
	if !seed.Reliability.Valid() {
		return nil, false, fmt.Errorf("invalid reliability %q", seed.Reliability)
	}
	if !seed.DecayClass.Valid() {
		return nil, false, fmt.Errorf("invalid decay class %q", seed.DecayClass)
	}
	if !seed.Role.Valid() {
		return nil, false, fmt.Errorf("invalid role %q", seed.Role)
	}

	normalized, err := urlnorm.Normalize(seed.URL)
	if err != nil {
		return nil, false, fmt.Errorf("normalize seed url: %w", err)
	}
	domain, err := urlnorm.Domain(seed.URL)
	if err != nil {
		return nil, false, fmt.Errorf("extract seed domain: %w", err)
	}

	existing, err := m.catalog.GetByURLPattern(ctx, normalized)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, false, fmt.Errorf("lookup seed by url: %w", err)
	}

	if existing != nil {
		existing.Domain = domain
		existing.Reliability = seed.Reliability
		existing.DecayClass = seed.DecayClass
		existing.Role = seed.Role
		existing.IsSeed = true
		if updateErr := m.catalog.Update(ctx, existing); updateErr != nil {
			return nil, false, fmt.Errorf("update seed: %w", updateErr)
		}
		m.tagThemes(ctx, existing.ID, seed.Themes)

		m.publisher.PublishAsync(events.SourceEvent{
			EventType: events.EventSeeded,
			SourceID:  existing.ID,
			Reason:    "re-seed: metadata updated",
		})
		return existing, false, nil
	}

	created := &models.CatalogSource{
		Domain:                domain,
		URLPattern:            normalized,
		UsageCount:            0,
		LastUsed:              time.Now().UTC(),
		Score:                 0,
		Reliability:           seed.Reliability,
		DecayClass:            seed.DecayClass,
		Role:                  seed.Role,
		IsSeed:                true,
		CitationQualityFactor: scoring.DefaultCitationQuality,
		Status:                models.StatusActive,
	}
	created.Score = m.scoring.Score(scoring.Inputs{
		UsageCount:      created.UsageCount,
		DecayClass:      created.DecayClass,
		Reliability:     created.Reliability,
		Role:            created.Role,
		CitationQuality: created.CitationQualityFactor,
		IsSeed:          true,
	})

	if err := m.catalog.Create(ctx, created); err != nil {
		return nil, false, fmt.Errorf("create seed: %w", err)
	}
	m.tagThemes(ctx, created.ID, seed.Themes)

	m.logger.Info("Seed source imported",
		logger.String("catalog_id", created.ID),
		logger.String("domain", created.Domain),
	)

	m.publisher.PublishAsync(events.SourceEvent{
		EventType: events.EventSeeded,
		SourceID:  created.ID,
		Reason:    "seed imported",
	})

	return created, true, nil
}

// tagThemes applies theme tags best-effort; tag failures never fail a seed.
func (m *Manager) tagThemes(ctx context.Context, sourceID string, themes []string) {
	for _, theme := range themes {
		if err := m.catalog.AddThemeTag(ctx, sourceID, theme); err != nil {
			m.logger.Warn("Failed to tag seed source",
				logger.String("source_id", sourceID),
				logger.String("theme", theme),
				logger.Error(err),
			)
		}
	}
}

// RecalculateAll re-scores every catalog and staged source and re-applies the
// promotion and demotion rules in one pass. Safe to run alongside ingestion:
// each update is a single-record write, and concurrent citation merges land
// through their own transactions. Returns ErrAlreadyRunning if a previous
// pass has not finished.
func (m *Manager) RecalculateAll(ctx context.Context) (*Report, error) {
	if !m.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer m.running.Store(false)

	report := &Report{}
	now := time.Now().UTC()

	if err := m.recalculateCatalog(ctx, now, report); err != nil {
		return report, err
	}
	if err := m.recalculateStaged(ctx, now, report); err != nil {
		return report, err
	}

	promoted, err := m.PromoteEligible(ctx)
	if err != nil {
		return report, fmt.Errorf("promotion pass: %w", err)
	}
	report.Promoted += promoted.Promoted
	report.Errors = append(report.Errors, promoted.Errors...)

	m.logger.Info("Recalculation pass complete",
		logger.Int("recalculated", report.Recalculated),
		logger.Int("promoted", report.Promoted),
		logger.Int("demoted", report.Demoted),
	)

	return report, nil
}

func (m *Manager) recalculateCatalog(ctx context.Context, now time.Time, report *Report) error {
	sources, err := m.catalog.List(ctx)
	if err != nil {
		return fmt.Errorf("list catalog sources: %w", err)
	}

	for i := range sources {
		source := &sources[i]

		coCited, coErr := m.catalog.CoCitedSources(ctx, source.ID)
		if coErr != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("co-cited %s: %v", source.ID, coErr))
			continue
		}
		quality := scoring.CitationQuality(coCited)

		days := now.Sub(source.LastUsed).Hours() / 24
		score := m.scoring.Score(scoring.Inputs{
			UsageCount:       source.UsageCount,
			DaysSinceLastUse: days,
			DecayClass:       source.DecayClass,
			Reliability:      source.Reliability,
			Role:             source.Role,
			CitationQuality:  quality,
			IsSeed:           source.IsSeed,
		})
		if source.Status == models.StatusInaccessible {
			score *= m.scoring.InaccessiblePenalty
		}

		if updateErr := m.catalog.UpdateScore(ctx, source.ID, score, quality); updateErr != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("rescore %s: %v", source.ID, updateErr))
			continue
		}
		report.Recalculated++

		if source.IsSeed {
			continue // seeds are permanent once imported
		}

		if m.belowDemotionCriteria(source, score, now) {
			reason := fmt.Sprintf("automatic demotion: score %.1f, usage %d, last used %s",
				score, source.UsageCount, source.LastUsed.Format(time.DateOnly))
			if demoteErr := m.Demote(ctx, source.ID, reason, false); demoteErr != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("demote %s: %v", source.ID, demoteErr))
				continue
			}
			report.Demoted++
		}
	}

	return nil
}

func (m *Manager) belowDemotionCriteria(source *models.CatalogSource, score float64, now time.Time) bool {
	if source.UsageCount < m.cfg.UsageThreshold {
		return true
	}
	if score < m.cfg.ScoreThreshold {
		return true
	}
	recencyCutoff := now.AddDate(0, 0, -m.cfg.RecencyDays)
	return source.LastUsed.Before(recencyCutoff)
}

func (m *Manager) recalculateStaged(ctx context.Context, now time.Time, report *Report) error {
	staged, err := m.staged.ListUnpromoted(ctx)
	if err != nil {
		return fmt.Errorf("list staged sources: %w", err)
	}

	for i := range staged {
		days := now.Sub(staged[i].LastSeen).Hours() / 24
		score := m.scoring.StagingScore(&staged[i], days)

		if updateErr := m.staged.UpdateScore(ctx, staged[i].ID, score); updateErr != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("rescore staged %s: %v", staged[i].ID, updateErr))
			continue
		}
		report.Recalculated++
	}

	return nil
}

// decayClassFor maps content types to decay classes: durable references decay
// slowly, discussion content decays fast.
func decayClassFor(contentType models.ContentType) models.DecayClass {
	switch contentType {
	case models.ContentDocumentation, models.ContentPaper:
		return models.DecaySlow
	case models.ContentBlog, models.ContentForum:
		return models.DecayFast
	default:
		return models.DecayMedium
	}
}
