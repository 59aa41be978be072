// Package jobs runs the background passes on cron schedules: enrichment,
// score recalculation, and link-rot verification.
package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/gocatalog/internal/config"
	"github.com/jonesrussell/gocatalog/internal/enrich"
	"github.com/jonesrussell/gocatalog/internal/linkrot"
	"github.com/jonesrussell/gocatalog/internal/logger"
	"github.com/jonesrussell/gocatalog/internal/promotion"
)

// Enricher runs one enrichment batch.
type Enricher interface {
	Enrich(ctx context.Context) (*enrich.Report, error)
}

// Recalculator runs one full rescoring and promotion pass.
type Recalculator interface {
	RecalculateAll(ctx context.Context) (*promotion.Report, error)
}

// Verifier runs one link-rot verification batch.
type Verifier interface {
	VerifyBatch(ctx context.Context) (*linkrot.Report, error)
}

type Scheduler struct {
	cfg          config.JobsConfig
	cron         *cron.Cron
	enricher     Enricher
	recalculator Recalculator
	verifier     Verifier
	logger       logger.Logger
}

func NewScheduler(
	cfg config.JobsConfig,
	enricher Enricher,
	recalculator Recalculator,
	verifier Verifier,
	log logger.Logger,
) *Scheduler {
	return &Scheduler{
		cfg:          cfg,
		cron:         cron.New(),
		enricher:     enricher,
		recalculator: recalculator,
		verifier:     verifier,
		logger:       log,
	}
}

// Start registers the configured schedules and starts the cron loop. Jobs run
// against ctx so shutdown cancels in-flight passes.
func (s *Scheduler) Start(ctx context.Context) error {
	entries := []struct {
		name     string
		schedule string
		run      func(context.Context) error
	}{
		{"enrich", s.cfg.EnrichSchedule, s.runEnrich},
		{"recalculate", s.cfg.RecalculateSchedule, s.runRecalculate},
		{"linkrot", s.cfg.LinkRotSchedule, s.runLinkRot},
	}

	for _, entry := range entries {
		name, run := entry.name, entry.run
		if _, err := s.cron.AddFunc(entry.schedule, func() {
			if err := run(ctx); err != nil {
				s.logger.Error("Scheduled job failed",
					logger.String("job", name),
					logger.Error(err),
				)
			}
		}); err != nil {
			return fmt.Errorf("schedule %s job (%q): %w", entry.name, entry.schedule, err)
		}
		s.logger.Info("Job scheduled",
			logger.String("job", entry.name),
			logger.String("schedule", entry.schedule),
		)
	}

	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("Job scheduler stopped")
}

func (s *Scheduler) runEnrich(ctx context.Context) error {
	report, err := s.enricher.Enrich(ctx)
	if errors.Is(err, enrich.ErrAlreadyRunning) {
		s.logger.Debug("Enrichment still running, skipping tick")
		return nil
	}
	if err != nil {
		return err
	}
	if report.Processed > 0 {
		s.logger.Info("Scheduled enrichment done",
			logger.Int("processed", report.Processed),
			logger.Int("created", report.Created),
			logger.Int("merged", report.Merged),
		)
	}
	return nil
}

func (s *Scheduler) runRecalculate(ctx context.Context) error {
	report, err := s.recalculator.RecalculateAll(ctx)
	if errors.Is(err, promotion.ErrAlreadyRunning) {
		s.logger.Debug("Recalculation still running, skipping tick")
		return nil
	}
	if err != nil {
		return err
	}
	s.logger.Info("Scheduled recalculation done",
		logger.Int("recalculated", report.Recalculated),
		logger.Int("promoted", report.Promoted),
		logger.Int("demoted", report.Demoted),
	)
	return nil
}

func (s *Scheduler) runLinkRot(ctx context.Context) error {
	report, err := s.verifier.VerifyBatch(ctx)
	if errors.Is(err, linkrot.ErrAlreadyRunning) {
		s.logger.Debug("Verification still running, skipping tick")
		return nil
	}
	if err != nil {
		return err
	}
	if report.Checked > 0 {
		s.logger.Info("Scheduled verification done",
			logger.Int("checked", report.Checked),
			logger.Int("now_inaccessible", report.NowInaccessible),
		)
	}
	return nil
}
