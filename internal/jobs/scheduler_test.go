package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/gocatalog/internal/config"
	"github.com/jonesrussell/gocatalog/internal/enrich"
	"github.com/jonesrussell/gocatalog/internal/linkrot"
	"github.com/jonesrussell/gocatalog/internal/promotion"
	"github.com/jonesrussell/gocatalog/internal/testhelpers"
)

type fakeEnricher struct {
	calls int
	err   error
}

func (f *fakeEnricher) Enrich(context.Context) (*enrich.Report, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &enrich.Report{Processed: 2, Created: 1, Merged: 1}, nil
}

type fakeRecalculator struct {
	err error
}

func (f *fakeRecalculator) RecalculateAll(context.Context) (*promotion.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &promotion.Report{Recalculated: 3}, nil
}

type fakeVerifier struct {
	err error
}

func (f *fakeVerifier) VerifyBatch(context.Context) (*linkrot.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &linkrot.Report{Checked: 5}, nil
}

func newTestScheduler(cfg config.JobsConfig, e *fakeEnricher, r *fakeRecalculator, v *fakeVerifier) *Scheduler {
	return NewScheduler(cfg, e, r, v, testhelpers.NewTestLogger())
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := newTestScheduler(config.JobsConfig{
		EnrichSchedule:      "not a schedule",
		RecalculateSchedule: "@daily",
		LinkRotSchedule:     "@every 24h",
	}, &fakeEnricher{}, &fakeRecalculator{}, &fakeVerifier{})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enrich")
}

func TestStartAndStop(t *testing.T) {
	s := newTestScheduler(config.JobsConfig{
		EnrichSchedule:      "@every 1h",
		RecalculateSchedule: "@daily",
		LinkRotSchedule:     "@every 24h",
	}, &fakeEnricher{}, &fakeRecalculator{}, &fakeVerifier{})

	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}

func TestRunEnrichSkipsWhenAlreadyRunning(t *testing.T) {
	e := &fakeEnricher{err: enrich.ErrAlreadyRunning}
	s := newTestScheduler(config.JobsConfig{}, e, &fakeRecalculator{}, &fakeVerifier{})

	// An overlapping tick is a skip, not a failure.
	assert.NoError(t, s.runEnrich(context.Background()))
	assert.Equal(t, 1, e.calls)
}

func TestRunJobsPropagateFailures(t *testing.T) {
	boom := errors.New("db down")
	s := newTestScheduler(config.JobsConfig{},
		&fakeEnricher{err: boom},
		&fakeRecalculator{err: boom},
		&fakeVerifier{err: boom},
	)

	assert.ErrorIs(t, s.runEnrich(context.Background()), boom)
	assert.ErrorIs(t, s.runRecalculate(context.Background()), boom)
	assert.ErrorIs(t, s.runLinkRot(context.Background()), boom)
}

func TestRunJobsSucceed(t *testing.T) {
	s := newTestScheduler(config.JobsConfig{},
		&fakeEnricher{},
		&fakeRecalculator{},
		&fakeVerifier{},
	)

	assert.NoError(t, s.runEnrich(context.Background()))
	assert.NoError(t, s.runRecalculate(context.Background()))
	assert.NoError(t, s.runLinkRot(context.Background()))
}
