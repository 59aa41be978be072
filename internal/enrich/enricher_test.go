package enrich_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/gocatalog/internal/config"
	"github.com/jonesrussell/gocatalog/internal/enrich"
	"github.com/jonesrussell/gocatalog/internal/metadata"
	"github.com/jonesrussell/gocatalog/internal/models"
	"github.com/jonesrussell/gocatalog/internal/repository"
	"github.com/jonesrussell/gocatalog/internal/scoring"
	"github.com/jonesrussell/gocatalog/internal/testhelpers"
	"github.com/jonesrussell/gocatalog/internal/worker"
)

type fakeInbox struct {
	entries   []models.InboxEntry
	processed map[string]bool
}

func newFakeInbox(entries ...models.InboxEntry) *fakeInbox {
	return &fakeInbox{entries: entries, processed: make(map[string]bool)}
}

func (f *fakeInbox) ListUnprocessed(_ context.Context, limit int) ([]models.InboxEntry, error) {
	if limit > len(f.entries) {
		limit = len(f.entries)
	}
	return f.entries[:limit], nil
}

func (f *fakeInbox) MarkProcessed(_ context.Context, id string, _ time.Time) error {
	f.processed[id] = true
	return nil
}

// fakeStaged applies the same merge semantics as the SQL implementation, in
// memory: one record per normalized URL, commutative counter merges.
type fakeStaged struct {
	mu      sync.Mutex
	byURL   map[string]*models.StagedSource
	nextID  int
	failURL string
}

func newFakeStaged() *fakeStaged {
	return &fakeStaged{byURL: make(map[string]*models.StagedSource)}
}

func (f *fakeStaged) GetByNormalizedURL(_ context.Context, normalizedURL string) (*models.StagedSource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.byURL[normalizedURL]; ok {
		return s, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStaged) MergeCitation(
	_ context.Context,
	merge repository.CitationMerge,
	rescore func(*models.StagedSource) float64,
) (*models.StagedSource, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if merge.NormalizedURL == f.failURL {
		return nil, false, errors.New("merge failed")
	}

	source, ok := f.byURL[merge.NormalizedURL]
	created := !ok
	if !ok {
		f.nextID++
		source = &models.StagedSource{
			NormalizedURL: merge.NormalizedURL,
			Domain:        merge.Domain,
			ContentType:   merge.ContentType,
			FirstSeen:     merge.SeenAt,
		}
		f.byURL[merge.NormalizedURL] = source
	}

	source.CitationCount++
	if merge.SeenAt.After(source.LastSeen) {
		source.LastSeen = merge.SeenAt
	}
	if merge.Project != "" && !source.Projects.Contains(merge.Project) {
		source.Projects = append(source.Projects, merge.Project)
	}
	source.DistinctProjectCount = len(source.Projects)
	source.SourceInboxIDs = append(source.SourceInboxIDs, merge.InboxID)
	if merge.Title != "" {
		source.Title = merge.Title
	}
	source.StagingScore = rescore(source)

	return source, created, nil
}

type fakeFetcher struct {
	mu      sync.Mutex
	meta    map[string]*metadata.PageMetadata
	err     error
	fetched []string
}

func (f *fakeFetcher) FetchMetadata(_ context.Context, pageURL string) (*metadata.PageMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, pageURL)
	if f.err != nil {
		return nil, f.err
	}
	if m, ok := f.meta[pageURL]; ok {
		return m, nil
	}
	return &metadata.PageMetadata{}, nil
}

func newEnricher(inbox *fakeInbox, staged *fakeStaged, fetcher *fakeFetcher) *enrich.Enricher {
	pool, err := worker.NewPool(2)
	if err != nil {
		panic(err)
	}
	return enrich.NewEnricher(
		enrich.Config{BatchSize: 50, FetchTimeout: time.Second},
		inbox, staged, fetcher,
		scoring.NewConfig(config.DecayConfig{FastDays: 90, MediumDays: 180, SlowDays: 365}),
		pool,
		testhelpers.NewTestLogger(),
	)
}

func entry(id, url, project string, capturedAt time.Time) models.InboxEntry {
	return models.InboxEntry{
		ID:         id,
		URL:        url,
		Origin:     models.OriginContext{Project: project},
		CapturedAt: capturedAt,
		IsValid:    true,
	}
}

func TestEnrichDeduplicates(t *testing.T) {
	now := time.Now().UTC()

	// Five citations of the same page in different shapes, across two projects.
	inbox := newFakeInbox(
		entry("e1", "https://www.example.com/Guide/", "alpha", now.Add(-4*time.Hour)),
		entry("e2", "http://example.com/guide", "alpha", now.Add(-3*time.Hour)),
		entry("e3", "https://example.com/guide/", "beta", now.Add(-2*time.Hour)),
		entry("e4", "HTTPS://EXAMPLE.COM/guide", "beta", now.Add(-time.Hour)),
		entry("e5", "https://example.com/guide", "alpha", now),
	)
	staged := newFakeStaged()
	fetcher := &fakeFetcher{}

	report, err := newEnricher(inbox, staged, fetcher).Enrich(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, report.Processed)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 4, report.Merged)

	require.Len(t, staged.byURL, 1)
	source := staged.byURL["example.com/guide"]
	require.NotNil(t, source)
	assert.Equal(t, 5, source.CitationCount)
	assert.Equal(t, 2, source.DistinctProjectCount)
	assert.Equal(t, "example.com", source.Domain)
	assert.Greater(t, source.StagingScore, 0.0)

	// One metadata fetch for the whole group, not one per citation.
	assert.Len(t, fetcher.fetched, 1)

	for _, id := range []string{"e1", "e2", "e3", "e4", "e5"} {
		assert.True(t, inbox.processed[id], "entry %s should be marked processed", id)
	}
}

func TestEnrichSkipsFetchForKnownSources(t *testing.T) {
	now := time.Now().UTC()
	staged := newFakeStaged()
	staged.byURL["example.com/guide"] = &models.StagedSource{
		NormalizedURL: "example.com/guide",
		Domain:        "example.com",
		CitationCount: 3,
	}

	inbox := newFakeInbox(entry("e1", "https://example.com/guide", "alpha", now))
	fetcher := &fakeFetcher{}

	report, err := newEnricher(inbox, staged, fetcher).Enrich(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Merged)
	assert.Empty(t, fetcher.fetched, "already-staged URLs must not be re-fetched")
	assert.Equal(t, 4, staged.byURL["example.com/guide"].CitationCount)
}

func TestEnrichFetchFailureDegrades(t *testing.T) {
	now := time.Now().UTC()
	inbox := newFakeInbox(entry("e1", "https://example.com/guide", "alpha", now))
	staged := newFakeStaged()
	fetcher := &fakeFetcher{err: errors.New("connection timed out")}

	report, err := newEnricher(inbox, staged, fetcher).Enrich(context.Background())
	require.NoError(t, err)

	// The source is still created, just without metadata.
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.FetchFailures)
	require.Len(t, staged.byURL, 1)
	assert.Empty(t, staged.byURL["example.com/guide"].Title)
}

func TestEnrichPoisonedEntryDoesNotWedge(t *testing.T) {
	now := time.Now().UTC()
	inbox := newFakeInbox(
		entry("bad", "https://bad.example.com/x", "alpha", now.Add(-time.Hour)),
		entry("good", "https://example.com/guide", "alpha", now),
	)
	staged := newFakeStaged()
	staged.failURL = "bad.example.com/x"
	fetcher := &fakeFetcher{}

	report, err := newEnricher(inbox, staged, fetcher).Enrich(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.ItemFailures)
	assert.Equal(t, 1, report.Created)
	assert.True(t, inbox.processed["bad"], "failed entry must still be marked processed")
	assert.True(t, inbox.processed["good"])
}

func TestEnrichReentrancyGuard(t *testing.T) {
	inbox := newFakeInbox()
	e := newEnricher(inbox, newFakeStaged(), &fakeFetcher{})

	report, err := e.Enrich(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Processed)

	// Guard is released after a run completes.
	_, err = e.Enrich(context.Background())
	assert.NoError(t, err)
}
