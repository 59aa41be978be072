package ingest_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/gocatalog/internal/ingest"
	"github.com/jonesrussell/gocatalog/internal/models"
	"github.com/jonesrussell/gocatalog/internal/testhelpers"
)

type fakeInboxStore struct {
	entries []*models.InboxEntry
	err     error
}

func (f *fakeInboxStore) Create(_ context.Context, entry *models.InboxEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

func TestCaptureValid(t *testing.T) {
	store := &fakeInboxStore{}
	svc := ingest.NewService(store, testhelpers.NewTestLogger())

	entry, err := svc.Capture(context.Background(), "https://go.dev/doc", models.OriginContext{
		Project: "gocatalog",
	})
	require.NoError(t, err)

	assert.True(t, entry.IsValid)
	assert.Empty(t, entry.ValidationError)
	assert.Equal(t, "https://go.dev/doc", entry.URL)
	assert.False(t, entry.CapturedAt.IsZero())
	require.Len(t, store.entries, 1)
}

func TestCaptureQuarantinesInvalid(t *testing.T) {
	store := &fakeInboxStore{}
	svc := ingest.NewService(store, testhelpers.NewTestLogger())

	tests := []string{
		"ftp://example.com/file",
		"http://localhost:8080/admin",
		"http://192.168.0.1/router",
		"",
	}

	for _, raw := range tests {
		entry, err := svc.Capture(context.Background(), raw, models.OriginContext{})
		require.NoError(t, err, "quarantine must not be an error for %q", raw)
		assert.False(t, entry.IsValid)
		assert.NotEmpty(t, entry.ValidationError)
	}

	// Quarantined entries are stored, not dropped.
	assert.Len(t, store.entries, len(tests))
}

func TestCaptureStorageFailure(t *testing.T) {
	store := &fakeInboxStore{err: errors.New("disk full")}
	svc := ingest.NewService(store, testhelpers.NewTestLogger())

	_, err := svc.Capture(context.Background(), "https://go.dev", models.OriginContext{})
	assert.Error(t, err)
}

func TestCaptureBatch(t *testing.T) {
	store := &fakeInboxStore{}
	svc := ingest.NewService(store, testhelpers.NewTestLogger())

	urls := []string{
		"https://go.dev/doc",
		"https://pkg.go.dev/net/http",
		"ftp://example.com/bad",
	}

	captured, quarantined, failed := svc.CaptureBatch(context.Background(), urls, models.OriginContext{
		Project: "transcript-import",
	})

	assert.Equal(t, 2, captured)
	assert.Equal(t, 1, quarantined)
	assert.Equal(t, 0, failed)
	assert.Len(t, store.entries, 3)
}
