package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/gocatalog/internal/models"
	"github.com/jonesrussell/gocatalog/internal/repository"
	"github.com/jonesrussell/gocatalog/internal/testhelpers"
)

var inboxColumns = []string{
	"id", "url", "origin", "captured_at", "is_valid", "validation_error", "processed_at",
}

func TestInboxCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewInboxRepository(db, testhelpers.NewTestLogger())

	mock.ExpectExec("INSERT INTO inbox_entries").
		WillReturnResult(sqlmock.NewResult(0, 1))

	entry := &models.InboxEntry{
		URL:     "https://go.dev/doc",
		Origin:  models.OriginContext{Project: "gocatalog"},
		IsValid: true,
	}
	require.NoError(t, repo.Create(context.Background(), entry))

	assert.NotEmpty(t, entry.ID, "create assigns an id")
	assert.False(t, entry.CapturedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInboxListUnprocessed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewInboxRepository(db, testhelpers.NewTestLogger())

	now := time.Now().UTC()
	rows := sqlmock.NewRows(inboxColumns).
		AddRow("e1", "https://go.dev/doc", []byte(`{"project":"alpha"}`), now.Add(-time.Hour), true, "", nil).
		AddRow("e2", "https://pkg.go.dev", []byte(`{}`), now, true, "", nil)

	mock.ExpectQuery("FROM inbox_entries").
		WithArgs(50).
		WillReturnRows(rows)

	entries, err := repo.ListUnprocessed(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Capture order is preserved.
	assert.Equal(t, "e1", entries[0].ID)
	assert.Equal(t, "alpha", entries[0].Origin.Project)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInboxMarkProcessed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewInboxRepository(db, testhelpers.NewTestLogger())
	at := time.Now().UTC()

	mock.ExpectExec("UPDATE inbox_entries SET processed_at").
		WithArgs("e1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkProcessed(context.Background(), "e1", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInboxMarkProcessedNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewInboxRepository(db, testhelpers.NewTestLogger())

	mock.ExpectExec("UPDATE inbox_entries SET processed_at").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.MarkProcessed(context.Background(), "missing", time.Now().UTC())
	assert.Error(t, err)
}

func TestInboxPruneProcessed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewInboxRepository(db, testhelpers.NewTestLogger())
	cutoff := time.Now().UTC().AddDate(0, -1, 0)

	mock.ExpectExec("DELETE FROM inbox_entries").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 17))

	pruned, err := repo.PruneProcessed(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(17), pruned)
}
