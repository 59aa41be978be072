package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/gocatalog/internal/handlers"
	"github.com/jonesrussell/gocatalog/internal/models"
	"github.com/jonesrussell/gocatalog/internal/ranking"
	"github.com/jonesrussell/gocatalog/internal/testhelpers"
)

type fakeCatalogReader struct {
	topN     int
	theme    string
	minDays  int
	sources  []models.CatalogSource
	err      error
	minRec   int
	windowDs int
}

func (f *fakeCatalogReader) ListByTheme(_ context.Context, theme string, limit int) ([]models.CatalogSource, error) {
	f.theme = theme
	f.topN = limit
	return f.sources, f.err
}

func (f *fakeCatalogReader) ListTop(_ context.Context, n int) ([]models.CatalogSource, error) {
	f.topN = n
	return f.sources, f.err
}

func (f *fakeCatalogReader) ListDormant(_ context.Context, minDays int) ([]models.CatalogSource, error) {
	f.minDays = minDays
	return f.sources, f.err
}

func (f *fakeCatalogReader) ListEmerging(_ context.Context, minRecent, windowDays int) ([]models.CatalogSource, error) {
	f.minRec = minRecent
	f.windowDs = windowDays
	return f.sources, f.err
}

type fakeStagedReader struct {
	minScore float64
	limit    int
	sources  []models.StagedSource
	err      error
}

func (f *fakeStagedReader) ListNearThreshold(_ context.Context, minScore float64, limit int) ([]models.StagedSource, error) {
	f.minScore = minScore
	f.limit = limit
	return f.sources, f.err
}

func newRankingRouter(catalog *fakeCatalogReader, staged *fakeStagedReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := testhelpers.NewTestLogger()
	svc := ranking.NewService(catalog, staged, log)
	h := handlers.NewRankingHandler(svc, log)

	r := gin.New()
	r.GET("/rankings/top", h.Top)
	r.GET("/rankings/themes/:theme", h.ByTheme)
	r.GET("/rankings/dormant", h.Dormant)
	r.GET("/rankings/emerging", h.Emerging)
	r.GET("/rankings/discovery", h.Discovery)
	return r
}

func doGet(t *testing.T, r *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)

	var body map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestRankingTop(t *testing.T) {
	catalog := &fakeCatalogReader{sources: []models.CatalogSource{
		{ID: "cat-1", URLPattern: "go.dev", Score: 72.5},
		{ID: "cat-2", URLPattern: "pkg.go.dev", Score: 61.0},
	}}
	r := newRankingRouter(catalog, &fakeStagedReader{})

	w, body := doGet(t, r, "/rankings/top")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 2, body["count"], 0.001)
	assert.Equal(t, 20, catalog.topN, "default limit applies")
}

func TestRankingTopCustomLimit(t *testing.T) {
	catalog := &fakeCatalogReader{}
	r := newRankingRouter(catalog, &fakeStagedReader{})

	w, _ := doGet(t, r, "/rankings/top?limit=5")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, catalog.topN)
}

func TestRankingTopInvalidLimit(t *testing.T) {
	r := newRankingRouter(&fakeCatalogReader{}, &fakeStagedReader{})

	w, body := doGet(t, r, "/rankings/top?limit=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "limit")

	w, _ = doGet(t, r, "/rankings/top?limit=0")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRankingByTheme(t *testing.T) {
	catalog := &fakeCatalogReader{sources: []models.CatalogSource{
		{ID: "cat-1", URLPattern: "go.dev"},
	}}
	r := newRankingRouter(catalog, &fakeStagedReader{})

	w, body := doGet(t, r, "/rankings/themes/golang")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "golang", body["theme"])
	assert.Equal(t, "golang", catalog.theme)
}

func TestRankingDormantDefaults(t *testing.T) {
	catalog := &fakeCatalogReader{}
	r := newRankingRouter(catalog, &fakeStagedReader{})

	w, _ := doGet(t, r, "/rankings/dormant")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 90, catalog.minDays)

	w, _ = doGet(t, r, "/rankings/dormant?min_days=30")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 30, catalog.minDays)
}

func TestRankingEmergingDefaults(t *testing.T) {
	catalog := &fakeCatalogReader{}
	r := newRankingRouter(catalog, &fakeStagedReader{})

	w, _ := doGet(t, r, "/rankings/emerging")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, catalog.minRec)
	assert.Equal(t, 30, catalog.windowDs)
}

func TestRankingDiscovery(t *testing.T) {
	staged := &fakeStagedReader{sources: []models.StagedSource{
		{ID: "stg-1", NormalizedURL: "go.dev/blog", StagingScore: 24.0},
	}}
	r := newRankingRouter(&fakeCatalogReader{}, staged)

	w, body := doGet(t, r, "/rankings/discovery?min_score=25.5&limit=10")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 1, body["count"], 0.001)
	assert.InDelta(t, 25.5, staged.minScore, 0.001)
	assert.Equal(t, 10, staged.limit)
}

func TestRankingDiscoveryInvalidScore(t *testing.T) {
	r := newRankingRouter(&fakeCatalogReader{}, &fakeStagedReader{})

	w, _ := doGet(t, r, "/rankings/discovery?min_score=-3")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRankingReadFailure(t *testing.T) {
	catalog := &fakeCatalogReader{err: errors.New("db down")}
	r := newRankingRouter(catalog, &fakeStagedReader{})

	w, body := doGet(t, r, "/rankings/top")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, body["error"])
}
