package metadata_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/gocatalog/internal/metadata"
	"github.com/jonesrussell/gocatalog/internal/testhelpers"
)

func newFetcher() *metadata.Fetcher {
	return metadata.NewFetcher(2*time.Second, testhelpers.NewTestLogger())
}

func TestFetchMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<!DOCTYPE html>
<html lang="en-US">
<head>
	<title>Fallback Title</title>
	<meta property="og:title" content="The Go Programming Language">
	<meta name="description" content="Build simple, secure, scalable systems.">
	<meta property="og:type" content="website">
</head>
<body></body>
</html>`))
	}))
	defer server.Close()

	meta, err := newFetcher().FetchMetadata(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "The Go Programming Language", meta.Title, "og:title wins over <title>")
	assert.Equal(t, "Build simple, secure, scalable systems.", meta.Description)
	assert.Equal(t, "website", meta.ContentTypeHint)
	assert.Equal(t, "en", meta.Language, "region subtag is dropped")
}

func TestFetchMetadataTitleFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>  Plain Title  </title></head><body></body></html>`))
	}))
	defer server.Close()

	meta, err := newFetcher().FetchMetadata(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Plain Title", meta.Title)
	assert.Empty(t, meta.Description)
}

func TestFetchMetadataHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newFetcher().FetchMetadata(context.Background(), server.URL)
	require.Error(t, err)

	var fetchErr *metadata.FetchError
	assert.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, server.URL, fetchErr.URL)
}

func TestFetchMetadataNetworkError(t *testing.T) {
	_, err := newFetcher().FetchMetadata(context.Background(), "http://127.0.0.1:1/nothing")
	require.Error(t, err)

	var fetchErr *metadata.FetchError
	assert.True(t, errors.As(err, &fetchErr))
}

func TestProbe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	status, err := newFetcher().Probe(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
}

func TestProbeFallsBackToGet(t *testing.T) {
	var sawGet bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		sawGet = true
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	status, err := newFetcher().Probe(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, sawGet, "405 on HEAD must fall back to GET")
}

func TestProbeReportsClientErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer server.Close()

	status, err := newFetcher().Probe(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusGone, status)
}
