// Package metadata fetches page metadata for enrichment and probes URL
// liveness for the link-rot monitor.
package metadata

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/gocatalog/internal/httpx"
	"github.com/jonesrussell/gocatalog/internal/logger"
)

const userAgent = "Mozilla/5.0 (compatible; GoCatalog/1.0)"

// FetchError wraps a network or protocol failure against a single URL.
// Batch jobs record it per item instead of aborting.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// PageMetadata is the advisory metadata extracted from a page. All fields may
// be empty; scoring does not depend on them.
type PageMetadata struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	ContentTypeHint string `json:"content_type_hint"`
	Language        string `json:"language"`
}

// Fetcher retrieves page metadata and probes liveness.
type Fetcher struct {
	logger logger.Logger
	client *http.Client
}

// NewFetcher creates a fetcher whose requests time out after the given
// duration.
func NewFetcher(timeout time.Duration, log logger.Logger) *Fetcher {
	return &Fetcher{
		logger: log,
		client: httpx.NewClient(&httpx.ClientConfig{
			Timeout: timeout,
		}),
	}
}

// FetchMetadata retrieves a page and extracts its title, description, content
// type hint, and declared language. Returns a *FetchError on any network or
// HTTP failure.
func (f *Fetcher) FetchMetadata(ctx context.Context, pageURL string) (*PageMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: pageURL, Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: fmt.Errorf("parse html: %w", err)}
	}

	meta := &PageMetadata{
		Title:           extractTitle(doc),
		Description:     extractDescription(doc),
		ContentTypeHint: extractContentTypeHint(doc),
		Language:        extractLanguage(doc),
	}

	f.logger.Debug("Metadata extracted",
		logger.String("url", pageURL),
		logger.String("title", meta.Title),
	)

	return meta, nil
}

func extractTitle(doc *goquery.Document) string {
	if ogTitle, exists := doc.Find("meta[property='og:title']").Attr("content"); exists && ogTitle != "" {
		return strings.TrimSpace(ogTitle)
	}
	if title := doc.Find("title").First().Text(); title != "" {
		return strings.TrimSpace(title)
	}
	if ogSite, exists := doc.Find("meta[property='og:site_name']").Attr("content"); exists {
		return strings.TrimSpace(ogSite)
	}
	return ""
}

func extractDescription(doc *goquery.Document) string {
	if desc, exists := doc.Find("meta[name='description']").Attr("content"); exists && desc != "" {
		return strings.TrimSpace(desc)
	}
	if ogDesc, exists := doc.Find("meta[property='og:description']").Attr("content"); exists {
		return strings.TrimSpace(ogDesc)
	}
	return ""
}

func extractContentTypeHint(doc *goquery.Document) string {
	if ogType, exists := doc.Find("meta[property='og:type']").Attr("content"); exists {
		return strings.TrimSpace(ogType)
	}
	return ""
}

func extractLanguage(doc *goquery.Document) string {
	if lang, exists := doc.Find("html").Attr("lang"); exists {
		// "en-US" -> "en"
		if idx := strings.IndexByte(lang, '-'); idx > 0 {
			lang = lang[:idx]
		}
		return strings.ToLower(strings.TrimSpace(lang))
	}
	return ""
}

// Probe issues a HEAD request against the URL and returns the status code,
// falling back to GET for servers that reject HEAD. Network failures are
// returned as *FetchError.
func (f *Fetcher) Probe(ctx context.Context, pageURL string) (int, error) {
	status, err := f.do(ctx, http.MethodHead, pageURL)
	if err != nil {
		return 0, err
	}

	if status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented {
		return f.do(ctx, http.MethodGet, pageURL)
	}

	return status, nil
}

func (f *Fetcher) do(ctx context.Context, method, pageURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, pageURL, http.NoBody)
	if err != nil {
		return 0, &FetchError{URL: pageURL, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, &FetchError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	return resp.StatusCode, nil
}
