package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

const defaultUserAgent = "nextrend-ingest/1.0"

// Scraper fetches an article page and extracts its readable text.
type Scraper struct {
	client    *http.Client
	userAgent string
}

// ScraperOption configures a Scraper.
type ScraperOption func(*Scraper)

// WithScraperClient sets the HTTP client.
func WithScraperClient(c *http.Client) ScraperOption {
	return func(s *Scraper) {
		s.client = c
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ScraperOption {
	return func(s *Scraper) {
		s.userAgent = ua
	}
}

// NewScraper creates a scraper with a 15 second timeout.
func NewScraper(opts ...ScraperOption) *Scraper {
	s := &Scraper{
		client:    &http.Client{Timeout: 15 * time.Second},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scrape returns the readable text of the page at rawURL.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing url %s: %w", rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating scrape request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("scraping %s returned status %d", rawURL, resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		return "", fmt.Errorf("extracting content from %s: %w", rawURL, err)
	}
	return strings.TrimSpace(article.TextContent), nil
}
