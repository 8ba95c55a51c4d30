package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jimdaga/nextrend/internal/models"
	"github.com/jimdaga/nextrend/internal/sources"
	"github.com/mmcdole/gofeed"
)

// MinBodyLength is the body size below which the article page is scraped.
const MinBodyLength = 500

const excerptLength = 300

// Result summarizes one refresh run.
type Result struct {
	Feeds   int
	Fetched int
	Created int
	Updated int
	Indexed uint64
	Errors  []error
}

// Refresher fetches every configured feed and upserts the items it finds.
type Refresher struct {
	store   *sources.Store
	index   *sources.Index
	parser  *gofeed.Parser
	scraper *Scraper
	feeds   []Feed
	logger  *slog.Logger
}

// NewRefresher creates a refresher. index may be nil.
func NewRefresher(store *sources.Store, index *sources.Index, feeds []Feed, scraper *Scraper, logger *slog.Logger) *Refresher {
	if scraper == nil {
		scraper = NewScraper()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		store:   store,
		index:   index,
		parser:  gofeed.NewParser(),
		scraper: scraper,
		feeds:   feeds,
		logger:  logger,
	}
}

type fetched struct {
	feed  Feed
	items []*gofeed.Item
	err   error
}

// Refresh fetches all feeds concurrently, stores their items and rebuilds the
// search index. A failing feed is recorded in Result.Errors and skipped.
func (r *Refresher) Refresh(ctx context.Context) (Result, error) {
	res := Result{Feeds: len(r.feeds)}

	results := make([]fetched, len(r.feeds))
	var wg sync.WaitGroup
	for i, f := range r.feeds {
		wg.Add(1)
		go func(i int, f Feed) {
			defer wg.Done()
			feed, err := r.parser.ParseURLWithContext(f.URL, ctx)
			if err != nil {
				results[i] = fetched{feed: f, err: fmt.Errorf("fetching %s: %w", f.Name, err)}
				return
			}
			results[i] = fetched{feed: f, items: feed.Items}
		}(i, f)
	}
	wg.Wait()

	for _, fr := range results {
		if fr.err != nil {
			r.logger.Warn("Feed fetch failed", "feed", fr.feed.Name, "error", fr.err)
			res.Errors = append(res.Errors, fr.err)
			continue
		}
		for _, item := range fr.items {
			if item.Link == "" || strings.TrimSpace(item.Title) == "" {
				continue
			}
			res.Fetched++

			row := r.toRow(ctx, fr.feed, item)
			created, err := r.store.Upsert(ctx, row)
			if err != nil {
				return res, fmt.Errorf("storing %s: %w", item.Link, err)
			}
			if created {
				res.Created++
			} else {
				res.Updated++
			}
		}
	}

	if r.index != nil {
		rows, err := r.store.AllPublished(ctx)
		if err != nil {
			return res, err
		}
		if err := r.index.Rebuild(rows); err != nil {
			return res, fmt.Errorf("rebuilding index: %w", err)
		}
		res.Indexed, _ = r.index.Count()
	}

	r.logger.Info("Sources refreshed",
		"feeds", res.Feeds,
		"fetched", res.Fetched,
		"created", res.Created,
		"updated", res.Updated,
		"errors", len(res.Errors),
	)
	return res, nil
}

func (r *Refresher) toRow(ctx context.Context, f Feed, item *gofeed.Item) *models.SourceItem {
	published := time.Now().UTC()
	if item.PublishedParsed != nil {
		published = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		published = item.UpdatedParsed.UTC()
	}

	body := stripHTML(item.Content)
	if body == "" {
		body = stripHTML(item.Description)
	}
	if len(body) < MinBodyLength {
		text, err := r.scraper.Scrape(ctx, item.Link)
		if err != nil {
			r.logger.Debug("Article scrape failed", "url", item.Link, "error", err)
		} else if len(text) > len(body) {
			body = text
		}
	}

	category := f.Category
	if len(item.Categories) > 0 && category == "" {
		category = item.Categories[0]
	}

	link := item.Link
	return &models.SourceItem{
		Kind:        f.Kind,
		Status:      models.SourceStatusPublished,
		Title:       strings.TrimSpace(item.Title),
		Body:        body,
		Excerpt:     truncate(stripHTML(item.Description), excerptLength),
		Category:    category,
		SourceURL:   &link,
		Feed:        f.Name,
		PublishedAt: published,
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
