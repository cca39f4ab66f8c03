package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
)

// Names of the fallback steps, as written to the crawl log.
const (
	FeedPrimary = "primary_rss"
	FeedBackup  = "backup_rss"
	FeedSearch  = "search"
	FeedScrape  = "scrape"
)

// SourceResult is what the fallback chain produced for one source.
type SourceResult struct {
	Source      domain.Source
	FeedUsed    string
	Entries     []Entry
	NotModified bool
	Elapsed     time.Duration
	// Err joins the failures of every step when no step succeeded.
	Err error
}

// Collector runs the fallback chain for every source of a cycle.
type Collector struct {
	fetcher    *Fetcher
	state      *FeedState
	scraper    *Scraper
	searchBase string
	limit      int
	logger     *slog.Logger
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithSearchBase sets the syndicated search endpoint. An empty base disables
// the search step.
func WithSearchBase(base string) CollectorOption {
	return func(c *Collector) { c.searchBase = base }
}

// WithScraper enables the HTML fallback.
func WithScraper(s *Scraper) CollectorOption {
	return func(c *Collector) { c.scraper = s }
}

// WithConcurrency caps the number of sources fetched at once.
func WithConcurrency(n int) CollectorOption {
	return func(c *Collector) { c.limit = n }
}

// NewCollector returns a Collector.
func NewCollector(f *Fetcher, state *FeedState, logger *slog.Logger, opts ...CollectorOption) *Collector {
	c := &Collector{
		fetcher:    f,
		state:      state,
		searchBase: DefaultSearchBase,
		limit:      20,
		logger:     logger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Collect runs the chain for every source concurrently. Results keep the
// order of sources; a failing source never affects the others.
func (c *Collector) Collect(ctx context.Context, sources []domain.Source) []SourceResult {
	results := make([]SourceResult, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.limit, 1))
	for i := range sources {
		g.Go(func() error {
			results[i] = c.CollectSource(gctx, sources[i])
			return nil
		})
	}
	_ = g.Wait()
	return results
}

type step struct {
	name string
	run  func(context.Context) ([]Entry, error)
}

// CollectSource tries primary feed, backup feed, search feed and scraper in
// order. The chain stops at the first step that answers 304 or yields at
// least one entry.
func (c *Collector) CollectSource(ctx context.Context, src domain.Source) (res SourceResult) {
	start := c.fetcher.clock.Now()
	res.Source = src
	defer func() { res.Elapsed = c.fetcher.clock.Since(start) }()

	var steps []step
	if src.PrimaryRSS != "" {
		steps = append(steps, step{FeedPrimary, func(ctx context.Context) ([]Entry, error) { return c.feed(ctx, src.PrimaryRSS, false) }})
	}
	if src.BackupRSS != "" {
		steps = append(steps, step{FeedBackup, func(ctx context.Context) ([]Entry, error) { return c.feed(ctx, src.BackupRSS, false) }})
	}
	if c.searchBase != "" && src.Domain != "" {
		u := SearchURL(c.searchBase, src.Domain)
		steps = append(steps, step{FeedSearch, func(ctx context.Context) ([]Entry, error) { return c.feed(ctx, u, true) }})
	}
	if c.scraper != nil && src.Domain != "" {
		steps = append(steps, step{FeedScrape, func(ctx context.Context) ([]Entry, error) { return c.scraper.Scrape(ctx, src) }})
	}

	var errs []error
	for _, s := range steps {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		entries, err := s.run(ctx)
		switch {
		case errors.Is(err, ErrNotModified):
			res.FeedUsed, res.NotModified = s.name, true
			return res
		case err != nil:
			c.logger.Warn("feed step failed", "source", src.Name, "feed", s.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		default:
			res.FeedUsed, res.Entries = s.name, entries
			return res
		}
	}
	if len(errs) == 0 {
		errs = append(errs, fmt.Errorf("no feed configured: %w", ErrNoEntries))
	}
	res.Err = errors.Join(errs...)
	return res
}

// feed fetches and parses one feed URL. Validators are remembered only once
// the feed produced entries.
func (c *Collector) feed(ctx context.Context, feedURL string, search bool) ([]Entry, error) {
	v, _ := c.state.Get(feedURL)
	res := c.fetcher.Fetch(ctx, feedURL, v)
	switch res.Kind {
	case KindOK:
	case KindNotModified:
		return nil, ErrNotModified
	default:
		return nil, res.Err
	}

	entries, err := ParseFeed(res.Body, res.URL)
	if err != nil {
		return nil, err
	}
	if search {
		for i := range entries {
			entries[i].Title = trimPublisher(entries[i].Title)
		}
	}
	if res.ETag != "" || res.LastModified != "" {
		c.state.Set(feedURL, Validator{
			ETag:         res.ETag,
			LastModified: res.LastModified,
			FetchedAt:    c.fetcher.clock.Now().UTC(),
		})
	}
	return entries, nil
}
