// Package pipeline runs ingestion cycles: collect feed entries, decide on
// each one, enrich and annotate the admitted ones, store them and attach
// them to events.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
	"github.com/couchcryptid/vn-hazard-radar/internal/eventmatch"
	"github.com/couchcryptid/vn-hazard-radar/internal/ingest"
	"github.com/couchcryptid/vn-hazard-radar/internal/observability"
	"github.com/couchcryptid/vn-hazard-radar/internal/reviewlog"
	"github.com/couchcryptid/vn-hazard-radar/internal/scorer"
	"github.com/couchcryptid/vn-hazard-radar/internal/store"
)

// Sources provides the current source catalogue.
type Sources interface {
	Sources() []domain.Source
}

// Collector gathers the entries of every source, one result per source in
// input order.
type Collector interface {
	Collect(ctx context.Context, sources []domain.Source) []ingest.SourceResult
}

// Enricher fills an article from its full page.
type Enricher interface {
	Enrich(ctx context.Context, a *domain.Article) error
}

// Publisher announces the events written by a committed cycle.
type Publisher interface {
	Publish(ctx context.Context, changes []domain.EventChange) error
}

// FeedState persists conditional-GET validators between cycles.
type FeedState interface {
	Save() error
	Reload() error
}

// SourceReport is the outcome of one source in a cycle.
type SourceReport struct {
	Source   string
	FeedUsed string
	Elapsed  time.Duration
	Err      error
	Added    int
}

// Report summarizes a cycle.
type Report struct {
	RunID       string
	NewArticles int
	Skipped     int
	Created     int
	Updated     int
	Elapsed     time.Duration
	PerSource   []SourceReport
	Changes     []domain.EventChange
}

// Pipeline orchestrates ingestion cycles. Cycles never overlap: a cycle
// started while another runs waits for it.
type Pipeline struct {
	sources    Sources
	collector  Collector
	store      store.Store
	scorer     *scorer.Scorer
	matcher    *eventmatch.Matcher
	enricher   Enricher
	publishers []Publisher
	state      FeedState
	reviews    *reviewlog.Log
	logger     *slog.Logger
	metrics    *observability.Metrics

	dedupBefore time.Duration
	dedupAfter  time.Duration

	sem   chan struct{}
	ready atomic.Bool
	last  atomic.Pointer[Report]
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithEnricher enables full-page enrichment.
func WithEnricher(e Enricher) Option { return func(p *Pipeline) { p.enricher = e } }

// WithPublisher adds a sink for written events.
func WithPublisher(pub Publisher) Option {
	return func(p *Pipeline) { p.publishers = append(p.publishers, pub) }
}

// WithFeedState saves validators after every committed cycle.
func WithFeedState(s FeedState) Option { return func(p *Pipeline) { p.state = s } }

// WithReviewLog records crawl summaries and decisions.
func WithReviewLog(l *reviewlog.Log) Option { return func(p *Pipeline) { p.reviews = l } }

// WithScorer replaces the default scorer.
func WithScorer(s *scorer.Scorer) Option { return func(p *Pipeline) { p.scorer = s } }

// WithMatcher replaces the default event matcher.
func WithMatcher(m *eventmatch.Matcher) Option { return func(p *Pipeline) { p.matcher = m } }

// WithDedupWindow sets the dedup lookback and lookahead around an entry's
// publication time.
func WithDedupWindow(before, after time.Duration) Option {
	return func(p *Pipeline) { p.dedupBefore, p.dedupAfter = before, after }
}

// New creates a Pipeline.
func New(src Sources, c Collector, st store.Store, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		sources:     src,
		collector:   c,
		store:       st,
		scorer:      scorer.New(),
		matcher:     eventmatch.New(logger),
		logger:      logger,
		metrics:     metrics,
		dedupBefore: 24 * time.Hour,
		dedupAfter:  2 * time.Hour,
		sem:         make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// CheckReadiness returns nil once a cycle has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no ingestion cycle has completed yet")
	}
	return nil
}

// LastReport returns the report of the last committed cycle, or nil.
func (p *Pipeline) LastReport() *Report {
	return p.last.Load()
}

// RunCycle runs one cycle over the sources whose domain is listed, or over
// every source when none is. Only a store outage fails the cycle.
func (p *Pipeline) RunCycle(ctx context.Context, domains ...string) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return Report{}, ctx.Err()
	}
	defer func() { <-p.sem }()

	start := time.Now()
	p.metrics.CycleRunning.Set(1)
	defer p.metrics.CycleRunning.Set(0)

	c := &cycle{p: p, report: Report{RunID: reviewlog.NewRunID()}, changes: map[int64]int{}}
	sources := p.selectSources(domains)
	p.logger.Info("cycle started", "run_id", c.report.RunID, "sources", len(sources))

	results := p.collector.Collect(ctx, sources)
	err := p.store.Transaction(ctx, func(tx store.Store) error {
		for _, res := range results {
			if err := c.source(ctx, tx, res); err != nil {
				return err
			}
		}
		return nil
	})

	rep := c.report
	rep.Elapsed = time.Since(start)
	p.metrics.CycleDuration.Observe(rep.Elapsed.Seconds())
	if err != nil {
		p.logger.Error("cycle aborted", "run_id", rep.RunID, "error", err)
		if p.state != nil {
			if rerr := p.state.Reload(); rerr != nil {
				p.logger.Warn("revert feed state failed", "error", rerr)
			}
		}
		p.writeCrawl(rep, err)
		return rep, fmt.Errorf("run cycle: %w", err)
	}

	for _, ch := range rep.Changes {
		if ch.Created {
			rep.Created++
			p.metrics.EventsCreated.Inc()
		} else {
			rep.Updated++
			p.metrics.EventsUpdated.Inc()
		}
	}
	p.publish(ctx, rep.Changes)
	if p.state != nil {
		if err := p.state.Save(); err != nil {
			p.logger.Warn("save feed state failed", "error", err)
		}
	}
	p.writeCrawl(rep, nil)
	p.last.Store(&rep)
	p.ready.Store(true)
	p.logger.Info("cycle finished",
		"run_id", rep.RunID,
		"new_articles", rep.NewArticles,
		"skipped", rep.Skipped,
		"events_created", rep.Created,
		"events_updated", rep.Updated,
		"elapsed", rep.Elapsed,
	)
	return rep, nil
}

func (p *Pipeline) selectSources(domains []string) []domain.Source {
	all := p.sources.Sources()
	if len(domains) == 0 {
		return all
	}
	return slices.DeleteFunc(all, func(s domain.Source) bool {
		return !slices.Contains(domains, s.Domain)
	})
}

func (p *Pipeline) publish(ctx context.Context, changes []domain.EventChange) {
	if len(changes) == 0 {
		return
	}
	for _, pub := range p.publishers {
		if err := pub.Publish(ctx, changes); err != nil {
			p.logger.Warn("publish events failed", "events", len(changes), "error", err)
		}
	}
}

func (p *Pipeline) writeCrawl(rep Report, aborted error) {
	rec := reviewlog.CrawlRecord{
		RunID:       rep.RunID,
		Timestamp:   domain.Now(),
		NewArticles: rep.NewArticles,
		Elapsed:     rep.Elapsed.Seconds(),
		PerSource:   make([]reviewlog.SourceRun, 0, len(rep.PerSource)),
	}
	if aborted != nil {
		rec.Aborted = aborted.Error()
	}
	for _, s := range rep.PerSource {
		rec.PerSource = append(rec.PerSource, reviewlog.SourceRun{
			Source:        s.Source,
			FeedUsed:      s.FeedUsed,
			Elapsed:       s.Elapsed.Seconds(),
			Error:         reviewlog.ErrorText(s.Err),
			ArticlesAdded: s.Added,
		})
	}
	if err := p.reviews.Crawl(rec); err != nil {
		p.logger.Warn("write crawl log failed", "error", err)
	}
}

// WaitForStore pings the store until it answers, backing off exponentially
// from 200ms to 5s. It returns false if ctx ends first.
func WaitForStore(ctx context.Context, st interface{ Ping(context.Context) error }, logger *slog.Logger) bool {
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second
	for {
		err := st.Ping(ctx)
		if err == nil {
			return true
		}
		logger.Warn("store not reachable", "error", err, "retry_in", backoff)
		if !retry.SleepWithContext(ctx, backoff) {
			return false
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
}
