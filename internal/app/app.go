// Package app assembles the components shared by the commands from a
// loaded configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	kafkaadapter "github.com/couchcryptid/vn-hazard-radar/internal/adapter/kafka"
	natsadapter "github.com/couchcryptid/vn-hazard-radar/internal/adapter/nats"
	"github.com/couchcryptid/vn-hazard-radar/internal/catalog"
	"github.com/couchcryptid/vn-hazard-radar/internal/config"
	"github.com/couchcryptid/vn-hazard-radar/internal/enrich"
	"github.com/couchcryptid/vn-hazard-radar/internal/eventmatch"
	"github.com/couchcryptid/vn-hazard-radar/internal/ingest"
	"github.com/couchcryptid/vn-hazard-radar/internal/observability"
	"github.com/couchcryptid/vn-hazard-radar/internal/pipeline"
	"github.com/couchcryptid/vn-hazard-radar/internal/reviewlog"
	"github.com/couchcryptid/vn-hazard-radar/internal/store"
)

// dedupLookahead is how far after an entry's publication time dedup looks.
const dedupLookahead = 2 * time.Hour

// OpenStore connects to DATABASE_URL, retrying while the database is
// unreachable. Without a URL it returns an in-memory store when memory is
// allowed.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, allowMemory bool) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		if !allowMemory {
			return nil, cfg.RequireDatabase()
		}
		logger.Warn("DATABASE_URL not set, using in-memory store")
		return store.NewMemory(), nil
	}
	backoff := 200 * time.Millisecond
	for {
		st, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
		if err == nil {
			return st, nil
		}
		if !errors.Is(err, store.ErrUnavailable) {
			return nil, err
		}
		logger.Warn("database not reachable", "error", err, "retry_in", backoff)
		if !retry.SleepWithContext(ctx, backoff) {
			return nil, fmt.Errorf("open store: %w", ctx.Err())
		}
		backoff = retry.NextBackoff(backoff, 5*time.Second)
	}
}

// FetcherConfig maps the outbound HTTP settings.
func FetcherConfig(cfg *config.Config, timeout time.Duration) ingest.FetcherConfig {
	fc := ingest.DefaultFetcherConfig()
	fc.Timeout = timeout
	fc.MaxConns = cfg.HTTPMaxConns
	fc.MaxIdle = cfg.HTTPMaxIdle
	fc.Attempts = cfg.FetchAttempts
	fc.InsecureHosts = cfg.InsecureTLSDomains
	return fc
}

// Matcher builds the event matcher with the configured window.
func Matcher(cfg *config.Config, logger *slog.Logger) *eventmatch.Matcher {
	return eventmatch.New(logger, eventmatch.WithWindow(cfg.EventWindow, eventmatch.DefaultLookahead))
}

// Ingestion is a fully wired pipeline and the resources it owns.
type Ingestion struct {
	Pipeline *pipeline.Pipeline
	Catalog  *catalog.Catalog
	NATS     *natsadapter.Bus

	kafka *kafkaadapter.Writer
}

// NewIngestion wires the pipeline over st. Kafka and NATS publishers are
// added when configured; a NATS connection failure is logged and the bus
// skipped.
func NewIngestion(cfg *config.Config, st store.Store, logger *slog.Logger, metrics *observability.Metrics) (*Ingestion, error) {
	cat, err := catalog.Open(cfg.SourcesFile)
	if err != nil {
		return nil, err
	}
	state, err := ingest.LoadFeedState(cfg.FeedStateFile)
	if err != nil {
		return nil, err
	}
	reviews, err := reviewlog.Open(cfg.LogDir)
	if err != nil {
		return nil, err
	}

	fetcher := ingest.NewFetcher(FetcherConfig(cfg, cfg.FetchTimeout), metrics, logger)
	collector := ingest.NewCollector(fetcher, state, logger,
		ingest.WithSearchBase(cfg.SearchFeedBase),
		ingest.WithScraper(ingest.NewScraper(fetcher, nil)),
		ingest.WithConcurrency(cfg.HTTPMaxConns),
	)
	enricher := enrich.New(ingest.NewFetcher(FetcherConfig(cfg, cfg.EnrichTimeout), metrics, logger), metrics, logger)

	in := &Ingestion{Catalog: cat}
	opts := []pipeline.Option{
		pipeline.WithEnricher(enricher),
		pipeline.WithFeedState(state),
		pipeline.WithReviewLog(reviews),
		pipeline.WithMatcher(Matcher(cfg, logger)),
		pipeline.WithDedupWindow(cfg.DedupWindow, dedupLookahead),
	}
	if len(cfg.KafkaBrokers) > 0 {
		in.kafka = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaEventsTopic, logger)
		opts = append(opts, pipeline.WithPublisher(in.kafka))
		logger.Info("kafka event sink enabled", "topic", cfg.KafkaEventsTopic)
	}
	if cfg.NATSURL != "" {
		bus, err := natsadapter.Connect(cfg.NATSURL, cfg.NATSSubject, "vn-hazard-ingest", logger)
		if err != nil {
			logger.Warn("nats unavailable, realtime notices disabled", "error", err)
		} else {
			in.NATS = bus
			opts = append(opts, pipeline.WithPublisher(bus))
			logger.Info("nats notices enabled", "subject", cfg.NATSSubject)
		}
	}

	in.Pipeline = pipeline.New(cat, collector, st, logger, metrics, opts...)
	return in, nil
}

// Close releases the publishers.
func (in *Ingestion) Close(logger *slog.Logger) {
	if in.kafka != nil {
		if err := in.kafka.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if in.NATS != nil {
		in.NATS.Close()
	}
}
