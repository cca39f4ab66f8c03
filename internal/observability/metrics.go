package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "disaster_news"

// Metrics holds the Prometheus counters, histograms, and gauges for the crawler
// and the read API.
type Metrics struct {
	FetchRequests   *prometheus.CounterVec // labels: outcome={ok,not_modified,transient,permanent}
	ArticlesSeen    prometheus.Counter
	ArticlesDecided *prometheus.CounterVec // labels: action={accepted,pending,skipped}
	DedupDrops      *prometheus.CounterVec // labels: reason={blacklisted,url,canonical_url,same_title}
	EventsCreated   prometheus.Counter
	EventsUpdated   prometheus.Counter

	// Cycle metrics.
	CycleDuration prometheus.Histogram
	CycleRunning  prometheus.Gauge

	EnrichRequests *prometheus.CounterVec // labels: outcome={ok,empty,skipped,error}
	StatsCache     *prometheus.CounterVec // labels: result={hit,miss}
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Feed and page fetches by outcome.",
		}, []string{"outcome"}),
		ArticlesSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_seen_total",
			Help:      "Total feed entries considered.",
		}),
		ArticlesDecided: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_decided_total",
			Help:      "Scorer decisions by action.",
		}, []string{"action"}),
		DedupDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dedup_drops_total",
			Help:      "Entries dropped as duplicates by reason.",
		}, []string{"reason"}),
		EventsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_created_total",
			Help:      "Events created by the matcher.",
		}),
		EventsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_updated_total",
			Help:      "Articles attached to an existing event.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete ingestion cycle.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		CycleRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cycle_running",
			Help:      "1 while an ingestion cycle is in flight.",
		}),
		EnrichRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrich_requests_total",
			Help:      "Article page enrichments by outcome.",
		}, []string{"outcome"}),
		StatsCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stats_cache_total",
			Help:      "Stats cache lookups by result.",
		}, []string{"result"}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchRequests,
		m.ArticlesSeen,
		m.ArticlesDecided,
		m.DedupDrops,
		m.EventsCreated,
		m.EventsUpdated,
		m.CycleDuration,
		m.CycleRunning,
		m.EnrichRequests,
		m.StatsCache,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
