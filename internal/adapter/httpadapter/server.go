// Package httpadapter is the operations endpoint of the ingestion service:
// liveness, readiness, metrics and the outcome of the last crawl cycle.
package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/vn-hazard-radar/internal/pipeline"
	"github.com/couchcryptid/vn-hazard-radar/internal/reviewlog"
)

// CycleReporter exposes the last committed cycle.
type CycleReporter interface {
	LastReport() *pipeline.Report
}

// Server exposes health, readiness, metrics and status HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// /status routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, cycles CycleReporter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /status", handleStatus(cycles))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type sourceStatus struct {
	Source   string  `json:"source"`
	FeedUsed string  `json:"feed_used,omitempty"`
	Elapsed  float64 `json:"elapsed_s"`
	Error    *string `json:"error"`
	Added    int     `json:"articles_added"`
}

type cycleStatus struct {
	RunID         string         `json:"run_id"`
	NewArticles   int            `json:"new_articles"`
	Skipped       int            `json:"skipped"`
	EventsCreated int            `json:"events_created"`
	EventsUpdated int            `json:"events_updated"`
	Elapsed       float64        `json:"elapsed_s"`
	PerSource     []sourceStatus `json:"per_source"`
}

func handleStatus(cycles CycleReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		rep := cycles.LastReport()
		if rep == nil {
			sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "no cycle has completed yet"})
			return
		}
		st := cycleStatus{
			RunID:         rep.RunID,
			NewArticles:   rep.NewArticles,
			Skipped:       rep.Skipped,
			EventsCreated: rep.Created,
			EventsUpdated: rep.Updated,
			Elapsed:       rep.Elapsed.Seconds(),
			PerSource:     make([]sourceStatus, 0, len(rep.PerSource)),
		}
		for _, s := range rep.PerSource {
			st.PerSource = append(st.PerSource, sourceStatus{
				Source:   s.Source,
				FeedUsed: s.FeedUsed,
				Elapsed:  s.Elapsed.Seconds(),
				Error:    reviewlog.ErrorText(s.Err),
				Added:    s.Added,
			})
		}
		sharedobs.WriteJSON(w, http.StatusOK, st)
	}
}
