// Package http serves the read API: events, dashboard statistics, the live
// event stream and the operator actions.
package http

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
	"github.com/couchcryptid/vn-hazard-radar/internal/moderation"
	"github.com/couchcryptid/vn-hazard-radar/internal/stats"
	"github.com/couchcryptid/vn-hazard-radar/internal/store"
)

// DefaultHeartbeat is the interval of SSE keep-alive comments.
const DefaultHeartbeat = 15 * time.Second

// Deps are the collaborators of the API.
type Deps struct {
	Store      store.Store
	Stats      *stats.Service
	Moderator  *moderation.Moderator
	Hub        *Hub
	Ready      sharedobs.ReadinessChecker
	AdminToken string
}

// Server is the gin-based read API.
type Server struct {
	httpServer *http.Server
	cancel     context.CancelFunc
	deps       Deps
	logger     *slog.Logger

	heartbeat time.Duration
	now       func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithHeartbeat sets the SSE keep-alive interval.
func WithHeartbeat(d time.Duration) Option { return func(s *Server) { s.heartbeat = d } }

// NewServer builds the router and the underlying http.Server.
func NewServer(addr string, deps Deps, logger *slog.Logger, opts ...Option) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	base, cancel := context.WithCancel(context.Background())

	s := &Server{
		// No WriteTimeout: /stream/events stays open.
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return base },
		},
		cancel:    cancel,
		deps:      deps,
		logger:    logger,
		heartbeat: DefaultHeartbeat,
		now:       domain.Now,
	}
	for _, o := range opts {
		o(s)
	}

	engine.Use(gin.Recovery(), requestLogger(logger), s.authenticate)

	engine.GET("/healthz", gin.WrapF(sharedobs.LivenessHandler()))
	engine.GET("/readyz", gin.WrapF(sharedobs.ReadinessHandler(deps.Ready)))
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	engine.GET("/events", s.listEvents)
	engine.GET("/events/:id", s.getEvent)

	st := engine.Group("/stats")
	st.GET("/summary", s.summary)
	st.GET("/timeline", s.timeline)
	st.GET("/heatmap", s.heatmap)
	st.GET("/top-risky-province", s.topRiskyProvince)

	engine.GET("/stream/events", s.stream)

	admin := engine.Group("/admin", requireAdmin)
	admin.POST("/articles/:id/reject", s.rejectArticle)
	admin.DELETE("/events/:id", s.deleteEvent)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown ends open event streams, then drains connections within the
// given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
