package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"

	httpapi "github.com/couchcryptid/vn-hazard-radar/internal/adapter/http"
	natsadapter "github.com/couchcryptid/vn-hazard-radar/internal/adapter/nats"
	"github.com/couchcryptid/vn-hazard-radar/internal/app"
	"github.com/couchcryptid/vn-hazard-radar/internal/config"
	"github.com/couchcryptid/vn-hazard-radar/internal/moderation"
	"github.com/couchcryptid/vn-hazard-radar/internal/observability"
	"github.com/couchcryptid/vn-hazard-radar/internal/stats"
	"github.com/couchcryptid/vn-hazard-radar/internal/statscache"
	"github.com/couchcryptid/vn-hazard-radar/internal/store"
)

// readiness reports ready while the store answers.
type readiness struct {
	store store.Store
}

func (r readiness) CheckReadiness(ctx context.Context) error {
	if err := r.store.Ping(ctx); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.RequireDatabase(); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := app.OpenStore(ctx, cfg, logger, false)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	var backend statscache.Backend = statscache.NewMemory(clockwork.NewRealClock())
	if cfg.RedisURL != "" {
		rc, err := statscache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, using in-process stats cache", "error", err)
		} else {
			defer rc.Close()
			backend = rc
			logger.Info("redis stats cache enabled")
		}
	}
	cache := statscache.New(backend, cfg.StatsCacheTTL, metrics, logger)

	hub := httpapi.NewHub(logger)
	if cfg.NATSURL != "" {
		bus, err := natsadapter.Connect(cfg.NATSURL, cfg.NATSSubject, "vn-hazard-api", logger)
		if err != nil {
			logger.Warn("nats unavailable, event stream receives nothing", "error", err)
		} else {
			defer bus.Close()
			if err := bus.Subscribe(ctx, hub.Broadcast); err != nil {
				logger.Error("nats subscribe failed", "error", err)
			}
		}
	}

	srv := httpapi.NewServer(cfg.HTTPAddr, httpapi.Deps{
		Store:      st,
		Stats:      stats.NewService(st, cache),
		Moderator:  moderation.New(st, app.Matcher(cfg, logger), logger),
		Hub:        hub,
		Ready:      readiness{store: st},
		AdminToken: cfg.AdminToken,
	}, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
