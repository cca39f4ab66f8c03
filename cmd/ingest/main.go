package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/vn-hazard-radar/internal/adapter/httpadapter"
	"github.com/couchcryptid/vn-hazard-radar/internal/app"
	"github.com/couchcryptid/vn-hazard-radar/internal/config"
	"github.com/couchcryptid/vn-hazard-radar/internal/observability"
	"github.com/couchcryptid/vn-hazard-radar/internal/pipeline"
	"github.com/couchcryptid/vn-hazard-radar/internal/scheduler"
)

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

	in, err := app.NewIngestion(cfg, st, logger, metrics)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer in.Close(logger)

	if err := in.Catalog.Watch(ctx, 0, logger, func(n int) {
		logger.Info("source catalogue reloaded", "sources", n)
	}); err != nil {
		logger.Warn("catalogue hot reload disabled", "error", err)
	}

	jobs := []scheduler.Job{{Name: "all-sources", Every: cfg.CrawlInterval}}
	if cfg.FastSourceDomain != "" {
		jobs = append(jobs, scheduler.Job{
			Name:    "fast-source",
			Every:   cfg.FastCrawlInterval,
			Domains: []string{cfg.FastSourceDomain},
		})
	}
	sched, err := scheduler.New(in.Pipeline, logger, jobs...)
	if err != nil {
		logger.Error("failed to schedule cycles", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, in.Pipeline, in.Pipeline, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start cycles once the database answers.
	go func() {
		if !pipeline.WaitForStore(ctx, st, logger) {
			return
		}
		sched.Start(ctx, true)
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Error("scheduler shutdown error", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
