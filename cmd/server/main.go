package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/arefin-dev/cliply/backend/internal/router"
	"github.com/arefin-dev/cliply/backend/internal/validators"
	"github.com/arefin-dev/cliply/backend/internal/worker"
	"github.com/arefin-dev/cliply/backend/pkg/config"
	"github.com/arefin-dev/cliply/backend/pkg/metrics"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB()
	if err != nil {
		log.Error("failed to initialize databases", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.CloseDB()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	deps, err := router.SetupRoutes(e, cfg, db.Postgres, db.Mongo, log)
	if err != nil {
		log.Error("failed to set up routes", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.RateLimit.Stop()

	// Validator
	e.Validator = validators.NewValidator()

	// Background sweeps: retention purges and counter reconciliation
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper := worker.NewSweeper(deps.Engine.Notifier, deps.Views, deps.Reconciler, cfg.ViewRetention, log)
	sweeper.ReconcileInterval = cfg.ReconcileInterval
	sweeper.Start(ctx)

	// Metrics endpoint on its own port
	go func() {
		if err := metrics.Serve(":" + cfg.MetricsPort); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server stopped", slog.String("error", err.Error()))
		}
	}()

	// Start server
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Error("server stopped", slog.String("error", err.Error()))
			stop()
		}
	}()
	log.Info("server started", slog.String("port", cfg.Port), slog.String("env", cfg.Env))

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}
}
