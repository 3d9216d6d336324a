// Package worker runs the engine's background jobs: retention purges
// for notifications and view records, and the counter reconciliation
// sweep. Each job is a ticker loop that stops on context cancellation.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/arefin-dev/cliply/backend/internal/engine"
	"github.com/arefin-dev/cliply/backend/pkg/metrics"
)

// Sweeper drives the periodic jobs.
type Sweeper struct {
	notifier   *engine.Notifier
	views      engine.ViewStore
	reconciler *engine.Reconciler
	log        *slog.Logger

	NotificationInterval time.Duration
	ViewPurgeInterval    time.Duration
	ReconcileInterval    time.Duration
	ViewRetention        time.Duration
}

// NewSweeper creates a Sweeper with the given intervals; non-positive
// intervals fall back to defaults.
func NewSweeper(notifier *engine.Notifier, views engine.ViewStore, reconciler *engine.Reconciler, viewRetention time.Duration, log *slog.Logger) *Sweeper {
	s := &Sweeper{
		notifier:             notifier,
		views:                views,
		reconciler:           reconciler,
		log:                  log,
		NotificationInterval: 6 * time.Hour,
		ViewPurgeInterval:    24 * time.Hour,
		ReconcileInterval:    15 * time.Minute,
		ViewRetention:        viewRetention,
	}
	if s.ViewRetention <= 0 {
		s.ViewRetention = 90 * 24 * time.Hour
	}
	return s
}

// Start launches the sweep loops. They run until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	go s.loop(ctx, "notification_purge", s.NotificationInterval, s.purgeNotifications)
	go s.loop(ctx, "view_purge", s.ViewPurgeInterval, s.purgeViews)
	go s.loop(ctx, "reconcile", s.ReconcileInterval, s.reconcile)
}

func (s *Sweeper) loop(ctx context.Context, name string, interval time.Duration, job func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweep loop stopped", slog.String("job", name))
			return
		case <-ticker.C:
			start := time.Now()
			if err := job(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				s.log.Error("sweep job failed",
					slog.String("job", name), slog.String("error", err.Error()))
				continue
			}
			s.log.Debug("sweep job completed",
				slog.String("job", name),
				slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())))
		}
	}
}

func (s *Sweeper) purgeNotifications(ctx context.Context) error {
	deleted, err := s.notifier.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	if deleted > 0 {
		metrics.RetentionPurged.WithLabelValues("notification").Add(float64(deleted))
		s.log.Info("expired notifications purged", slog.Int64("deleted", deleted))
	}
	return nil
}

func (s *Sweeper) purgeViews(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-s.ViewRetention)
	deleted, err := s.views.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		metrics.RetentionPurged.WithLabelValues("view").Add(float64(deleted))
		s.log.Info("old view records purged", slog.Int64("deleted", deleted))
	}
	return nil
}

func (s *Sweeper) reconcile(ctx context.Context) error {
	repaired, err := s.reconciler.Run(ctx)
	if err != nil {
		return err
	}
	if repaired > 0 {
		s.log.Info("counter reconciliation repaired drift", slog.Int64("repaired", repaired))
	}
	return nil
}
