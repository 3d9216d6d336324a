package worker

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/arefin-dev/cliply/backend/internal/engine"
	"github.com/arefin-dev/cliply/backend/internal/models"
)

type stubViews struct {
	mu      sync.Mutex
	records []models.ViewRecord
	purges  int
}

func (s *stubViews) Insert(_ context.Context, record *models.ViewRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *record)
	return nil
}

func (s *stubViews) CompletionCounts(context.Context, string, float64) (int64, int64, error) {
	return 0, 0, nil
}

func (s *stubViews) HasHistory(context.Context, uint) (bool, error) { return false, nil }

func (s *stubViews) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purges++
	var kept []models.ViewRecord
	var deleted int64
	for _, r := range s.records {
		if r.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return deleted, nil
}

func (s *stubViews) purgeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purges
}

func (s *stubViews) remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweeperDefaults(t *testing.T) {
	s := NewSweeper(nil, &stubViews{}, nil, 0, testLogger())
	if s.ViewRetention != 90*24*time.Hour {
		t.Fatalf("default view retention = %v", s.ViewRetention)
	}
	if s.NotificationInterval <= 0 || s.ViewPurgeInterval <= 0 || s.ReconcileInterval <= 0 {
		t.Fatal("intervals must default to positive values")
	}
}

func TestPurgeViewsHonorsRetention(t *testing.T) {
	views := &stubViews{}
	ctx := context.Background()
	now := time.Now().UTC()

	_ = views.Insert(ctx, &models.ViewRecord{VideoID: "a", CreatedAt: now.Add(-100 * 24 * time.Hour)})
	_ = views.Insert(ctx, &models.ViewRecord{VideoID: "b", CreatedAt: now.Add(-time.Hour)})

	s := NewSweeper(nil, views, nil, 90*24*time.Hour, testLogger())
	if err := s.purgeViews(ctx); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if views.remaining() != 1 {
		t.Fatalf("remaining = %d, want 1", views.remaining())
	}
}

func TestSweepLoopRunsAndStops(t *testing.T) {
	views := &stubViews{}
	s := NewSweeper(nil, views, nil, time.Hour, testLogger())
	s.ViewPurgeInterval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.loop(ctx, "view_purge", s.ViewPurgeInterval, s.purgeViews)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for views.purgeCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("loop never ran the job")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop on cancel")
	}
}

var _ engine.ViewStore = (*stubViews)(nil)
