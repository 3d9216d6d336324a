package engine

import (
	"context"
	"testing"
	"time"

	"github.com/arefin-dev/cliply/backend/internal/models"
)

func TestGetFeedAnonymousPopularityOrder(t *testing.T) {
	rig := newTestRig(1, 2)
	ctx := context.Background()
	now := time.Now()

	quiet := rig.videos.add(1, now, 10, 1)
	busy := rig.videos.add(2, now, 500, 40)

	items, total, err := rig.feed.GetFeed(ctx, nil, "", 1, 10)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("total=%d len=%d, want 2/2", total, len(items))
	}
	if items[0].ID.Hex() != busy || items[1].ID.Hex() != quiet {
		t.Fatal("anonymous feed should order by view count")
	}
}

func TestGetFeedHistorySwitchesToScoreOrder(t *testing.T) {
	rig := newTestRig(1, 2)
	ctx := context.Background()
	now := time.Now()

	// Older video with more views, newer one with far more engagement per
	// view. Popularity puts the old one first; the score ordering favors
	// the fresh engaged one through the recency boost.
	old := rig.videos.add(1, now.Add(-40*24*time.Hour), 900, 5)
	fresh := rig.videos.add(2, now.Add(-time.Hour), 800, 400)

	viewer := uint(1)
	items, _, err := rig.feed.GetFeed(ctx, &viewer, "", 1, 10)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if items[0].ID.Hex() != old {
		t.Fatal("viewer without history should get the popularity ordering")
	}

	if err := rig.views.Insert(ctx, &models.ViewRecord{ViewerID: viewer, VideoID: old, CreatedAt: now}); err != nil {
		t.Fatal(err)
	}
	// First personalized read computes and persists the scores lazily.
	if _, _, err := rig.feed.GetFeed(ctx, &viewer, "", 1, 10); err != nil {
		t.Fatalf("feed: %v", err)
	}
	items, _, err = rig.feed.GetFeed(ctx, &viewer, "", 1, 10)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if items[0].ID.Hex() != fresh {
		t.Fatal("viewer with history should get the score ordering")
	}
}

func TestGetFeedLazyScoreRefresh(t *testing.T) {
	rig := newTestRig(1)
	ctx := context.Background()
	id := rig.videos.add(1, time.Now(), 1000, 100)

	items, _, err := rig.feed.GetFeed(ctx, nil, "", 1, 10)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if items[0].RecommendationScore <= 0 {
		t.Fatal("served item should carry a freshly computed score")
	}

	stored, _ := rig.videos.GetByID(ctx, id)
	if stored.RecommendationScore != items[0].RecommendationScore {
		t.Fatalf("persisted score %f differs from served score %f",
			stored.RecommendationScore, items[0].RecommendationScore)
	}
	if stored.ScoreUpdatedAt.IsZero() {
		t.Fatal("score refresh should stamp ScoreUpdatedAt")
	}
}

func TestGetFeedPagination(t *testing.T) {
	rig := newTestRig(1)
	ctx := context.Background()
	now := time.Now()
	for i := 0; i < 7; i++ {
		rig.videos.add(1, now, int64(100-i), 0)
	}

	first, total, err := rig.feed.GetFeed(ctx, nil, "", 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := rig.feed.GetFeed(ctx, nil, "", 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	last, _, err := rig.feed.GetFeed(ctx, nil, "", 3, 3)
	if err != nil {
		t.Fatal(err)
	}
	if total != 7 || len(first) != 3 || len(second) != 3 || len(last) != 1 {
		t.Fatalf("pagination: total=%d pages=%d/%d/%d, want 7 and 3/3/1",
			total, len(first), len(second), len(last))
	}

	beyond, total, err := rig.feed.GetFeed(ctx, nil, "", 5, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(beyond) != 0 || total != 7 {
		t.Fatalf("past the end: len=%d total=%d, want 0 and 7", len(beyond), total)
	}
}

func TestGetFollowingFeed(t *testing.T) {
	rig := newTestRig(1, 2, 3)
	ctx := context.Background()
	now := time.Now()

	older := rig.videos.add(2, now.Add(-2*time.Hour), 50, 0)
	newer := rig.videos.add(2, now.Add(-time.Hour), 5, 0)
	rig.videos.add(3, now, 999, 0) // not followed

	items, total, err := rig.feed.GetFollowingFeed(ctx, 1, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 || len(items) != 0 {
		t.Fatalf("follower of nobody: total=%d len=%d, want empty page", total, len(items))
	}

	if _, err := rig.ledger.ToggleFollow(ctx, 1, 2); err != nil {
		t.Fatal(err)
	}

	items, total, err = rig.feed.GetFollowingFeed(ctx, 1, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("following feed: total=%d len=%d, want 2/2", total, len(items))
	}
	if items[0].ID.Hex() != newer || items[1].ID.Hex() != older {
		t.Fatal("following feed should order newest first")
	}
}

func TestGetTrendingWindow(t *testing.T) {
	rig := newTestRig(1)
	ctx := context.Background()
	now := time.Now()

	inWindow := rig.videos.add(1, now.Add(-24*time.Hour), 100, 0)
	rig.videos.add(1, now.Add(-30*24*time.Hour), 100000, 0)

	items, err := rig.feed.GetTrending(ctx, "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ID.Hex() != inWindow {
		t.Fatalf("trending returned %d items, want only the recent one", len(items))
	}
}

func TestGetFeedExcludesHiddenVideos(t *testing.T) {
	rig := newTestRig(1)
	ctx := context.Background()
	now := time.Now()

	visible := rig.videos.add(1, now, 10, 0)
	private := rig.videos.add(1, now, 10, 0)
	rejected := rig.videos.add(1, now, 10, 0)

	rig.videos.mu.Lock()
	rig.videos.videos[private].IsPublic = false
	rig.videos.videos[rejected].Moderation = models.ModerationRejected
	rig.videos.mu.Unlock()

	items, total, err := rig.feed.GetFeed(ctx, nil, "", 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(items) != 1 || items[0].ID.Hex() != visible {
		t.Fatalf("feed returned %d items, want only the public approved one", len(items))
	}
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 0, 1, 10},
		{-3, 200, 1, 10},
		{2, 25, 2, 25},
	}
	for _, tt := range tests {
		page, size := clampPage(tt.page, tt.size)
		if page != tt.wantPage || size != tt.wantSize {
			t.Errorf("clampPage(%d, %d) = %d, %d; want %d, %d",
				tt.page, tt.size, page, size, tt.wantPage, tt.wantSize)
		}
	}
}
