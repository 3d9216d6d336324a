package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/arefin-dev/cliply/backend/internal/models"
	"github.com/arefin-dev/cliply/backend/pkg/metrics"
)

// FeedAssembler produces ordered, paginated feed pages from the current
// aggregate state. Feeds are pure reads: they never mutate the ledger or
// the counters, with the one exception of lazily refreshing a stale
// score cache on items it returns.
type FeedAssembler struct {
	videos   VideoStore
	views    ViewStore
	follows  FollowStore
	counters *CounterStore
	ranking  *Ranking
	log      *slog.Logger
}

// NewFeedAssembler creates a FeedAssembler.
func NewFeedAssembler(videos VideoStore, views ViewStore, follows FollowStore, counters *CounterStore, ranking *Ranking, log *slog.Logger) *FeedAssembler {
	return &FeedAssembler{videos: videos, views: views, follows: follows, counters: counters, ranking: ranking, log: log}
}

// GetFeed returns the main feed page for a viewer. Anonymous viewers and
// authenticated viewers with no watch history get the raw popularity
// ordering; viewers with history get the recommendation-score ordering.
func (f *FeedAssembler) GetFeed(ctx context.Context, viewerID *uint, category string, page, pageSize int) ([]models.Video, int64, error) {
	start := time.Now()
	defer func() { metrics.FeedDuration.WithLabelValues("main").Observe(time.Since(start).Seconds()) }()

	page, pageSize = clampPage(page, pageSize)
	sort := SortPopularity
	if viewerID != nil {
		hasHistory, err := f.views.HasHistory(ctx, *viewerID)
		if err != nil {
			f.log.Warn("watch history lookup failed, using popularity ordering",
				slog.Uint64("viewer_id", uint64(*viewerID)), slog.String("error", err.Error()))
		} else if hasHistory {
			sort = SortScore
		}
	}

	items, total, err := f.videos.ListFeed(ctx, FeedQuery{
		Category: category,
		Sort:     sort,
		Offset:   (page - 1) * pageSize,
		Limit:    pageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	f.refreshStale(ctx, items)
	return items, total, nil
}

// GetFollowingFeed returns videos from the viewer's follow set, newest
// first. A viewer who follows nobody gets an empty page, not an error.
func (f *FeedAssembler) GetFollowingFeed(ctx context.Context, viewerID uint, page, pageSize int) ([]models.Video, int64, error) {
	start := time.Now()
	defer func() { metrics.FeedDuration.WithLabelValues("following").Observe(time.Since(start).Seconds()) }()

	page, pageSize = clampPage(page, pageSize)
	followed, err := f.follows.FollowingIDs(ctx, viewerID)
	if err != nil {
		return nil, 0, err
	}
	if len(followed) == 0 {
		return []models.Video{}, 0, nil
	}

	items, total, err := f.videos.ListFeed(ctx, FeedQuery{
		OwnerIDs: followed,
		Sort:     SortNewest,
		Offset:   (page - 1) * pageSize,
		Limit:    pageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	f.refreshStale(ctx, items)
	return items, total, nil
}

// GetTrending returns the most viewed videos published within the
// trending window, optionally restricted to a category.
func (f *FeedAssembler) GetTrending(ctx context.Context, category string, limit int) ([]models.Video, error) {
	start := time.Now()
	defer func() { metrics.FeedDuration.WithLabelValues("trending").Observe(time.Since(start).Seconds()) }()

	if limit < 1 || limit > 100 {
		limit = 20
	}
	items, _, err := f.videos.ListFeed(ctx, FeedQuery{
		Category:       category,
		PublishedAfter: time.Now().UTC().Add(-f.ranking.Config().TrendingWindow),
		Sort:           SortTrending,
		Limit:          limit,
	})
	return items, err
}

// refreshStale recomputes score caches older than the staleness bound
// for the items about to be served. The returned items carry the fresh
// numbers; the persisted cache refresh is best effort.
func (f *FeedAssembler) refreshStale(ctx context.Context, items []models.Video) {
	now := time.Now().UTC()
	for i := range items {
		if !f.ranking.Stale(items[i].ScoreUpdatedAt, now) {
			continue
		}
		c := Counters{
			Views:       items[i].Views,
			Likes:       items[i].Likes,
			Comments:    items[i].CommentsCount,
			Shares:      items[i].Shares,
			PublishedAt: items[i].PublishedAt,
		}
		items[i].RecommendationScore = f.ranking.Score(c, now)
		items[i].EngagementRate = f.ranking.EngagementRate(c)
		id := items[i].ID.Hex()
		if err := f.videos.UpdateScore(ctx, id, items[i].RecommendationScore, items[i].EngagementRate, now); err != nil {
			f.log.Warn("lazy score refresh failed", slog.String("video_id", id), slog.String("error", err.Error()))
		}
	}
}

func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 50 {
		pageSize = 10
	}
	return page, pageSize
}
