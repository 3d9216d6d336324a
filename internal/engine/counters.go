package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// CounterStore is the sole owner of aggregate counter mutation. Every
// counter-changing path in the engine goes through one of its methods;
// nothing else writes the aggregate columns. Decrements are clamped at
// zero by the underlying stores.
//
// Follow counter pairs are the exception to "applied here": both sides
// live in Postgres next to the follow facts, so FollowStore.Toggle
// applies them inside the same transaction as the fact flip. Cross-store
// pairs (video counter + owner aggregate) cannot share a transaction and
// are instead kept honest by the reconciliation sweep.
type CounterStore struct {
	users    UserStore
	videos   VideoStore
	comments CommentStore
	ranking  *Ranking
	log      *slog.Logger
}

// NewCounterStore creates a CounterStore.
func NewCounterStore(users UserStore, videos VideoStore, comments CommentStore, ranking *Ranking, log *slog.Logger) *CounterStore {
	return &CounterStore{users: users, videos: videos, comments: comments, ranking: ranking, log: log}
}

// ApplyContentLike applies the two deltas of a content like flip: the
// video's likes and the owner's total_likes, then refreshes the score
// cache. delta is +1 on like, -1 on unlike.
func (s *CounterStore) ApplyContentLike(ctx context.Context, videoID string, ownerID uint, delta int64) error {
	if err := s.videos.ApplyCounterDelta(ctx, videoID, VideoLikes, delta); err != nil {
		return fmt.Errorf("apply video likes delta: %w", err)
	}
	if err := s.users.AdjustCounter(ctx, ownerID, UserTotalLikes, delta); err != nil {
		// The video side already landed; the reconciliation sweep will
		// restore the owner aggregate from the fact count.
		s.log.Error("owner total_likes delta failed, deferring to reconciliation",
			slog.String("video_id", videoID), slog.Uint64("owner_id", uint64(ownerID)),
			slog.String("error", err.Error()))
	}
	s.refreshScore(ctx, videoID)
	return nil
}

// ApplyCommentLike applies the single delta of a comment like flip.
func (s *CounterStore) ApplyCommentLike(ctx context.Context, commentID uint, delta int64) error {
	if err := s.comments.AdjustLikesCount(ctx, commentID, delta); err != nil {
		return fmt.Errorf("apply comment likes delta: %w", err)
	}
	return nil
}

// ApplyView applies the two deltas of a recorded view: the video's views
// and the owner's total_views, then refreshes the score cache.
func (s *CounterStore) ApplyView(ctx context.Context, videoID string, ownerID uint) error {
	if err := s.videos.ApplyCounterDelta(ctx, videoID, VideoViews, 1); err != nil {
		return fmt.Errorf("apply video views delta: %w", err)
	}
	if err := s.users.AdjustCounter(ctx, ownerID, UserTotalViews, 1); err != nil {
		s.log.Error("owner total_views delta failed, deferring to reconciliation",
			slog.String("video_id", videoID), slog.Uint64("owner_id", uint64(ownerID)),
			slog.String("error", err.Error()))
	}
	s.refreshScore(ctx, videoID)
	return nil
}

// ApplyComment applies the comments_count delta for a created comment.
func (s *CounterStore) ApplyComment(ctx context.Context, videoID string, delta int64) error {
	if err := s.videos.ApplyCounterDelta(ctx, videoID, VideoComments, delta); err != nil {
		return fmt.Errorf("apply comments_count delta: %w", err)
	}
	s.refreshScore(ctx, videoID)
	return nil
}

// ApplyShare applies the shares delta for a share event.
func (s *CounterStore) ApplyShare(ctx context.Context, videoID string, delta int64) error {
	if err := s.videos.ApplyCounterDelta(ctx, videoID, VideoShares, delta); err != nil {
		return fmt.Errorf("apply shares delta: %w", err)
	}
	s.refreshScore(ctx, videoID)
	return nil
}

// RemoveOwnerContribution subtracts a deleted video's counters from its
// owner's aggregates so the aggregates keep matching the surviving facts.
func (s *CounterStore) RemoveOwnerContribution(ctx context.Context, ownerID uint, views, likes int64) error {
	if err := s.users.AdjustCounter(ctx, ownerID, UserTotalViews, -views); err != nil {
		return fmt.Errorf("remove owner views contribution: %w", err)
	}
	if err := s.users.AdjustCounter(ctx, ownerID, UserTotalLikes, -likes); err != nil {
		return fmt.Errorf("remove owner likes contribution: %w", err)
	}
	return nil
}

// RefreshScore recomputes and persists the derived score cache for a
// video. Used write-through after counter changes and lazily by the feed
// assembler when the cache is stale.
func (s *CounterStore) RefreshScore(ctx context.Context, videoID string) error {
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	c := Counters{
		Views:       video.Views,
		Likes:       video.Likes,
		Comments:    video.CommentsCount,
		Shares:      video.Shares,
		PublishedAt: video.PublishedAt,
	}
	return s.videos.UpdateScore(ctx, videoID, s.ranking.Score(c, now), s.ranking.EngagementRate(c), now)
}

// refreshScore is the best-effort write-through variant: a failed score
// write never fails the counter path, the cache just stays stale until
// the next read.
func (s *CounterStore) refreshScore(ctx context.Context, videoID string) {
	if err := s.RefreshScore(ctx, videoID); err != nil {
		s.log.Warn("score refresh failed", slog.String("video_id", videoID), slog.String("error", err.Error()))
	}
}
