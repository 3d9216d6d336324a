package engine

import (
	"context"
	"time"

	"github.com/arefin-dev/cliply/backend/internal/models"
)

// User counter columns owned by the counter store.
type UserCounter string

const (
	UserFollowers  UserCounter = "followers_count"
	UserFollowing  UserCounter = "following_count"
	UserTotalViews UserCounter = "total_views"
	UserTotalLikes UserCounter = "total_likes"
)

// Video counter fields owned by the counter store.
type VideoCounter string

const (
	VideoViews    VideoCounter = "views"
	VideoLikes    VideoCounter = "likes"
	VideoComments VideoCounter = "comments_count"
	VideoShares   VideoCounter = "shares"
)

// UserStore is the engine's view of user persistence.
type UserStore interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	Exists(ctx context.Context, id uint) (bool, error)
	// AdjustCounter applies a clamped delta to one aggregate column.
	AdjustCounter(ctx context.Context, userID uint, field UserCounter, delta int64) error
	// SetCounter overwrites an aggregate column; used by reconciliation.
	SetCounter(ctx context.Context, userID uint, field UserCounter, value int64) error
	// IDs returns a page of user IDs for reconciliation sweeps.
	IDs(ctx context.Context, afterID uint, limit int) ([]uint, error)
}

// FeedSort selects the ordering of a feed query.
type FeedSort int

const (
	// SortPopularity orders by (views desc, likes desc, published_at desc).
	SortPopularity FeedSort = iota
	// SortScore orders by (recommendation_score desc, published_at desc).
	SortScore
	// SortNewest orders by published_at desc.
	SortNewest
	// SortTrending orders by (views desc, likes desc).
	SortTrending
)

// FeedQuery describes one feed page. Every query implies the eligibility
// filter: public, active, moderation-approved.
type FeedQuery struct {
	Category       string
	OwnerIDs       []uint    // non-nil restricts to these owners
	PublishedAfter time.Time // zero means no window
	Sort           FeedSort
	Offset         int
	Limit          int
}

// VideoStore is the engine's view of the video document collection.
type VideoStore interface {
	Create(ctx context.Context, video *models.Video) error
	GetByID(ctx context.Context, id string) (*models.Video, error)
	Delete(ctx context.Context, id string) error
	// ListFeed returns one feed page plus the total count of items
	// matching the same filter, evaluated consistently within the call.
	ListFeed(ctx context.Context, q FeedQuery) ([]models.Video, int64, error)
	ListByOwner(ctx context.Context, ownerID uint, offset, limit int) ([]models.Video, int64, error)
	// ApplyCounterDelta atomically adjusts one counter, clamped at zero.
	ApplyCounterDelta(ctx context.Context, id string, field VideoCounter, delta int64) error
	// SetCounter overwrites one counter; used by reconciliation.
	SetCounter(ctx context.Context, id string, field VideoCounter, value int64) error
	// UpdateScore writes the derived score cache.
	UpdateScore(ctx context.Context, id string, score, engagementRate float64, at time.Time) error
	// OwnerCounterTotals sums views and likes across an owner's videos;
	// used by reconciliation to rebuild the owner aggregates.
	OwnerCounterTotals(ctx context.Context, ownerID uint) (views, likes int64, err error)
}

// FollowStore records follow facts. Toggle performs check-and-flip of the
// fact plus both user counter deltas as a single transaction; it returns
// the resulting state.
type FollowStore interface {
	Toggle(ctx context.Context, followerID, followeeID uint) (nowFollowing bool, err error)
	FollowingIDs(ctx context.Context, userID uint) ([]uint, error)
	CountFollowers(ctx context.Context, userID uint) (int64, error)
	CountFollowing(ctx context.Context, userID uint) (int64, error)
	IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error)
}

// LikeStore records like facts. Toggle performs check-and-flip of the
// fact as a single transaction and returns the resulting state; counter
// deltas are applied by the counter store afterwards and kept honest by
// the reconciliation sweep.
type LikeStore interface {
	Toggle(ctx context.Context, actorID uint, targetType, targetID string) (nowLiked bool, err error)
	CountForTarget(ctx context.Context, targetType, targetID string) (int64, error)
	CountsByTarget(ctx context.Context, targetType string, targetIDs []string) (map[string]int64, error)
	HasLiked(ctx context.Context, actorID uint, targetType, targetID string) (bool, error)
	DeleteForTarget(ctx context.Context, targetType, targetID string) error
	// DeleteForTargets removes the like facts of many targets of one type;
	// used by cascading deletes.
	DeleteForTargets(ctx context.Context, targetType string, targetIDs []string) error
}

// CommentStore persists comments.
type CommentStore interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByVideo(ctx context.Context, videoID string, offset, limit int) ([]models.Comment, int64, error)
	AdjustLikesCount(ctx context.Context, commentID uint, delta int64) error
	SetLikesCount(ctx context.Context, commentID uint, value int64) error
	// CountsByVideo returns durable comment counts keyed by video ID;
	// videos with no comments are absent from the map.
	CountsByVideo(ctx context.Context, videoIDs []string) (map[string]int64, error)
	// IDsByVideo lists the IDs of every comment on a video.
	IDsByVideo(ctx context.Context, videoID string) ([]uint, error)
	DeleteForVideo(ctx context.Context, videoID string) error
	// ReconcileLikesCounts resets every comment's likes_count to its like
	// fact count and returns how many rows changed.
	ReconcileLikesCounts(ctx context.Context) (int64, error)
}

// NotificationStore persists notification records.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, recipientID uint, offset, limit int) ([]models.Notification, int64, error)
	UnreadCount(ctx context.Context, recipientID uint) (int64, error)
	MarkRead(ctx context.Context, id uint, recipientID uint) error
	MarkAllRead(ctx context.Context, recipientID uint) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ViewStore persists append-only view records.
type ViewStore interface {
	Insert(ctx context.Context, record *models.ViewRecord) error
	// CompletionCounts returns (views with completion >= threshold, total views)
	// recorded for a video.
	CompletionCounts(ctx context.Context, videoID string, threshold float64) (completed, total int64, err error)
	HasHistory(ctx context.Context, viewerID uint) (bool, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
