package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arefin-dev/cliply/backend/internal/models"
	"github.com/arefin-dev/cliply/backend/pkg/metrics"
)

// Reconciler is the safety net of the counter store. The follow path is
// transactional, but the like and view paths write a fact in Postgres
// and a counter in MongoDB with no shared transaction, so the counters
// can drift from the ledger. The reconciler periodically resets every
// drifted counter to the count derivable from the facts: drift is
// logged and healed, never ignored and never fatal to serving.
type Reconciler struct {
	users    UserStore
	videos   VideoStore
	follows  FollowStore
	likes    LikeStore
	comments CommentStore
	log      *slog.Logger

	// PageSize bounds how many users one sweep pass loads at a time.
	PageSize int
}

// NewReconciler creates a Reconciler.
func NewReconciler(users UserStore, videos VideoStore, follows FollowStore, likes LikeStore, comments CommentStore, log *slog.Logger) *Reconciler {
	return &Reconciler{
		users:    users,
		videos:   videos,
		follows:  follows,
		likes:    likes,
		comments: comments,
		log:      log,
		PageSize: 200,
	}
}

// Run performs one full reconciliation sweep. It walks all users in ID
// order, fixing follow counters against the fact counts, per-video like
// counters against the like facts, and the owner aggregates against the
// (just repaired) video counters. Per-user failures are logged and the
// sweep moves on.
func (r *Reconciler) Run(ctx context.Context) (repaired int64, err error) {
	commentFixes, err := r.comments.ReconcileLikesCounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("reconcile comment like counts: %w", err)
	}
	if commentFixes > 0 {
		metrics.DriftRepairs.WithLabelValues("comment_likes").Add(float64(commentFixes))
		repaired += commentFixes
	}

	var afterID uint
	for {
		ids, err := r.users.IDs(ctx, afterID, r.PageSize)
		if err != nil {
			return repaired, fmt.Errorf("list user ids: %w", err)
		}
		if len(ids) == 0 {
			return repaired, nil
		}
		for _, id := range ids {
			if ctx.Err() != nil {
				return repaired, ctx.Err()
			}
			n, err := r.reconcileUser(ctx, id)
			if err != nil {
				r.log.Error("user reconciliation failed",
					slog.Uint64("user_id", uint64(id)), slog.String("error", err.Error()))
				continue
			}
			repaired += n
		}
		afterID = ids[len(ids)-1]
	}
}

func (r *Reconciler) reconcileUser(ctx context.Context, userID uint) (repaired int64, err error) {
	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}

	followers, err := r.follows.CountFollowers(ctx, userID)
	if err != nil {
		return 0, err
	}
	repaired += r.fixUserCounter(ctx, user, UserFollowers, user.FollowersCount, followers)

	following, err := r.follows.CountFollowing(ctx, userID)
	if err != nil {
		return 0, err
	}
	repaired += r.fixUserCounter(ctx, user, UserFollowing, user.FollowingCount, following)

	n, err := r.reconcileOwnedVideos(ctx, userID)
	if err != nil {
		return repaired, err
	}
	repaired += n

	totalViews, totalLikes, err := r.videos.OwnerCounterTotals(ctx, userID)
	if err != nil {
		return repaired, err
	}
	repaired += r.fixUserCounter(ctx, user, UserTotalViews, user.TotalViews, totalViews)
	repaired += r.fixUserCounter(ctx, user, UserTotalLikes, user.TotalLikes, totalLikes)
	return repaired, nil
}

// reconcileOwnedVideos resets each owned video's like and comment
// counters to the counts of their durable rows. Views are not
// fact-backed (view records expire before the counter does), so they
// are left alone.
func (r *Reconciler) reconcileOwnedVideos(ctx context.Context, ownerID uint) (repaired int64, err error) {
	const pageSize = 100
	for offset := 0; ; offset += pageSize {
		videos, _, err := r.videos.ListByOwner(ctx, ownerID, offset, pageSize)
		if err != nil {
			return repaired, err
		}
		if len(videos) == 0 {
			return repaired, nil
		}
		ids := make([]string, len(videos))
		for i := range videos {
			ids[i] = videos[i].ID.Hex()
		}
		likeCounts, err := r.likes.CountsByTarget(ctx, models.LikeTargetContent, ids)
		if err != nil {
			return repaired, err
		}
		commentCounts, err := r.comments.CountsByVideo(ctx, ids)
		if err != nil {
			return repaired, err
		}
		for i := range videos {
			id := ids[i]
			if want := likeCounts[id]; videos[i].Likes != want {
				if err := r.videos.SetCounter(ctx, id, VideoLikes, want); err != nil {
					return repaired, err
				}
				r.log.Warn("video like counter drift repaired",
					slog.String("video_id", id),
					slog.Int64("stored", videos[i].Likes),
					slog.Int64("fact_count", want))
				metrics.DriftRepairs.WithLabelValues("video_likes").Inc()
				repaired++
			}
			if want := commentCounts[id]; videos[i].CommentsCount != want {
				if err := r.videos.SetCounter(ctx, id, VideoComments, want); err != nil {
					return repaired, err
				}
				r.log.Warn("video comment counter drift repaired",
					slog.String("video_id", id),
					slog.Int64("stored", videos[i].CommentsCount),
					slog.Int64("fact_count", want))
				metrics.DriftRepairs.WithLabelValues("video_comments").Inc()
				repaired++
			}
		}
		if len(videos) < pageSize {
			return repaired, nil
		}
	}
}

func (r *Reconciler) fixUserCounter(ctx context.Context, user *models.User, field UserCounter, stored, want int64) int64 {
	if stored == want {
		return 0
	}
	if err := r.users.SetCounter(ctx, user.ID, field, want); err != nil {
		r.log.Error("counter repair failed",
			slog.Uint64("user_id", uint64(user.ID)),
			slog.String("counter", string(field)),
			slog.String("error", err.Error()))
		return 0
	}
	r.log.Warn("user counter drift repaired",
		slog.Uint64("user_id", uint64(user.ID)),
		slog.String("counter", string(field)),
		slog.Int64("stored", stored),
		slog.Int64("fact_count", want))
	metrics.DriftRepairs.WithLabelValues(string(field)).Inc()
	return 1
}
