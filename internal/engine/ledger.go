package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/arefin-dev/cliply/backend/internal/models"
	"github.com/arefin-dev/cliply/backend/pkg/metrics"
)

// Ledger is the source of truth for the follow graph and the like graph.
// Toggles are idempotent check-and-flip operations: an existing fact is
// removed, a missing one is created, and a concurrent flip of the same
// key is retried a bounded number of times before surfacing a
// ConflictError. Every storage call runs under the configured timeout.
type Ledger struct {
	users    UserStore
	videos   VideoStore
	comments CommentStore
	follows  FollowStore
	likes    LikeStore
	counters *CounterStore
	notifier *Notifier

	timeout    time.Duration
	maxRetries int
	log        *slog.Logger
}

// NewLedger creates a Ledger. timeout bounds each storage call;
// maxRetries bounds internal retries of conflicting toggles.
func NewLedger(users UserStore, videos VideoStore, comments CommentStore, follows FollowStore, likes LikeStore, counters *CounterStore, notifier *Notifier, timeout time.Duration, maxRetries int, log *slog.Logger) *Ledger {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if maxRetries < 1 {
		maxRetries = 3
	}
	return &Ledger{
		users:      users,
		videos:     videos,
		comments:   comments,
		follows:    follows,
		likes:      likes,
		counters:   counters,
		notifier:   notifier,
		timeout:    timeout,
		maxRetries: maxRetries,
		log:        log,
	}
}

// ToggleFollow flips the follow fact for (actor, target) and returns the
// resulting state. The fact flip and both user counter deltas commit as
// one transaction, so the counters can never reflect half a follow.
func (l *Ledger) ToggleFollow(ctx context.Context, actorID, targetID uint) (nowFollowing bool, err error) {
	if actorID == targetID {
		metrics.Toggles.WithLabelValues("follow", "error").Inc()
		return false, &SelfReferenceError{UserID: actorID}
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	exists, err := l.users.Exists(ctx, targetID)
	if err != nil {
		return false, l.wrap("toggle follow", err)
	}
	if !exists {
		metrics.Toggles.WithLabelValues("follow", "error").Inc()
		return false, &NotFoundError{Kind: "user", ID: strconv.FormatUint(uint64(targetID), 10)}
	}

	for attempt := 0; ; attempt++ {
		nowFollowing, err = l.follows.Toggle(ctx, actorID, targetID)
		if err == nil {
			break
		}
		if IsConflict(err) && attempt < l.maxRetries-1 {
			metrics.Toggles.WithLabelValues("follow", "conflict").Inc()
			continue
		}
		return false, l.wrap("toggle follow", err)
	}

	if nowFollowing {
		metrics.Toggles.WithLabelValues("follow", "on").Inc()
		event := NewEvent(VerbFollow, actorID, targetID)
		l.notifier.FanOut(ctx, event)
	} else {
		metrics.Toggles.WithLabelValues("follow", "off").Inc()
	}
	return nowFollowing, nil
}

// ToggleLike flips the like fact for (actor, targetType, targetID) and
// returns the resulting state. Liking content adjusts the video's likes
// and the owner's total_likes; liking a comment adjusts only the
// comment's like count.
func (l *Ledger) ToggleLike(ctx context.Context, actorID uint, targetType, targetID string) (nowLiked bool, err error) {
	switch targetType {
	case models.LikeTargetContent:
		return l.toggleContentLike(ctx, actorID, targetID)
	case models.LikeTargetComment:
		return l.toggleCommentLike(ctx, actorID, targetID)
	default:
		return false, fmt.Errorf("unknown like target type %q", targetType)
	}
}

func (l *Ledger) toggleContentLike(ctx context.Context, actorID uint, videoID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	video, err := l.videos.GetByID(ctx, videoID)
	if err != nil {
		metrics.Toggles.WithLabelValues("like", "error").Inc()
		return false, l.wrap("toggle like", err)
	}

	nowLiked, err := l.flipLike(ctx, actorID, models.LikeTargetContent, videoID)
	if err != nil {
		return false, err
	}

	delta := int64(-1)
	if nowLiked {
		delta = 1
	}
	if err := l.counters.ApplyContentLike(ctx, videoID, video.OwnerID, delta); err != nil {
		// The fact is flipped; the counters will be restored from the
		// fact count by reconciliation. Surface nothing to the caller.
		l.log.Error("content like counters failed, deferring to reconciliation",
			slog.String("video_id", videoID), slog.String("error", err.Error()))
	}

	if nowLiked {
		metrics.Toggles.WithLabelValues("like", "on").Inc()
		event := NewEvent(VerbLike, actorID, video.OwnerID)
		event.VideoID = videoID
		l.notifier.FanOut(ctx, event)
	} else {
		metrics.Toggles.WithLabelValues("like", "off").Inc()
	}
	return nowLiked, nil
}

func (l *Ledger) toggleCommentLike(ctx context.Context, actorID uint, commentID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	id, err := strconv.ParseUint(commentID, 10, 32)
	if err != nil {
		return false, &NotFoundError{Kind: "comment", ID: commentID}
	}
	comment, err := l.comments.GetByID(ctx, uint(id))
	if err != nil {
		metrics.Toggles.WithLabelValues("like", "error").Inc()
		return false, l.wrap("toggle comment like", err)
	}

	nowLiked, err := l.flipLike(ctx, actorID, models.LikeTargetComment, commentID)
	if err != nil {
		return false, err
	}

	delta := int64(-1)
	if nowLiked {
		delta = 1
	}
	if err := l.counters.ApplyCommentLike(ctx, comment.ID, delta); err != nil {
		l.log.Error("comment like counter failed, deferring to reconciliation",
			slog.Uint64("comment_id", uint64(comment.ID)), slog.String("error", err.Error()))
	}

	if nowLiked {
		metrics.Toggles.WithLabelValues("like", "on").Inc()
		event := NewEvent(VerbLike, actorID, comment.UserID)
		event.VideoID = comment.VideoID
		event.CommentID = &comment.ID
		l.notifier.FanOut(ctx, event)
	} else {
		metrics.Toggles.WithLabelValues("like", "off").Inc()
	}
	return nowLiked, nil
}

func (l *Ledger) flipLike(ctx context.Context, actorID uint, targetType, targetID string) (bool, error) {
	for attempt := 0; ; attempt++ {
		nowLiked, err := l.likes.Toggle(ctx, actorID, targetType, targetID)
		if err == nil {
			return nowLiked, nil
		}
		if IsConflict(err) && attempt < l.maxRetries-1 {
			metrics.Toggles.WithLabelValues("like", "conflict").Inc()
			continue
		}
		return false, l.wrap("toggle like", err)
	}
}

// IsFollowing reports whether follower currently follows followee.
func (l *Ledger) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	return l.follows.IsFollowing(ctx, followerID, followeeID)
}

// HasLiked reports whether actor currently likes the target.
func (l *Ledger) HasLiked(ctx context.Context, actorID uint, targetType, targetID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	return l.likes.HasLiked(ctx, actorID, targetType, targetID)
}

// wrap maps storage failures to the engine error taxonomy: deadline
// overruns become TimeoutError, everything else passes through.
func (l *Ledger) wrap(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Op: op, Err: err}
	}
	return err
}
