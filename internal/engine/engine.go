// Package engine implements the engagement and ranking consistency
// engine: the relationship ledger, the counter store, the ranking
// calculator, the feed assembler and the notification fan-out. All
// counter mutation on the platform goes through this package.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/arefin-dev/cliply/backend/internal/models"
)

// CompletionThreshold is the completion percentage at which a view
// counts as a completed playback.
const CompletionThreshold = 90.0

// Engine bundles the engagement components and carries the operations
// that span more than one of them: views, comments, shares and the
// video lifecycle with its owner-aggregate compensation.
type Engine struct {
	Ledger   *Ledger
	Counters *CounterStore
	Feed     *FeedAssembler
	Notifier *Notifier
	Ranking  *Ranking

	users    UserStore
	videos   VideoStore
	comments CommentStore
	likes    LikeStore
	views    ViewStore
	timeout  time.Duration
	log      *slog.Logger
}

// New creates an Engine from its components and stores.
func New(ledger *Ledger, counters *CounterStore, feed *FeedAssembler, notifier *Notifier, ranking *Ranking,
	users UserStore, videos VideoStore, comments CommentStore, likes LikeStore, views ViewStore,
	timeout time.Duration, log *slog.Logger) *Engine {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Engine{
		Ledger:   ledger,
		Counters: counters,
		Feed:     feed,
		Notifier: notifier,
		Ranking:  ranking,
		users:    users,
		videos:   videos,
		comments: comments,
		likes:    likes,
		views:    views,
		timeout:  timeout,
		log:      log,
	}
}

// PublishVideo creates the video record once the media is already in
// blob storage. New videos start active, approved and with zero
// counters, which yields a zero score.
func (e *Engine) PublishVideo(ctx context.Context, ownerID uint, req *models.CreateVideoRequest) (*models.Video, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}
	now := time.Now().UTC()
	video := &models.Video{
		OwnerID:        ownerID,
		Title:          req.Title,
		Description:    req.Description,
		VideoURL:       req.VideoURL,
		ThumbnailURL:   req.ThumbnailURL,
		Category:       req.Category,
		Tags:           req.Tags,
		IsPublic:       isPublic,
		Status:         models.VideoStatusActive,
		Moderation:     models.ModerationApproved,
		PublishedAt:    now,
		ScoreUpdatedAt: now,
		UpdatedAt:      now,
	}
	if err := e.videos.Create(ctx, video); err != nil {
		return nil, e.wrap("publish video", err)
	}
	return video, nil
}

// GetVideo returns one video, refreshing its score cache when stale. The
// completion rate is computed from the retained view records on each
// detail read rather than cached.
func (e *Engine) GetVideo(ctx context.Context, id string) (*models.Video, float64, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	video, err := e.videos.GetByID(ctx, id)
	if err != nil {
		return nil, 0, e.wrap("get video", err)
	}
	now := time.Now().UTC()
	if e.Ranking.Stale(video.ScoreUpdatedAt, now) {
		c := Counters{Views: video.Views, Likes: video.Likes, Comments: video.CommentsCount, Shares: video.Shares, PublishedAt: video.PublishedAt}
		video.RecommendationScore = e.Ranking.Score(c, now)
		video.EngagementRate = e.Ranking.EngagementRate(c)
		if err := e.videos.UpdateScore(ctx, id, video.RecommendationScore, video.EngagementRate, now); err != nil {
			e.log.Warn("lazy score refresh failed", slog.String("video_id", id), slog.String("error", err.Error()))
		}
	}
	completed, total, err := e.views.CompletionCounts(ctx, id, CompletionThreshold)
	if err != nil {
		e.log.Warn("completion counts failed", slog.String("video_id", id), slog.String("error", err.Error()))
		return video, 0, nil
	}
	return video, e.Ranking.CompletionRate(completed, total), nil
}

// RemoveVideo deletes a video and compensates every aggregate it fed:
// the owner's total_views and total_likes lose the video's contribution,
// and the video's like facts, its comments and the like facts on those
// comments are removed so the ledger stops counting them.
func (e *Engine) RemoveVideo(ctx context.Context, actorID uint, videoID string) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	video, err := e.videos.GetByID(ctx, videoID)
	if err != nil {
		return e.wrap("remove video", err)
	}
	if video.OwnerID != actorID {
		return &NotFoundError{Kind: "video", ID: videoID}
	}

	if err := e.Counters.RemoveOwnerContribution(ctx, video.OwnerID, video.Views, video.Likes); err != nil {
		e.log.Error("owner aggregate compensation failed, deferring to reconciliation",
			slog.String("video_id", videoID), slog.String("error", err.Error()))
	}
	if err := e.likes.DeleteForTarget(ctx, models.LikeTargetContent, videoID); err != nil {
		return e.wrap("remove video likes", err)
	}
	commentIDs, err := e.comments.IDsByVideo(ctx, videoID)
	if err != nil {
		return e.wrap("remove video comment likes", err)
	}
	if len(commentIDs) > 0 {
		targets := make([]string, len(commentIDs))
		for i, id := range commentIDs {
			targets[i] = strconv.FormatUint(uint64(id), 10)
		}
		if err := e.likes.DeleteForTargets(ctx, models.LikeTargetComment, targets); err != nil {
			return e.wrap("remove video comment likes", err)
		}
	}
	if err := e.comments.DeleteForVideo(ctx, videoID); err != nil {
		return e.wrap("remove video comments", err)
	}
	if err := e.videos.Delete(ctx, videoID); err != nil {
		return e.wrap("remove video", err)
	}
	return nil
}

// RecordView appends a view record and applies the view deltas. viewerID
// is nil for anonymous playback; anonymous views still count.
func (e *Engine) RecordView(ctx context.Context, viewerID *uint, videoID string, req *models.RecordViewRequest) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	video, err := e.videos.GetByID(ctx, videoID)
	if err != nil {
		return e.wrap("record view", err)
	}

	record := &models.ViewRecord{
		VideoID:              videoID,
		WatchDuration:        req.WatchDuration,
		CompletionPercentage: req.CompletionPercentage,
		CreatedAt:            time.Now().UTC(),
	}
	if viewerID != nil {
		record.ViewerID = *viewerID
	}
	if err := e.views.Insert(ctx, record); err != nil {
		return e.wrap("record view", err)
	}
	// View counters are best effort and not fact-backed, so a lost delta
	// stays lost; the view record is kept and still feeds completion.
	if err := e.Counters.ApplyView(ctx, videoID, video.OwnerID); err != nil {
		e.log.Error("view counters failed, view record kept without counter delta",
			slog.String("video_id", videoID), slog.String("error", err.Error()))
	}
	return nil
}

// AddComment creates a comment or reply, bumps the video's comment
// count and fans out notifications: the video owner gets a comment
// notification, and for replies the parent comment's author additionally
// gets a reply notification, each suppressed when directed at the actor.
func (e *Engine) AddComment(ctx context.Context, actorID uint, videoID string, req *models.CreateCommentRequest) (*models.Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	video, err := e.videos.GetByID(ctx, videoID)
	if err != nil {
		return nil, e.wrap("add comment", err)
	}

	var parent *models.Comment
	if req.ParentID != nil {
		parent, err = e.comments.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, e.wrap("add comment", err)
		}
		if parent.VideoID != videoID {
			return nil, &NotFoundError{Kind: "comment", ID: strconv.FormatUint(uint64(*req.ParentID), 10)}
		}
	}

	comment := &models.Comment{
		VideoID:  videoID,
		UserID:   actorID,
		ParentID: req.ParentID,
		Content:  req.Content,
	}
	if err := e.comments.Create(ctx, comment); err != nil {
		return nil, e.wrap("add comment", err)
	}
	if err := e.Counters.ApplyComment(ctx, videoID, 1); err != nil {
		e.log.Error("comment counter failed, deferring to reconciliation",
			slog.String("video_id", videoID), slog.String("error", err.Error()))
	}

	event := NewEvent(VerbComment, actorID, video.OwnerID)
	event.VideoID = videoID
	event.CommentID = &comment.ID
	if parent != nil {
		e.Notifier.FanOutReply(ctx, event, parent.UserID)
		// The owner still gets the comment notification unless they are
		// the commenter or the parent author already notified above.
		if video.OwnerID != parent.UserID {
			e.Notifier.FanOut(ctx, event)
		}
	} else {
		e.Notifier.FanOut(ctx, event)
	}
	return comment, nil
}

// ListComments returns one page of a video's comments, newest first.
func (e *Engine) ListComments(ctx context.Context, videoID string, page, pageSize int) ([]models.Comment, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if _, err := e.videos.GetByID(ctx, videoID); err != nil {
		return nil, 0, e.wrap("list comments", err)
	}
	page, pageSize = clampPage(page, pageSize)
	return e.comments.ListByVideo(ctx, videoID, (page-1)*pageSize, pageSize)
}

// ShareVideo records a share: bumps the share counter and notifies the
// owner.
func (e *Engine) ShareVideo(ctx context.Context, actorID uint, videoID string) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	video, err := e.videos.GetByID(ctx, videoID)
	if err != nil {
		return e.wrap("share video", err)
	}
	if err := e.Counters.ApplyShare(ctx, videoID, 1); err != nil {
		return e.wrap("share video", err)
	}
	event := NewEvent(models.NotificationShare, actorID, video.OwnerID)
	event.VideoID = videoID
	if actorID != video.OwnerID {
		actorName := e.Notifier.actorName(ctx, actorID)
		e.Notifier.create(ctx, models.NotificationShare, actorName+" shared your video", event, video.OwnerID)
	}
	return nil
}

// ListVideosByOwner returns one page of a user's videos, newest first.
func (e *Engine) ListVideosByOwner(ctx context.Context, ownerID uint, page, pageSize int) ([]models.Video, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	page, pageSize = clampPage(page, pageSize)
	return e.videos.ListByOwner(ctx, ownerID, (page-1)*pageSize, pageSize)
}

func (e *Engine) wrap(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Op: op, Err: err}
	}
	return err
}
