package repositories

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"

	"github.com/arefin-dev/cliply/backend/internal/engine"
	"github.com/arefin-dev/cliply/backend/internal/models"
)

// PostgresCommentRepository implements engine.CommentStore for PostgreSQL.
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

// Create inserts a new comment.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// GetByID retrieves a comment by ID.
func (r *PostgresCommentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &engine.NotFoundError{Kind: "comment", ID: strconv.FormatUint(uint64(id), 10)}
		}
		return nil, err
	}
	return &comment, nil
}

// ListByVideo returns one page of a video's comments, newest first, plus
// the total count under the same predicate.
func (r *PostgresCommentRepository) ListByVideo(ctx context.Context, videoID string, offset, limit int) ([]models.Comment, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("video_id = ?", videoID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&comments).Error
	return comments, total, err
}

// AdjustLikesCount applies a clamped delta to a comment's like counter.
func (r *PostgresCommentRepository) AdjustLikesCount(ctx context.Context, commentID uint, delta int64) error {
	return r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", commentID).
		UpdateColumn("likes_count", gorm.Expr("GREATEST(0, likes_count + ?)", delta)).Error
}

// SetLikesCount overwrites a comment's like counter.
func (r *PostgresCommentRepository) SetLikesCount(ctx context.Context, commentID uint, value int64) error {
	if value < 0 {
		value = 0
	}
	return r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", commentID).
		UpdateColumn("likes_count", value).Error
}

// CountsByVideo returns comment counts grouped by video ID. Videos with
// no comments are absent from the map.
func (r *PostgresCommentRepository) CountsByVideo(ctx context.Context, videoIDs []string) (map[string]int64, error) {
	if len(videoIDs) == 0 {
		return map[string]int64{}, nil
	}
	type row struct {
		VideoID string
		N       int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Select("video_id, count(*) as n").
		Where("video_id IN ?", videoIDs).
		Group("video_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.VideoID] = r.N
	}
	return counts, nil
}

// IDsByVideo lists the IDs of every comment on a video.
func (r *PostgresCommentRepository) IDsByVideo(ctx context.Context, videoID string) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("video_id = ?", videoID).
		Pluck("id", &ids).Error
	return ids, err
}

// DeleteForVideo removes every comment on a video.
func (r *PostgresCommentRepository) DeleteForVideo(ctx context.Context, videoID string) error {
	return r.db.WithContext(ctx).Where("video_id = ?", videoID).Delete(&models.Comment{}).Error
}

// ReconcileLikesCounts resets every drifted comment like counter to its
// like fact count in a single statement.
func (r *PostgresCommentRepository) ReconcileLikesCounts(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE comments SET likes_count = fact.n
		FROM (
			SELECT c.id, COALESCE(l.n, 0) AS n
			FROM comments c
			LEFT JOIN (
				SELECT target_id, count(*) AS n
				FROM likes
				WHERE target_type = 'comment'
				GROUP BY target_id
			) l ON l.target_id = c.id::text
		) fact
		WHERE comments.id = fact.id AND comments.likes_count <> fact.n`)
	return res.RowsAffected, res.Error
}
