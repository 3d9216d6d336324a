package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/arefin-dev/cliply/backend/internal/engine"
	"github.com/arefin-dev/cliply/backend/internal/models"
)

// PostgresFollowRepository implements engine.FollowStore for PostgreSQL.
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

// Toggle flips the follow fact for (follower, followee) and applies both
// user counter deltas in the same transaction. The delete-first order
// plus the composite unique index make the flip safe under concurrency:
// two racing "follow" calls serialize on the index, and the loser's
// duplicate insert surfaces as a ConflictError for the ledger to retry.
func (r *PostgresFollowRepository) Toggle(ctx context.Context, followerID, followeeID uint) (nowFollowing bool, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
			Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			nowFollowing = false
			return applyFollowDeltas(tx, followerID, followeeID, -1)
		}
		if err := tx.Create(&models.Follow{FollowerID: followerID, FolloweeID: followeeID}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &engine.ConflictError{Op: "toggle follow", Err: err}
			}
			return err
		}
		nowFollowing = true
		return applyFollowDeltas(tx, followerID, followeeID, 1)
	})
	if err != nil {
		return false, err
	}
	return nowFollowing, nil
}

// applyFollowDeltas adjusts the follower's following_count and the
// followee's followers_count with the same sign inside tx.
func applyFollowDeltas(tx *gorm.DB, followerID, followeeID uint, delta int64) error {
	if err := adjustUserCounter(tx, followerID, engine.UserFollowing, delta); err != nil {
		return err
	}
	return adjustUserCounter(tx, followeeID, engine.UserFollowers, delta)
}

// IsFollowing reports whether the follow fact exists.
func (r *PostgresFollowRepository) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FollowingIDs returns the IDs of every user the given user follows.
func (r *PostgresFollowRepository) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("followee_id", &ids).Error
	return ids, err
}

// CountFollowers returns the follow fact count with the user as followee.
func (r *PostgresFollowRepository) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("followee_id = ?", userID).Count(&count).Error
	return count, err
}

// CountFollowing returns the follow fact count with the user as follower.
func (r *PostgresFollowRepository) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).Count(&count).Error
	return count, err
}
