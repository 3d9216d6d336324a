package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/arefin-dev/cliply/backend/internal/engine"
	"github.com/arefin-dev/cliply/backend/internal/models"
)

// PostgresLikeRepository implements engine.LikeStore for PostgreSQL.
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

// Toggle flips the like fact for (actor, targetType, targetID) as one
// transaction. A duplicate insert from a racing toggle surfaces as a
// ConflictError for the ledger to retry.
func (r *PostgresLikeRepository) Toggle(ctx context.Context, actorID uint, targetType, targetID string) (nowLiked bool, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("actor_id = ? AND target_type = ? AND target_id = ?", actorID, targetType, targetID).
			Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			nowLiked = false
			return nil
		}
		if err := tx.Create(&models.Like{ActorID: actorID, TargetType: targetType, TargetID: targetID}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &engine.ConflictError{Op: "toggle like", Err: err}
			}
			return err
		}
		nowLiked = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return nowLiked, nil
}

// HasLiked reports whether the like fact exists.
func (r *PostgresLikeRepository) HasLiked(ctx context.Context, actorID uint, targetType, targetID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("actor_id = ? AND target_type = ? AND target_id = ?", actorID, targetType, targetID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountForTarget returns the like fact count for one target.
func (r *PostgresLikeRepository) CountForTarget(ctx context.Context, targetType, targetID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Count(&count).Error
	return count, err
}

// CountsByTarget returns like fact counts keyed by target ID. Targets
// with no facts are absent from the map.
func (r *PostgresLikeRepository) CountsByTarget(ctx context.Context, targetType string, targetIDs []string) (map[string]int64, error) {
	type row struct {
		TargetID string
		N        int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Select("target_id, count(*) as n").
		Where("target_type = ? AND target_id IN ?", targetType, targetIDs).
		Group("target_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.TargetID] = r.N
	}
	return counts, nil
}

// DeleteForTarget removes every like fact for one target; used when the
// target itself is deleted.
func (r *PostgresLikeRepository) DeleteForTarget(ctx context.Context, targetType, targetID string) error {
	return r.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Delete(&models.Like{}).Error
}

// DeleteForTargets removes the like facts for a batch of targets of one
// type in a single statement.
func (r *PostgresLikeRepository) DeleteForTargets(ctx context.Context, targetType string, targetIDs []string) error {
	if len(targetIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("target_type = ? AND target_id IN ?", targetType, targetIDs).
		Delete(&models.Like{}).Error
}
