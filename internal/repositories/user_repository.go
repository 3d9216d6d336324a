package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/arefin-dev/cliply/backend/internal/engine"
	"github.com/arefin-dev/cliply/backend/internal/models"
)

// PostgresUserRepository implements engine.UserStore for PostgreSQL.
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// GetByID retrieves a user by ID.
func (r *PostgresUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &engine.NotFoundError{Kind: "user", ID: strconv.FormatUint(uint64(id), 10)}
		}
		return nil, err
	}
	return &user, nil
}

// GetByUsername retrieves a user by username.
func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &engine.NotFoundError{Kind: "user", ID: username}
		}
		return nil, err
	}
	return &user, nil
}

// Exists reports whether a user with the given ID exists.
func (r *PostgresUserRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// AdjustCounter applies a delta to one aggregate column, clamped at zero.
func (r *PostgresUserRepository) AdjustCounter(ctx context.Context, userID uint, field engine.UserCounter, delta int64) error {
	return adjustUserCounter(r.db.WithContext(ctx), userID, field, delta)
}

// SetCounter overwrites one aggregate column.
func (r *PostgresUserRepository) SetCounter(ctx context.Context, userID uint, field engine.UserCounter, value int64) error {
	if value < 0 {
		value = 0
	}
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn(string(field), value).Error
}

// IDs returns up to limit user IDs greater than afterID, in ascending order.
func (r *PostgresUserRepository) IDs(ctx context.Context, afterID uint, limit int) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id > ?", afterID).Order("id asc").Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// adjustUserCounter applies a clamped counter delta through the given
// handle, which may be a transaction. Shared with the follow repository
// so follow flips can adjust both sides inside their own transaction.
func adjustUserCounter(db *gorm.DB, userID uint, field engine.UserCounter, delta int64) error {
	column := string(field)
	switch field {
	case engine.UserFollowers, engine.UserFollowing, engine.UserTotalViews, engine.UserTotalLikes:
	default:
		return fmt.Errorf("unknown user counter %q", column)
	}
	return db.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn(column, gorm.Expr("GREATEST(0, "+column+" + ?)", delta)).Error
}
