package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/arefin-dev/cliply/backend/internal/models"
)

// PostgresNotificationRepository implements engine.NotificationStore for
// PostgreSQL.
type PostgresNotificationRepository struct {
	db *gorm.DB
}

// NewPostgresNotificationRepository creates a new PostgresNotificationRepository
func NewPostgresNotificationRepository(db *gorm.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

// Create inserts a notification record.
func (r *PostgresNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// ListByRecipient returns one page of a recipient's notifications,
// newest first, plus the total count.
func (r *PostgresNotificationRepository) ListByRecipient(ctx context.Context, recipientID uint, offset, limit int) ([]models.Notification, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ?", recipientID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var notifications []models.Notification
	err := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error
	return notifications, total, err
}

// UnreadCount returns the number of unread notifications for a recipient.
func (r *PostgresNotificationRepository) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = false", recipientID).
		Count(&count).Error
	return count, err
}

// MarkRead marks one notification read. Already-read (or missing)
// notifications are a no-op.
func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, id uint, recipientID uint) error {
	return r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true).Error
}

// MarkAllRead marks every unread notification of a recipient read.
func (r *PostgresNotificationRepository) MarkAllRead(ctx context.Context, recipientID uint) error {
	return r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = false", recipientID).
		Update("is_read", true).Error
}

// DeleteExpired removes notifications whose retention window has passed,
// read or not. Returns the number of rows removed.
func (r *PostgresNotificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
