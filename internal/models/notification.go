package models

import "time"

// Notification kinds.
const (
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationFollow  = "follow"
	NotificationReply   = "reply"
	NotificationMention = "mention"
	NotificationShare   = "share"
)

// NotificationRetention is how long a notification survives before the
// purge sweep removes it, read or not.
const NotificationRetention = 30 * 24 * time.Hour

// Notification represents a user notification (PostgreSQL). Created at
// most once per triggering social event; mutated only by the unread→read
// transition; purged after ExpiresAt by the background sweep.
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Kind        string    `json:"kind" gorm:"size:20;index"`
	SenderID    uint      `json:"sender_id" gorm:"index"`
	RecipientID uint      `json:"recipient_id" gorm:"index"`
	VideoID     string    `json:"video_id,omitempty" gorm:"size:40"`
	CommentID   *uint     `json:"comment_id,omitempty"`
	Message     string    `json:"message"`
	IsRead      bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
	ExpiresAt   time.Time `json:"expires_at" gorm:"index"`
}
