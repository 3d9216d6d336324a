package models

import "time"

// Comment represents a comment on a video. A non-nil ParentID makes it a
// reply; replies notify the parent comment's author in addition to the
// video owner.
type Comment struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	VideoID    string    `json:"video_id" gorm:"size:40;index"` // MongoDB ObjectID hex
	UserID     uint      `json:"user_id" gorm:"index"`
	ParentID   *uint     `json:"parent_id,omitempty" gorm:"index"`
	Content    string    `json:"content"`
	LikesCount int64     `json:"likes_count" gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreateCommentRequest defines the request body for commenting on a video.
type CreateCommentRequest struct {
	Content  string `json:"content" validate:"required,min=1,max=500"`
	ParentID *uint  `json:"parent_id,omitempty"`
}
