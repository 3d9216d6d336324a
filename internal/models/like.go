package models

import "time"

// Like target types.
const (
	LikeTargetContent = "content"
	LikeTargetComment = "comment"
)

// Like represents an engagement fact in the relationship ledger: one user
// liking one target. Unique per (actor, target_type, target_id), so a
// repeated like toggles the fact off rather than duplicating it.
type Like struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ActorID    uint      `json:"actor_id" gorm:"index;uniqueIndex:idx_actor_target"`
	TargetType string    `json:"target_type" gorm:"size:10;uniqueIndex:idx_actor_target"`
	TargetID   string    `json:"target_id" gorm:"size:40;index;uniqueIndex:idx_actor_target"`
	CreatedAt  time.Time `json:"created_at"`
}
