package models

import "time"

// Follow represents a directed follow fact in the relationship ledger.
// At most one fact exists per ordered (follower, followee) pair, enforced
// by the composite unique index; self-follows are rejected by the engine
// before a row is ever written.
type Follow struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	FollowerID uint      `json:"follower_id" gorm:"index;uniqueIndex:idx_follower_followee"`
	FolloweeID uint      `json:"followee_id" gorm:"index;uniqueIndex:idx_follower_followee"`
	CreatedAt  time.Time `json:"created_at"`
}
