package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User represents a platform account (PostgreSQL).
// The four aggregate columns are derived counters owned by the engine's
// counter store; at any quiescent point they equal the corresponding fact
// counts in the relationship ledger.
type User struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Username       string    `json:"username" gorm:"size:40;uniqueIndex"`
	DisplayName    string    `json:"display_name" gorm:"size:80"`
	Email          string    `json:"email" gorm:"uniqueIndex"`
	Bio            string    `json:"bio,omitempty" gorm:"size:300"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	FollowersCount int64     `json:"followers_count" gorm:"not null;default:0"`
	FollowingCount int64     `json:"following_count" gorm:"not null;default:0"`
	TotalViews     int64     `json:"total_views" gorm:"not null;default:0"`
	TotalLikes     int64     `json:"total_likes" gorm:"not null;default:0"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserCompact is the author payload embedded in feed and comment responses.
type UserCompact struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// ToCompact converts a User to its compact representation.
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
