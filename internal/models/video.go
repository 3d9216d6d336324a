package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Video moderation / lifecycle states.
const (
	VideoStatusActive  = "active"
	VideoStatusRemoved = "removed"

	ModerationApproved = "approved"
	ModerationPending  = "pending"
	ModerationRejected = "rejected"
)

// Video represents a short-form video document stored in MongoDB.
// The counter fields (views, likes, comments_count, shares) are adjusted
// only through the engine's counter store and never go negative.
// RecommendationScore and EngagementRate are cache of a pure function of
// the counters plus age, recomputed on every counter change or lazily on
// read once stale; ScoreUpdatedAt tracks the cache's freshness.
type Video struct {
	ID                  primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	OwnerID             uint               `json:"owner_id" bson:"owner_id"`
	Title               string             `json:"title" bson:"title"`
	Description         string             `json:"description,omitempty" bson:"description,omitempty"`
	VideoURL            string             `json:"video_url" bson:"video_url"`
	ThumbnailURL        string             `json:"thumbnail_url,omitempty" bson:"thumbnail_url,omitempty"`
	Category            string             `json:"category,omitempty" bson:"category,omitempty"`
	Tags                []string           `json:"tags,omitempty" bson:"tags,omitempty"`
	Views               int64              `json:"views" bson:"views"`
	Likes               int64              `json:"likes" bson:"likes"`
	CommentsCount       int64              `json:"comments_count" bson:"comments_count"`
	Shares              int64              `json:"shares" bson:"shares"`
	RecommendationScore float64            `json:"recommendation_score" bson:"recommendation_score"`
	EngagementRate      float64            `json:"engagement_rate" bson:"engagement_rate"`
	ScoreUpdatedAt      time.Time          `json:"-" bson:"score_updated_at"`
	IsPublic            bool               `json:"is_public" bson:"is_public"`
	Status              string             `json:"status" bson:"status"`
	Moderation          string             `json:"moderation" bson:"moderation"`
	PublishedAt         time.Time          `json:"published_at" bson:"published_at"`
	UpdatedAt           time.Time          `json:"updated_at" bson:"updated_at"`
}

// CreateVideoRequest defines the request body for publishing a video.
// The media itself is already uploaded to blob storage by the time this
// record is created; the engine only sees the resulting URLs.
type CreateVideoRequest struct {
	Title        string   `json:"title" validate:"required,min=1,max=120"`
	Description  string   `json:"description,omitempty" validate:"omitempty,max=1000"`
	VideoURL     string   `json:"video_url" validate:"required,url"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty" validate:"omitempty,url"`
	Category     string   `json:"category,omitempty" validate:"omitempty,max=40"`
	Tags         []string `json:"tags,omitempty" validate:"omitempty,max=10,dive,min=1,max=30"`
	IsPublic     *bool    `json:"is_public,omitempty"`
}
