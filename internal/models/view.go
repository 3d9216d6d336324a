package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ViewRecordRetention is how long raw view records are kept before the
// purge sweep removes them.
const ViewRecordRetention = 90 * 24 * time.Hour

// ViewRecord is an append-only record of one playback of a video, stored
// in MongoDB. ViewerID is zero for anonymous playback. Completion
// percentage feeds the ranking calculator's completion-rate figure.
type ViewRecord struct {
	ID                   primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ViewerID             uint               `json:"viewer_id,omitempty" bson:"viewer_id,omitempty"`
	VideoID              string             `json:"video_id" bson:"video_id"`
	WatchDuration        float64            `json:"watch_duration" bson:"watch_duration"` // seconds
	CompletionPercentage float64            `json:"completion_percentage" bson:"completion_percentage"`
	CreatedAt            time.Time          `json:"created_at" bson:"created_at"`
}

// RecordViewRequest defines the request body for reporting a playback.
type RecordViewRequest struct {
	WatchDuration        float64 `json:"watch_duration" validate:"min=0"`
	CompletionPercentage float64 `json:"completion_percentage" validate:"min=0,max=100"`
}
