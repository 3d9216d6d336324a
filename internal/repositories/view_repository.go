package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/arefin-dev/cliply/backend/internal/models"
)

// MongoViewRepository implements engine.ViewStore for MongoDB. View
// records are append-only; nothing updates them after insert and the
// retention sweep is the only deleter.
type MongoViewRepository struct {
	collection *mongo.Collection
}

// NewMongoViewRepository creates a new MongoViewRepository
func NewMongoViewRepository(db *mongo.Database) *MongoViewRepository {
	return &MongoViewRepository{collection: db.Collection("views")}
}

// Insert appends a view record.
func (r *MongoViewRepository) Insert(ctx context.Context, record *models.ViewRecord) error {
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, record)
	return err
}

// CompletionCounts returns how many retained views of a video reached
// the completion threshold, and the total retained views.
func (r *MongoViewRepository) CompletionCounts(ctx context.Context, videoID string, threshold float64) (completed, total int64, err error) {
	total, err = r.collection.CountDocuments(ctx, bson.M{"video_id": videoID})
	if err != nil {
		return 0, 0, err
	}
	completed, err = r.collection.CountDocuments(ctx, bson.M{
		"video_id":              videoID,
		"completion_percentage": bson.M{"$gte": threshold},
	})
	if err != nil {
		return 0, 0, err
	}
	return completed, total, nil
}

// HasHistory reports whether a viewer has any retained view records.
func (r *MongoViewRepository) HasHistory(ctx context.Context, viewerID uint) (bool, error) {
	// one record is enough to answer the question
	count, err := r.collection.CountDocuments(ctx, bson.M{"viewer_id": viewerID},
		options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteOlderThan removes view records created before the cutoff.
func (r *MongoViewRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
