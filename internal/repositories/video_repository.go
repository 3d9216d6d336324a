package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/arefin-dev/cliply/backend/internal/engine"
	"github.com/arefin-dev/cliply/backend/internal/models"
)

// MongoVideoRepository implements engine.VideoStore for MongoDB.
type MongoVideoRepository struct {
	collection *mongo.Collection
}

// NewMongoVideoRepository creates a new MongoVideoRepository
func NewMongoVideoRepository(db *mongo.Database) *MongoVideoRepository {
	return &MongoVideoRepository{collection: db.Collection("videos")}
}

// Create inserts a new video document.
func (r *MongoVideoRepository) Create(ctx context.Context, video *models.Video) error {
	if video.ID.IsZero() {
		video.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, video)
	return err
}

// GetByID retrieves a video by its hex ID.
func (r *MongoVideoRepository) GetByID(ctx context.Context, id string) (*models.Video, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, &engine.NotFoundError{Kind: "video", ID: id}
	}
	var video models.Video
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&video)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &engine.NotFoundError{Kind: "video", ID: id}
		}
		return nil, err
	}
	return &video, nil
}

// Delete removes a video document.
func (r *MongoVideoRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return &engine.NotFoundError{Kind: "video", ID: id}
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return &engine.NotFoundError{Kind: "video", ID: id}
	}
	return nil
}

// ApplyCounterDelta atomically adjusts one counter field, clamped at
// zero so a decrement can never drive the counter negative.
func (r *MongoVideoRepository) ApplyCounterDelta(ctx context.Context, id string, field engine.VideoCounter, delta int64) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return &engine.NotFoundError{Kind: "video", ID: id}
	}
	column := string(field)
	update := bson.A{bson.M{"$set": bson.M{
		column:       bson.M{"$max": bson.A{0, bson.M{"$add": bson.A{"$" + column, delta}}}},
		"updated_at": time.Now().UTC(),
	}}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &engine.NotFoundError{Kind: "video", ID: id}
	}
	return nil
}

// SetCounter overwrites one counter field; used by reconciliation.
func (r *MongoVideoRepository) SetCounter(ctx context.Context, id string, field engine.VideoCounter, value int64) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return &engine.NotFoundError{Kind: "video", ID: id}
	}
	if value < 0 {
		value = 0
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID},
		bson.M{"$set": bson.M{string(field): value, "updated_at": time.Now().UTC()}})
	return err
}

// UpdateScore writes the derived score cache.
func (r *MongoVideoRepository) UpdateScore(ctx context.Context, id string, score, engagementRate float64, at time.Time) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return &engine.NotFoundError{Kind: "video", ID: id}
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": bson.M{
		"recommendation_score": score,
		"engagement_rate":      engagementRate,
		"score_updated_at":     at,
	}})
	return err
}

// ListFeed returns one feed page plus the total count of eligible items.
// The filter document is built once and reused for both the count and the
// page, so totalCount always reflects the same predicate as the items.
func (r *MongoVideoRepository) ListFeed(ctx context.Context, q engine.FeedQuery) ([]models.Video, int64, error) {
	filter := bson.M{
		"is_public":  true,
		"status":     models.VideoStatusActive,
		"moderation": models.ModerationApproved,
	}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.OwnerIDs != nil {
		filter["owner_id"] = bson.M{"$in": q.OwnerIDs}
	}
	if !q.PublishedAfter.IsZero() {
		filter["published_at"] = bson.M{"$gte": q.PublishedAfter}
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	var sort bson.D
	switch q.Sort {
	case engine.SortScore:
		sort = bson.D{{Key: "recommendation_score", Value: -1}, {Key: "published_at", Value: -1}}
	case engine.SortNewest:
		sort = bson.D{{Key: "published_at", Value: -1}}
	case engine.SortTrending:
		sort = bson.D{{Key: "views", Value: -1}, {Key: "likes", Value: -1}}
	default:
		sort = bson.D{{Key: "views", Value: -1}, {Key: "likes", Value: -1}, {Key: "published_at", Value: -1}}
	}

	findOptions := options.Find().SetSort(sort).SetSkip(int64(q.Offset)).SetLimit(int64(q.Limit))
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var videos []models.Video
	if err = cursor.All(ctx, &videos); err != nil {
		return nil, 0, err
	}
	return videos, total, nil
}

// ListByOwner returns one page of a user's videos, newest first, plus the
// total count.
func (r *MongoVideoRepository) ListByOwner(ctx context.Context, ownerID uint, offset, limit int) ([]models.Video, int64, error) {
	filter := bson.M{"owner_id": ownerID}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "published_at", Value: -1}}).
		SetSkip(int64(offset)).SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var videos []models.Video
	if err = cursor.All(ctx, &videos); err != nil {
		return nil, 0, err
	}
	return videos, total, nil
}

// OwnerCounterTotals sums views and likes across an owner's videos.
func (r *MongoVideoRepository) OwnerCounterTotals(ctx context.Context, ownerID uint) (views, likes int64, err error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"owner_id": ownerID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"views": bson.M{"$sum": "$views"},
			"likes": bson.M{"$sum": "$likes"},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, err
	}
	defer cursor.Close(ctx)

	var result []struct {
		Views int64 `bson:"views"`
		Likes int64 `bson:"likes"`
	}
	if err = cursor.All(ctx, &result); err != nil {
		return 0, 0, err
	}
	if len(result) == 0 {
		return 0, 0, nil
	}
	return result[0].Views, result[0].Likes, nil
}
