package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"scentshop/internal/domain"
)

func (s *Store) InsertReview(ctx context.Context, r *domain.Review) error {
	pid, err := primitive.ObjectIDFromHex(r.ProductID)
	if err != nil {
		return domain.ErrNotFound
	}
	id, err := objectID(r.ID)
	if err != nil {
		return domain.Invalid("invalid review id")
	}
	if _, err := s.reviews.InsertOne(ctx, toReviewDoc(*r, id, pid)); err != nil {
		return mapErr(err)
	}
	r.ID = id.Hex()
	return nil
}

func (s *Store) ListReviews(ctx context.Context, productID string, q domain.ReviewQuery) ([]domain.Review, int64, error) {
	pid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return []domain.Review{}, 0, nil
	}
	match := bson.M{"productId": pid}
	total, err := s.reviews.CountDocuments(ctx, match)
	if err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}
	opts := options.Find().
		SetSort(reviewOrder(q.Sort)).
		SetSkip(int64(q.Offset())).
		SetLimit(int64(q.Limit))
	cur, err := s.reviews.Find(ctx, match, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find reviews: %w", err)
	}
	var docs []reviewDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode reviews: %w", err)
	}
	out := make([]domain.Review, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, total, nil
}

func distributionPipeline(pid primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"productId": pid}}},
		{{Key: "$group", Value: bson.M{"_id": "$rating", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: -1}}}},
	}
}

func summaryPipeline(pid primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"productId": pid}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"average": bson.M{"$avg": "$rating"},
			"count":   bson.M{"$sum": 1},
		}}},
	}
}

func (s *Store) RatingDistribution(ctx context.Context, productID string) ([]domain.RatingBucket, error) {
	pid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return []domain.RatingBucket{}, nil
	}
	cur, err := s.reviews.Aggregate(ctx, distributionPipeline(pid))
	if err != nil {
		return nil, fmt.Errorf("rating distribution: %w", err)
	}
	var rows []struct {
		Rating int   `bson:"_id"`
		Count  int64 `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode distribution: %w", err)
	}
	out := make([]domain.RatingBucket, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.RatingBucket{Rating: r.Rating, Count: r.Count})
	}
	return out, nil
}

func (s *Store) RatingSummary(ctx context.Context, productID string) (domain.RatingSummary, error) {
	pid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return domain.RatingSummary{}, nil
	}
	cur, err := s.reviews.Aggregate(ctx, summaryPipeline(pid))
	if err != nil {
		return domain.RatingSummary{}, fmt.Errorf("rating summary: %w", err)
	}
	var rows []struct {
		Average float64 `bson:"average"`
		Count   int64   `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return domain.RatingSummary{}, fmt.Errorf("decode summary: %w", err)
	}
	if len(rows) == 0 {
		return domain.RatingSummary{}, nil
	}
	return domain.RatingSummary{Average: rows[0].Average, Count: rows[0].Count}, nil
}
