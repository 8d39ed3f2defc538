// Package mongodb persists the catalog in a MongoDB database, one collection
// for products and one for reviews.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"scentshop/internal/domain"
)

const (
	productsCollection = "products"
	reviewsCollection  = "reviews"
)

type Store struct {
	client   *mongo.Client
	products *mongo.Collection
	reviews  *mongo.Collection
}

// Connect dials uri, pings the primary and returns a Store over database dbName.
// timeout bounds every operation issued through the client.
func Connect(ctx context.Context, uri, dbName string, timeout time.Duration) (*Store, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	opts := options.Client().ApplyURI(uri).SetTimeout(timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		discCtx, discCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer discCancel()
		_ = client.Disconnect(discCtx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	log.Info().Str("db", dbName).Msg("mongodb connected")
	return New(client, dbName), nil
}

func New(client *mongo.Client, dbName string) *Store {
	db := client.Database(dbName)
	return &Store{
		client:   client,
		products: db.Collection(productsCollection),
		reviews:  db.Collection(reviewsCollection),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Reset removes every product and review but keeps the indexes.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.reviews.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("clear reviews: %w", err)
	}
	if _, err := s.products.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("clear products: %w", err)
	}
	return nil
}

// EnsureIndexes creates the indexes listing and review queries rely on.
// Creating an index that already exists is a no-op.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	productIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}}},
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "scentFamily", Value: 1}}},
		{Keys: bson.D{{Key: "featured", Value: 1}}},
		{Keys: bson.D{{Key: "price", Value: 1}}},
	}
	if _, err := s.products.Indexes().CreateMany(ctx, productIdx); err != nil {
		return fmt.Errorf("product indexes: %w", err)
	}
	reviewIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "rating", Value: 1}}},
	}
	if _, err := s.reviews.Indexes().CreateMany(ctx, reviewIdx); err != nil {
		return fmt.Errorf("review indexes: %w", err)
	}
	return nil
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return domain.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return domain.ErrConflict
	default:
		return err
	}
}
