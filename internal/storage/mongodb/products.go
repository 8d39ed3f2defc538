package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"scentshop/internal/domain"
)

func (s *Store) InsertProduct(ctx context.Context, p *domain.Product) error {
	id, err := objectID(p.ID)
	if err != nil {
		return domain.Invalid("invalid product id")
	}
	if _, err := s.products.InsertOne(ctx, toProductDoc(*p, id)); err != nil {
		return mapErr(err)
	}
	p.ID = id.Hex()
	return nil
}

func (s *Store) UpdateProductRating(ctx context.Context, id string, rating float64, count int64) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}
	res, err := s.products.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"rating":      rating,
		"reviewCount": count,
		"updatedAt":   time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("update rating: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) ListProducts(ctx context.Context, f domain.ProductFilter, pg domain.PageQuery) ([]domain.Product, int64, error) {
	q := productFilter(f)
	total, err := s.products.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	opts := options.Find().
		SetSort(productOrder).
		SetSkip(int64(pg.Offset())).
		SetLimit(int64(pg.Limit))
	out, err := s.findProducts(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *Store) ListFeatured(ctx context.Context, limit int) ([]domain.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetLimit(int64(limit))
	return s.findProducts(ctx, bson.M{"featured": true}, opts)
}

func (s *Store) findProducts(ctx context.Context, q bson.M, opts *options.FindOptions) ([]domain.Product, error) {
	cur, err := s.products.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	out := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (s *Store) GetProductBySlug(ctx context.Context, slug string) (domain.Product, error) {
	return s.findOneProduct(ctx, bson.M{"slug": slug})
}

func (s *Store) GetProductByID(ctx context.Context, id string) (domain.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Product{}, domain.ErrNotFound
	}
	return s.findOneProduct(ctx, bson.M{"_id": oid})
}

func (s *Store) findOneProduct(ctx context.Context, q bson.M) (domain.Product, error) {
	var d productDoc
	if err := s.products.FindOne(ctx, q).Decode(&d); err != nil {
		return domain.Product{}, mapErr(err)
	}
	return d.toDomain(), nil
}

func (s *Store) DistinctScentFamilies(ctx context.Context) ([]domain.ScentFamily, error) {
	vals, err := s.products.Distinct(ctx, "scentFamily", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("distinct scent families: %w", err)
	}
	out := make([]domain.ScentFamily, 0, len(vals))
	for _, v := range vals {
		if str, ok := v.(string); ok {
			out = append(out, domain.ScentFamily(str))
		}
	}
	return out, nil
}
