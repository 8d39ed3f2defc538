package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"scentshop/internal/domain"
	"scentshop/internal/storage/memory"
)

// ---- fakes ----

type fakeCache struct {
	store map[string][]byte
	gets  int
	hits  int
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.gets++
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.store, k)
	}
	return nil
}

func (c *fakeCache) DelPrefix(ctx context.Context, prefix string) error {
	for k := range c.store {
		if strings.HasPrefix(k, prefix) {
			delete(c.store, k)
		}
	}
	return nil
}

// brokenRatings fails every aggregate write.
type brokenRatings struct{ *memory.Store }

func (brokenRatings) UpdateProductRating(ctx context.Context, id string, rating float64, count int64) error {
	return errors.New("write concern timeout")
}

// brokenStore fails every read.
type brokenStore struct{ *memory.Store }

var errStore = errors.New("connection reset")

func (brokenStore) ListProducts(ctx context.Context, f domain.ProductFilter, pg domain.PageQuery) ([]domain.Product, int64, error) {
	return nil, 0, errStore
}

func (brokenStore) RatingDistribution(ctx context.Context, productID string) ([]domain.RatingBucket, error) {
	return nil, errStore
}

// ---- helpers ----

func ptr[T any](v T) *T { return &v }

func newProduct(slug string, family domain.ScentFamily, price float64, featured bool) domain.Product {
	return domain.Product{
		Name:             slug,
		Slug:             slug,
		Description:      "description of " + slug,
		ShortDescription: "short",
		Price:            price,
		Images:           []domain.Image{{URL: "https://img.example/" + slug + ".jpg", Alt: slug}},
		Sizes:            []domain.Size{{Volume: "50ml", Price: price, InStock: true}},
		ScentFamily:      family,
		Brand:            "Brand",
		Featured:         featured,
		InStock:          true,
	}
}

func mustInsert(t *testing.T, s *memory.Store, p domain.Product, createdAt time.Time) domain.Product {
	t.Helper()
	p.CreatedAt, p.UpdatedAt = createdAt, createdAt
	require.NoError(t, s.InsertProduct(context.Background(), &p))
	return p
}
