// Package seeddata embeds the default storefront catalog used by cmd/seed.
package seeddata

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"scentshop/internal/domain"
)

//go:embed catalog.json
var catalogJSON []byte

type catalog struct {
	Products []domain.Product           `json:"products"`
	Reviews  map[string][]domain.Review `json:"reviews"`
}

// Feed serves the embedded catalog through domain.CatalogFeed.
type Feed struct{ c catalog }

func Default() (*Feed, error) {
	var c catalog
	if err := json.Unmarshal(catalogJSON, &c); err != nil {
		return nil, fmt.Errorf("decode embedded catalog: %w", err)
	}
	return &Feed{c: c}, nil
}

func (f *Feed) GetProducts(ctx context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, len(f.c.Products))
	copy(out, f.c.Products)
	return out, nil
}

func (f *Feed) GetReviews(ctx context.Context, slug string) ([]domain.Review, error) {
	rs, ok := f.c.Reviews[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := make([]domain.Review, len(rs))
	copy(out, rs)
	return out, nil
}
