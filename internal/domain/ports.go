package domain

import "context"

type ProductRepository interface {
	// Write paths
	InsertProduct(ctx context.Context, p *Product) error
	UpdateProductRating(ctx context.Context, id string, rating float64, count int64) error

	// Read paths
	ListProducts(ctx context.Context, f ProductFilter, pg PageQuery) ([]Product, int64, error)
	ListFeatured(ctx context.Context, limit int) ([]Product, error)
	GetProductBySlug(ctx context.Context, slug string) (Product, error)
	GetProductByID(ctx context.Context, id string) (Product, error)
	DistinctScentFamilies(ctx context.Context) ([]ScentFamily, error)
}

type ReviewRepository interface {
	// Write paths
	InsertReview(ctx context.Context, r *Review) error

	// Read paths
	ListReviews(ctx context.Context, productID string, q ReviewQuery) ([]Review, int64, error)
	RatingDistribution(ctx context.Context, productID string) ([]RatingBucket, error)
	RatingSummary(ctx context.Context, productID string) (RatingSummary, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, keys ...string) error
	DelPrefix(ctx context.Context, prefix string) error
}

// CatalogFeed is a source of products and their reviews for seeding.
type CatalogFeed interface {
	GetProducts(ctx context.Context) ([]Product, error)
	GetReviews(ctx context.Context, slug string) ([]Review, error)
}

// Read models & queries

// ProductFilter holds the optional listing constraints; zero values are ignored.
type ProductFilter struct {
	ScentFamily string
	Featured    bool
	MinPrice    *float64
	MaxPrice    *float64
	Search      string
}

type PageQuery struct {
	Page  int
	Limit int
}

func (p PageQuery) Offset() int { return (p.Page - 1) * p.Limit }

type ReviewQuery struct {
	PageQuery
	Sort ReviewSort
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type ProductsPage struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

type ReviewsPage struct {
	Reviews     []Review       `json:"reviews"`
	Pagination  Pagination     `json:"pagination"`
	RatingStats []RatingBucket `json:"ratingStats"`
}
