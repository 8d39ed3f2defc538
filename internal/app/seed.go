package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"scentshop/internal/domain"
)

// SeedService loads a catalog feed into the store the way catalog tooling
// would: products first, then their reviews, then the derived aggregates.
type SeedService struct {
	feed     domain.CatalogFeed
	products domain.ProductRepository
	reviews  domain.ReviewRepository
	ratings  *ReviewService
	cached
	now func() time.Time
}

func NewSeedService(f domain.CatalogFeed, p domain.ProductRepository, r domain.ReviewRepository, ratings *ReviewService, c domain.Cache) *SeedService {
	return &SeedService{feed: f, products: p, reviews: r, ratings: ratings, cached: cached{cache: c}, now: time.Now}
}

func (s *SeedService) Products(ctx context.Context) ([]domain.Product, error) {
	ps, err := s.feed.GetProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed products: %w", err)
	}
	return ps, nil
}

// SeedProduct inserts p and every review the feed has for it. Derived fields
// coming from the feed are discarded and recomputed from the inserted reviews.
func (s *SeedService) SeedProduct(ctx context.Context, p domain.Product) (int, error) {
	p.Normalize()
	if err := validateProduct(p); err != nil {
		return 0, err
	}
	now := s.now().UTC()
	if !domain.IsValidID(p.ID) {
		p.ID = domain.NewID()
	}
	p.Rating, p.ReviewCount = 0, 0
	p.CreatedAt, p.UpdatedAt = now, now

	// Parent first so every review below references an existing product.
	if err := s.products.InsertProduct(ctx, &p); err != nil {
		return 0, fmt.Errorf("insert product %s: %w", p.Slug, err)
	}
	s.del(ctx, append(productKeys(p), scentFamiliesKey)...)

	revs, err := s.feed.GetReviews(ctx, p.Slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Debug().Str("slug", p.Slug).Msg("feed has no reviews")
			return 0, nil
		}
		return 0, fmt.Errorf("fetch reviews for %s: %w", p.Slug, err)
	}

	inserted := 0
	for _, rv := range revs {
		rv.CustomerName = strings.TrimSpace(rv.CustomerName)
		rv.Title = strings.TrimSpace(rv.Title)
		rv.Comment = strings.TrimSpace(rv.Comment)
		if rv.Rating < 1 || rv.Rating > 5 || rv.CustomerName == "" || rv.Title == "" || rv.Comment == "" {
			log.Warn().Str("slug", p.Slug).Str("customer", rv.CustomerName).Msg("skipping invalid feed review")
			continue
		}
		rv.ID = domain.NewID()
		rv.ProductID = p.ID
		if rv.CreatedAt.IsZero() {
			rv.CreatedAt = now
		}
		rv.UpdatedAt = now
		if err := s.reviews.InsertReview(ctx, &rv); err != nil {
			return inserted, fmt.Errorf("insert review for %s: %w", p.Slug, err)
		}
		inserted++
	}
	if inserted == 0 {
		return 0, nil
	}

	if err := s.ratings.RefreshProductRating(ctx, p.ID); err != nil {
		return inserted, err
	}
	s.delPrefix(ctx, reviewsPrefix(p.ID))
	return inserted, nil
}

func validateProduct(p domain.Product) error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	msgs := make([]string, 0, len(ves))
	for _, fe := range ves {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return domain.Invalid(fmt.Sprintf("product %q: %s", p.Slug, strings.Join(msgs, "; ")))
}
