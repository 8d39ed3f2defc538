package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"scentshop/internal/adapters/observability"
	"scentshop/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CreateReviewInput is the public submission; Verified and Helpful are not settable.
type CreateReviewInput struct {
	ProductID    string `validate:"required"`
	CustomerName string `validate:"required"`
	Rating       int    `validate:"required,min=1,max=5"`
	Title        string `validate:"required"`
	Comment      string `validate:"required"`
}

func (in *CreateReviewInput) trim() {
	in.ProductID = strings.TrimSpace(in.ProductID)
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.Title = strings.TrimSpace(in.Title)
	in.Comment = strings.TrimSpace(in.Comment)
}

func (in CreateReviewInput) validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	for _, fe := range ves {
		if fe.Tag() == "required" {
			return domain.Invalid("All fields are required")
		}
	}
	return domain.Invalid("Rating must be between 1 and 5")
}

type ReviewService struct {
	products domain.ProductRepository
	reviews  domain.ReviewRepository
	cached
	now func() time.Time
}

func NewReviewService(p domain.ProductRepository, r domain.ReviewRepository, c domain.Cache, ttl time.Duration) *ReviewService {
	return &ReviewService{products: p, reviews: r, cached: cached{cache: c, ttl: ttl}, now: time.Now}
}

// ListByProduct returns a page of reviews plus the rating distribution over
// all of the product's reviews.
func (s *ReviewService) ListByProduct(ctx context.Context, productID, sortBy string, page, limit int) (domain.ReviewsPage, error) {
	if !domain.IsValidID(productID) {
		return domain.ReviewsPage{}, domain.Invalid("Invalid product id")
	}
	q := domain.ReviewQuery{
		PageQuery: NormalizePage(page, limit, DefaultReviewLimit),
		Sort:      domain.ParseReviewSort(sortBy),
	}
	key := reviewsKey(productID, q)
	var out domain.ReviewsPage
	if s.get(ctx, key, &out) {
		return out, nil
	}

	var (
		items []domain.Review
		total int64
		stats []domain.RatingBucket
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, total, err = s.reviews.ListReviews(gctx, productID, q)
		if err != nil {
			return fmt.Errorf("list reviews: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		stats, err = s.reviews.RatingDistribution(gctx, productID)
		if err != nil {
			return fmt.Errorf("rating distribution: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.ReviewsPage{}, err
	}

	if items == nil {
		items = []domain.Review{}
	}
	if stats == nil {
		stats = []domain.RatingBucket{}
	}
	out = domain.ReviewsPage{Reviews: items, Pagination: NewPagination(q.PageQuery, total), RatingStats: stats}

	// copy slices so a caller mutating the result can't touch the cached value
	s.set(ctx, key, deepCopyReviewsPage(out))
	return out, nil
}

// Create persists a review and then recomputes the product's aggregate rating.
// A failed recompute is logged, never returned: the review stays stored and
// the product's cached stats catch up on the next successful write.
func (s *ReviewService) Create(ctx context.Context, in CreateReviewInput) (domain.Review, error) {
	in.trim()
	if err := in.validate(); err != nil {
		return domain.Review{}, err
	}
	if !domain.IsValidID(in.ProductID) {
		return domain.Review{}, domain.ErrNotFound
	}
	product, err := s.products.GetProductByID(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Review{}, err
		}
		return domain.Review{}, fmt.Errorf("lookup product: %w", err)
	}

	now := s.now().UTC()
	rv := domain.Review{
		ID:           domain.NewID(),
		ProductID:    product.ID,
		CustomerName: in.CustomerName,
		Rating:       in.Rating,
		Title:        in.Title,
		Comment:      in.Comment,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.reviews.InsertReview(ctx, &rv); err != nil {
		return domain.Review{}, fmt.Errorf("insert review: %w", err)
	}
	observability.ObserveReviewCreated(rv.Rating)

	if err := s.RefreshProductRating(ctx, product.ID); err != nil {
		log.Error().Err(err).Str("product_id", product.ID).Msg("rating recompute failed")
	}
	s.invalidate(ctx, product)
	return rv, nil
}

// RefreshProductRating recomputes rating and reviewCount from scratch and
// writes both onto the product. Products without reviews are left untouched.
func (s *ReviewService) RefreshProductRating(ctx context.Context, productID string) error {
	sum, err := s.reviews.RatingSummary(ctx, productID)
	if err != nil {
		observability.ObserveRatingRefresh("error")
		return fmt.Errorf("summarize ratings: %w", err)
	}
	if sum.Count == 0 {
		observability.ObserveRatingRefresh("skipped")
		return nil
	}
	if err := s.products.UpdateProductRating(ctx, productID, RoundRating(sum.Average), sum.Count); err != nil {
		observability.ObserveRatingRefresh("error")
		return fmt.Errorf("update product rating: %w", err)
	}
	observability.ObserveRatingRefresh("ok")
	return nil
}

// RoundRating rounds a mean rating to one decimal place.
func RoundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}

func (s *ReviewService) invalidate(ctx context.Context, p domain.Product) {
	s.del(ctx, productKeys(p)...)
	s.delPrefix(ctx, reviewsPrefix(p.ID))
}

func deepCopyReviewsPage(in domain.ReviewsPage) domain.ReviewsPage {
	out := domain.ReviewsPage{Pagination: in.Pagination}
	out.Reviews = make([]domain.Review, len(in.Reviews))
	copy(out.Reviews, in.Reviews)
	out.RatingStats = make([]domain.RatingBucket, len(in.RatingStats))
	copy(out.RatingStats, in.RatingStats)
	return out
}
