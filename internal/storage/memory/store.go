// Package memory is a process-local store used for development and tests.
// It applies the same filter, sort and pagination rules as the real stores.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"scentshop/internal/domain"
)

type Store struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	reviews  map[string]domain.Review
}

func New() *Store {
	return &Store{products: map[string]domain.Product{}, reviews: map[string]domain.Review{}}
}

func (s *Store) Ping(ctx context.Context) error  { return nil }
func (s *Store) Close(ctx context.Context) error { return nil }

func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = map[string]domain.Product{}
	s.reviews = map[string]domain.Review{}
	return nil
}

func (s *Store) InsertProduct(ctx context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = domain.NewID()
	}
	if _, ok := s.products[p.ID]; ok {
		return domain.ErrConflict
	}
	for _, other := range s.products {
		if other.Slug == p.Slug {
			return domain.ErrConflict
		}
	}
	s.products[p.ID] = cloneProduct(*p)
	return nil
}

func (s *Store) UpdateProductRating(ctx context.Context, id string, rating float64, count int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Rating, p.ReviewCount = rating, count
	s.products[id] = p
	return nil
}

func (s *Store) ListProducts(ctx context.Context, f domain.ProductFilter, pg domain.PageQuery) ([]domain.Product, int64, error) {
	s.mu.RLock()
	var matched []domain.Product
	for _, p := range s.products {
		if matchProduct(p, f) {
			matched = append(matched, cloneProduct(p))
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.Featured != b.Featured {
			return a.Featured
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return paginate(matched, pg), int64(len(matched)), nil
}

func matchProduct(p domain.Product, f domain.ProductFilter) bool {
	if f.ScentFamily != "" && string(p.ScentFamily) != f.ScentFamily {
		return false
	}
	if f.Featured && !p.Featured {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.Search != "" && !matchText(p, f.Search) {
		return false
	}
	return true
}

// matchText mimics a text index: any search term found in name or description.
func matchText(p domain.Product, search string) bool {
	hay := strings.ToLower(p.Name + " " + p.Description)
	for _, term := range strings.Fields(strings.ToLower(search)) {
		if strings.Contains(hay, term) {
			return true
		}
	}
	return false
}

func (s *Store) ListFeatured(ctx context.Context, limit int) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Product
	for _, p := range s.products {
		if p.Featured {
			out = append(out, cloneProduct(p))
		}
	}
	// object ids grow with insertion time, which stands in for natural order
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetProductBySlug(ctx context.Context, slug string) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.Slug == slug {
			return cloneProduct(p), nil
		}
	}
	return domain.Product{}, domain.ErrNotFound
}

func (s *Store) GetProductByID(ctx context.Context, id string) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (s *Store) DistinctScentFamilies(ctx context.Context) ([]domain.ScentFamily, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[domain.ScentFamily]struct{}{}
	out := []domain.ScentFamily{}
	for _, p := range s.products {
		if _, ok := seen[p.ScentFamily]; ok {
			continue
		}
		seen[p.ScentFamily] = struct{}{}
		out = append(out, p.ScentFamily)
	}
	return out, nil
}

func (s *Store) InsertReview(ctx context.Context, r *domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = domain.NewID()
	}
	if _, ok := s.products[r.ProductID]; !ok {
		return domain.ErrNotFound
	}
	s.reviews[r.ID] = *r
	return nil
}

func (s *Store) productReviews(productID string) []domain.Review {
	var out []domain.Review
	for _, r := range s.reviews {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) ListReviews(ctx context.Context, productID string, q domain.ReviewQuery) ([]domain.Review, int64, error) {
	s.mu.RLock()
	rs := s.productReviews(productID)
	s.mu.RUnlock()

	keys := q.Sort.Keys()
	sort.Slice(rs, func(i, j int) bool {
		for _, k := range keys {
			if c := compareReview(rs[i], rs[j], k.Field); c != 0 {
				if k.Desc {
					return c > 0
				}
				return c < 0
			}
		}
		return rs[i].ID > rs[j].ID
	})
	return paginate(rs, q.PageQuery), int64(len(rs)), nil
}

func compareReview(a, b domain.Review, field string) int {
	switch field {
	case "rating":
		return a.Rating - b.Rating
	case "helpful":
		return a.Helpful - b.Helpful
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func (s *Store) RatingDistribution(ctx context.Context, productID string) ([]domain.RatingBucket, error) {
	s.mu.RLock()
	rs := s.productReviews(productID)
	s.mu.RUnlock()

	counts := map[int]int64{}
	for _, r := range rs {
		counts[r.Rating]++
	}
	out := make([]domain.RatingBucket, 0, len(counts))
	for rating, n := range counts {
		out = append(out, domain.RatingBucket{Rating: rating, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	return out, nil
}

func (s *Store) RatingSummary(ctx context.Context, productID string) (domain.RatingSummary, error) {
	s.mu.RLock()
	rs := s.productReviews(productID)
	s.mu.RUnlock()

	if len(rs) == 0 {
		return domain.RatingSummary{}, nil
	}
	sum := 0
	for _, r := range rs {
		sum += r.Rating
	}
	return domain.RatingSummary{Average: float64(sum) / float64(len(rs)), Count: int64(len(rs))}, nil
}

func paginate[T any](items []T, pg domain.PageQuery) []T {
	off := pg.Offset()
	if off < 0 || off >= len(items) {
		return []T{}
	}
	end := off + pg.Limit
	if end > len(items) || end < off {
		end = len(items)
	}
	return items[off:end]
}

func cloneProduct(p domain.Product) domain.Product {
	if p.Images != nil {
		p.Images = append(make([]domain.Image, 0, len(p.Images)), p.Images...)
	}
	if p.Sizes != nil {
		p.Sizes = append(make([]domain.Size, 0, len(p.Sizes)), p.Sizes...)
	}
	if p.OriginalPrice != nil {
		op := *p.OriginalPrice
		p.OriginalPrice = &op
	}
	return p
}
