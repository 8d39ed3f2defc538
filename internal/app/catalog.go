package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scentshop/internal/domain"
)

type CatalogService struct {
	repo domain.ProductRepository
	cached
}

func NewCatalogService(r domain.ProductRepository, c domain.Cache, ttl time.Duration) *CatalogService {
	return &CatalogService{repo: r, cached: cached{cache: c, ttl: ttl}}
}

// List returns one page of products matching f, featured first then newest.
func (s *CatalogService) List(ctx context.Context, f domain.ProductFilter, page, limit int) (domain.ProductsPage, error) {
	pg := NormalizePage(page, limit, DefaultProductLimit)
	items, total, err := s.repo.ListProducts(ctx, f, pg)
	if err != nil {
		return domain.ProductsPage{}, fmt.Errorf("list products: %w", err)
	}
	if items == nil {
		items = []domain.Product{}
	}
	return domain.ProductsPage{Products: items, Pagination: NewPagination(pg, total)}, nil
}

func (s *CatalogService) GetFeatured(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	if s.get(ctx, featuredKey, &out) {
		return out, nil
	}
	out, err := s.repo.ListFeatured(ctx, FeaturedLimit)
	if err != nil {
		return nil, fmt.Errorf("list featured: %w", err)
	}
	if out == nil {
		out = []domain.Product{}
	}
	s.set(ctx, featuredKey, out)
	return out, nil
}

// GetByIdentifier resolves identifier as a slug first, then as a primary key
// when it has the object id form.
func (s *CatalogService) GetByIdentifier(ctx context.Context, identifier string) (domain.Product, error) {
	key := productKey(identifier)
	var p domain.Product
	if s.get(ctx, key, &p) {
		return p, nil
	}

	p, err := s.repo.GetProductBySlug(ctx, identifier)
	if errors.Is(err, domain.ErrNotFound) {
		if !domain.IsValidID(identifier) {
			return domain.Product{}, domain.ErrNotFound
		}
		p, err = s.repo.GetProductByID(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Product{}, err
		}
		return domain.Product{}, fmt.Errorf("get product %q: %w", identifier, err)
	}
	s.set(ctx, key, p)
	return p, nil
}

func (s *CatalogService) ListScentFamilies(ctx context.Context) ([]domain.ScentFamily, error) {
	var out []domain.ScentFamily
	if s.get(ctx, scentFamiliesKey, &out) {
		return out, nil
	}
	out, err := s.repo.DistinctScentFamilies(ctx)
	if err != nil {
		return nil, fmt.Errorf("distinct scent families: %w", err)
	}
	if out == nil {
		out = []domain.ScentFamily{}
	}
	s.set(ctx, scentFamiliesKey, out)
	return out, nil
}
