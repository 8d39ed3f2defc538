package app

import (
	"math"

	"scentshop/internal/domain"
)

const (
	DefaultProductLimit = 20
	DefaultReviewLimit  = 10
	MaxPageLimit        = 100
	FeaturedLimit       = 6

	// MaxPage keeps (page-1)*limit within a 32-bit int.
	MaxPage = math.MaxInt32 / MaxPageLimit
)

// NormalizePage applies defaults to a 1-indexed page and a per-page limit.
// Non-positive values fall back to page 1 and def; limits are capped at
// MaxPageLimit and pages at MaxPage.
func NormalizePage(page, limit, def int) domain.PageQuery {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = def
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return domain.PageQuery{Page: page, Limit: limit}
}

// NewPagination builds the response envelope; pages = ceil(total/limit).
func NewPagination(pg domain.PageQuery, total int64) domain.Pagination {
	pages := 0
	if pg.Limit > 0 {
		pages = int(total / int64(pg.Limit))
		if total%int64(pg.Limit) > 0 {
			pages++
		}
	}
	return domain.Pagination{Page: pg.Page, Limit: pg.Limit, Total: total, Pages: pages}
}
