package domain

import "time"

type Review struct {
	ID           string    `json:"_id"`
	ProductID    string    `json:"productId"`
	CustomerName string    `json:"customerName"`
	Rating       int       `json:"rating"`
	Title        string    `json:"title"`
	Comment      string    `json:"comment"`
	Verified     bool      `json:"verified"`
	Helpful      int       `json:"helpful"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RatingBucket is one row of a product's rating distribution.
type RatingBucket struct {
	Rating int   `json:"_id"`
	Count  int64 `json:"count"`
}

// RatingSummary is the aggregate over every review of a product.
type RatingSummary struct {
	Average float64
	Count   int64
}

type ReviewSort string

const (
	SortNewest  ReviewSort = "newest"
	SortOldest  ReviewSort = "oldest"
	SortHighest ReviewSort = "highest"
	SortLowest  ReviewSort = "lowest"
	SortHelpful ReviewSort = "helpful"
)

// ParseReviewSort maps a query value onto a known sort; anything else is newest.
func ParseReviewSort(s string) ReviewSort {
	switch ReviewSort(s) {
	case SortOldest, SortHighest, SortLowest, SortHelpful:
		return ReviewSort(s)
	default:
		return SortNewest
	}
}

// SortKey names a Review field by its wire name.
type SortKey struct {
	Field string
	Desc  bool
}

// Keys returns the ordering for s, most significant first.
func (s ReviewSort) Keys() []SortKey {
	switch s {
	case SortOldest:
		return []SortKey{{Field: "createdAt"}}
	case SortHighest:
		return []SortKey{{Field: "rating", Desc: true}, {Field: "createdAt", Desc: true}}
	case SortLowest:
		return []SortKey{{Field: "rating"}, {Field: "createdAt", Desc: true}}
	case SortHelpful:
		return []SortKey{{Field: "helpful", Desc: true}, {Field: "createdAt", Desc: true}}
	default:
		return []SortKey{{Field: "createdAt", Desc: true}}
	}
}
