package mysql

import (
	"strings"

	"scentshop/internal/domain"
)

const productColumns = `id, name, slug, description, short_description, price, original_price,
  images, sizes, scent_family, brand, featured, is_new, rating, review_count, in_stock,
  created_at, updated_at`

const insertProductSQL = `
INSERT INTO products (` + productColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateRatingSQL = `
UPDATE products
SET rating = ?, review_count = ?, updated_at = ?
WHERE id = ?
`

const selectProductsSQL = `SELECT ` + productColumns + ` FROM products`

const distinctFamiliesSQL = `SELECT DISTINCT scent_family FROM products`

const reviewColumns = "id, product_id, customer_name, rating, title, `comment`, verified, helpful, created_at, updated_at"

const insertReviewSQL = "INSERT INTO reviews (" + reviewColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

const selectReviewsSQL = "SELECT " + reviewColumns + " FROM reviews WHERE product_id = ?"

const countReviewsSQL = `SELECT COUNT(*) FROM reviews WHERE product_id = ?`

const distributionSQL = `
SELECT rating, COUNT(*)
FROM reviews
WHERE product_id = ?
GROUP BY rating
ORDER BY rating DESC
`

const summarySQL = `
SELECT COALESCE(AVG(rating), 0), COUNT(*)
FROM reviews
WHERE product_id = ?
`

const productOrderSQL = ` ORDER BY featured DESC, created_at DESC, id DESC`

// buildProductWhere returns a WHERE clause (empty when unconstrained) and its args.
func buildProductWhere(f domain.ProductFilter) (string, []any) {
	var conds []string
	var args []any
	if f.ScentFamily != "" {
		conds = append(conds, "scent_family = ?")
		args = append(args, f.ScentFamily)
	}
	if f.Featured {
		conds = append(conds, "featured = TRUE")
	}
	if f.MinPrice != nil {
		conds = append(conds, "price >= ?")
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		conds = append(conds, "price <= ?")
		args = append(args, *f.MaxPrice)
	}
	if f.Search != "" {
		conds = append(conds, "MATCH(name, description) AGAINST (? IN NATURAL LANGUAGE MODE)")
		args = append(args, f.Search)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var reviewColumnsByField = map[string]string{
	"createdAt": "created_at",
	"rating":    "rating",
	"helpful":   "helpful",
}

func reviewOrderBy(s domain.ReviewSort) string {
	keys := s.Keys()
	parts := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		col, ok := reviewColumnsByField[k.Field]
		if !ok {
			continue
		}
		if k.Desc {
			col += " DESC"
		} else {
			col += " ASC"
		}
		parts = append(parts, col)
	}
	parts = append(parts, "id DESC")
	return " ORDER BY " + strings.Join(parts, ", ")
}
