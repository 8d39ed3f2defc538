package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	driver "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"scentshop/internal/domain"
)

const (
	errDuplicateEntry  = 1062
	errNoReferencedRow = 1452
)

func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

type Repo struct {
	db      *sql.DB
	timeout time.Duration
}

func New(db *sql.DB, timeout time.Duration) *Repo { return &Repo{db: db, timeout: timeout} }

// Open parses dsn, forcing parseTime and UTC, and pings the server.
func Open(ctx context.Context, dsn string, timeout time.Duration) (*Repo, error) {
	cfg, err := driver.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	conn, err := driver.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(conn)
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	r := New(db, timeout)
	if err := r.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	log.Info().Str("addr", cfg.Addr).Str("db", cfg.DBName).Msg("mysql connected")
	return r, nil
}

func (r *Repo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *Repo) Ping(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.PingContext(ctx)
}

func (r *Repo) Close(ctx context.Context) error { return r.db.Close() }

func (r *Repo) Reset(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	for _, stmt := range []string{"DELETE FROM reviews", "DELETE FROM products"} {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	return nil
}

func mapErr(err error) error {
	var me *driver.MySQLError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return domain.ErrNotFound
	case errors.As(err, &me) && me.Number == errDuplicateEntry:
		return domain.ErrConflict
	default:
		return err
	}
}

func (r *Repo) InsertProduct(ctx context.Context, p *domain.Product) error {
	if p.ID == "" {
		p.ID = domain.NewID()
	}
	imgs, err := json.Marshal(p.Images)
	if err != nil {
		return err
	}
	sizes, err := json.Marshal(p.Sizes)
	if err != nil {
		return err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	_, err = r.db.ExecContext(ctx, insertProductSQL,
		p.ID,
		p.Name,
		p.Slug,
		p.Description,
		p.ShortDescription,
		p.Price,
		valF64(p.OriginalPrice),
		string(imgs),
		string(sizes),
		string(p.ScentFamily),
		p.Brand,
		p.Featured,
		p.IsNew,
		p.Rating,
		p.ReviewCount,
		p.InStock,
		p.CreatedAt.UTC(),
		p.UpdatedAt.UTC(),
	)
	return mapErr(err)
}

func (r *Repo) UpdateProductRating(ctx context.Context, id string, rating float64, count int64) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	res, err := r.db.ExecContext(ctx, updateRatingSQL, rating, count, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update rating: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// rows affected is 0 when values are unchanged; tell that apart from a missing row
		if _, err := r.GetProductByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(s rowScanner) (domain.Product, error) {
	var p domain.Product
	var (
		originalPrice sql.NullFloat64
		imgs, sizes   []byte
		family        string
	)
	if err := s.Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.ShortDescription,
		&p.Price,
		&originalPrice,
		&imgs,
		&sizes,
		&family,
		&p.Brand,
		&p.Featured,
		&p.IsNew,
		&p.Rating,
		&p.ReviewCount,
		&p.InStock,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return domain.Product{}, err
	}
	if originalPrice.Valid {
		op := originalPrice.Float64
		p.OriginalPrice = &op
	}
	p.ScentFamily = domain.ScentFamily(family)
	p.Images = []domain.Image{}
	p.Sizes = []domain.Size{}
	if len(imgs) > 0 {
		if err := json.Unmarshal(imgs, &p.Images); err != nil {
			return domain.Product{}, fmt.Errorf("decode images: %w", err)
		}
	}
	if len(sizes) > 0 {
		if err := json.Unmarshal(sizes, &p.Sizes); err != nil {
			return domain.Product{}, fmt.Errorf("decode sizes: %w", err)
		}
	}
	return p, nil
}

func (r *Repo) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) ListProducts(ctx context.Context, f domain.ProductFilter, pg domain.PageQuery) ([]domain.Product, int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	where, args := buildProductWhere(f)
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	pageArgs := append(append([]any{}, args...), pg.Limit, pg.Offset())
	out, err := r.queryProducts(ctx, selectProductsSQL+where+productOrderSQL+" LIMIT ? OFFSET ?", pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return out, total, nil
}

func (r *Repo) ListFeatured(ctx context.Context, limit int) ([]domain.Product, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.queryProducts(ctx, selectProductsSQL+" WHERE featured = TRUE ORDER BY id LIMIT ?", limit)
}

func (r *Repo) GetProductBySlug(ctx context.Context, slug string) (domain.Product, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	p, err := scanProduct(r.db.QueryRowContext(ctx, selectProductsSQL+" WHERE slug = ?", slug))
	return p, mapErr(err)
}

func (r *Repo) GetProductByID(ctx context.Context, id string) (domain.Product, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	p, err := scanProduct(r.db.QueryRowContext(ctx, selectProductsSQL+" WHERE id = ?", id))
	return p, mapErr(err)
}

func (r *Repo) DistinctScentFamilies(ctx context.Context) ([]domain.ScentFamily, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, distinctFamiliesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.ScentFamily{}
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		out = append(out, domain.ScentFamily(f))
	}
	return out, rows.Err()
}

func (r *Repo) InsertReview(ctx context.Context, rv *domain.Review) error {
	if rv.ID == "" {
		rv.ID = domain.NewID()
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	_, err := r.db.ExecContext(ctx, insertReviewSQL,
		rv.ID,
		rv.ProductID,
		rv.CustomerName,
		rv.Rating,
		rv.Title,
		rv.Comment,
		rv.Verified,
		rv.Helpful,
		rv.CreatedAt.UTC(),
		rv.UpdatedAt.UTC(),
	)
	var me *driver.MySQLError
	if errors.As(err, &me) && me.Number == errNoReferencedRow {
		return domain.ErrNotFound
	}
	return mapErr(err)
}

func (r *Repo) ListReviews(ctx context.Context, productID string, q domain.ReviewQuery) ([]domain.Review, int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var total int64
	if err := r.db.QueryRowContext(ctx, countReviewsSQL, productID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}
	rows, err := r.db.QueryContext(ctx,
		selectReviewsSQL+reviewOrderBy(q.Sort)+" LIMIT ? OFFSET ?",
		productID, q.Limit, q.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	out := []domain.Review{}
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ID,
			&rv.ProductID,
			&rv.CustomerName,
			&rv.Rating,
			&rv.Title,
			&rv.Comment,
			&rv.Verified,
			&rv.Helpful,
			&rv.CreatedAt,
			&rv.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *Repo) RatingDistribution(ctx context.Context, productID string) ([]domain.RatingBucket, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, distributionSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("rating distribution: %w", err)
	}
	defer rows.Close()

	out := []domain.RatingBucket{}
	for rows.Next() {
		var b domain.RatingBucket
		if err := rows.Scan(&b.Rating, &b.Count); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) RatingSummary(ctx context.Context, productID string) (domain.RatingSummary, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	var s domain.RatingSummary
	if err := r.db.QueryRowContext(ctx, summarySQL, productID).Scan(&s.Average, &s.Count); err != nil {
		return domain.RatingSummary{}, fmt.Errorf("rating summary: %w", err)
	}
	return s, nil
}
