package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scentshop/internal/app"
	"scentshop/internal/domain"
	"scentshop/internal/storage/memory"
)

func reviewFixture(t *testing.T) (*memory.Store, domain.Product) {
	t.Helper()
	s := memory.New()
	p := mustInsert(t, s, newProduct("chanel-no-5", domain.Floral, 132, true), time.Now())
	return s, p
}

func validInput(productID string, rating int) app.CreateReviewInput {
	return app.CreateReviewInput{
		ProductID:    productID,
		CustomerName: "Sarah Johnson",
		Rating:       rating,
		Title:        "Absolutely timeless",
		Comment:      "Sophisticated and elegant.",
	}
}

func TestCreate_Validation(t *testing.T) {
	s, p := reviewFixture(t)
	svc := app.NewReviewService(s, s, nil, time.Minute)

	cases := []struct {
		name string
		mut  func(*app.CreateReviewInput)
		msg  string
	}{
		{"rating zero", func(in *app.CreateReviewInput) { in.Rating = 0 }, "All fields are required"},
		{"rating six", func(in *app.CreateReviewInput) { in.Rating = 6 }, "Rating must be between 1 and 5"},
		{"rating negative", func(in *app.CreateReviewInput) { in.Rating = -2 }, "Rating must be between 1 and 5"},
		{"blank name", func(in *app.CreateReviewInput) { in.CustomerName = "   " }, "All fields are required"},
		{"blank title", func(in *app.CreateReviewInput) { in.Title = "\t\n" }, "All fields are required"},
		{"empty comment", func(in *app.CreateReviewInput) { in.Comment = "" }, "All fields are required"},
		{"missing product", func(in *app.CreateReviewInput) { in.ProductID = "" }, "All fields are required"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			in := validInput(p.ID, 5)
			c.mut(&in)
			_, err := svc.Create(context.Background(), in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
			assert.Equal(t, c.msg, err.Error())
		})
	}

	// nothing was persisted
	_, total, err := s.ListReviews(context.Background(), p.ID, domain.ReviewQuery{PageQuery: domain.PageQuery{Page: 1, Limit: 10}})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCreate_UnknownProduct(t *testing.T) {
	s, _ := reviewFixture(t)
	svc := app.NewReviewService(s, s, nil, time.Minute)

	_, err := svc.Create(context.Background(), validInput(domain.NewID(), 4))
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = svc.Create(context.Background(), validInput("not-an-id", 4))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCreate_TrimsAndDefaults(t *testing.T) {
	s, p := reviewFixture(t)
	svc := app.NewReviewService(s, s, nil, time.Minute)

	in := app.CreateReviewInput{
		ProductID:    p.ID,
		CustomerName: "  Michael Chen ",
		Rating:       4,
		Title:        " Classic but pricey\n",
		Comment:      "\tBeautiful fragrance. ",
	}
	rv, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, domain.IsValidID(rv.ID))
	assert.Equal(t, p.ID, rv.ProductID)
	assert.Equal(t, "Michael Chen", rv.CustomerName)
	assert.Equal(t, "Classic but pricey", rv.Title)
	assert.Equal(t, "Beautiful fragrance.", rv.Comment)
	assert.False(t, rv.Verified)
	assert.Zero(t, rv.Helpful)
	assert.False(t, rv.CreatedAt.IsZero())
}

func TestCreate_RecomputesAggregate(t *testing.T) {
	s, p := reviewFixture(t)
	svc := app.NewReviewService(s, s, nil, time.Minute)
	ctx := context.Background()

	got, err := s.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Rating)
	assert.Zero(t, got.ReviewCount)

	for _, r := range []int{5, 4, 5} {
		_, err := svc.Create(ctx, validInput(p.ID, r))
		require.NoError(t, err)
	}

	got, err = s.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.7, got.Rating)
	assert.EqualValues(t, 3, got.ReviewCount)
}

func TestCreate_RecomputeFailureIsSwallowed(t *testing.T) {
	s, p := reviewFixture(t)
	svc := app.NewReviewService(brokenRatings{s}, s, nil, time.Minute)
	ctx := context.Background()

	rv, err := svc.Create(ctx, validInput(p.ID, 2))
	require.NoError(t, err)
	assert.NotEmpty(t, rv.ID)

	// the review persisted, the product's cached stats stayed stale
	_, total, err := s.ListReviews(ctx, p.ID, domain.ReviewQuery{PageQuery: domain.PageQuery{Page: 1, Limit: 10}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	got, err := s.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, got.ReviewCount)
}

func TestCreate_InvalidatesCachedProduct(t *testing.T) {
	s, p := reviewFixture(t)
	cache := &fakeCache{}
	catalog := app.NewCatalogService(s, cache, time.Hour)
	svc := app.NewReviewService(s, s, cache, time.Hour)
	ctx := context.Background()

	before, err := catalog.GetByIdentifier(ctx, p.Slug)
	require.NoError(t, err)
	assert.Zero(t, before.ReviewCount)
	_, err = svc.ListByProduct(ctx, p.ID, "newest", 1, 10)
	require.NoError(t, err)

	_, err = svc.Create(ctx, validInput(p.ID, 3))
	require.NoError(t, err)

	after, err := catalog.GetByIdentifier(ctx, p.Slug)
	require.NoError(t, err)
	assert.EqualValues(t, 1, after.ReviewCount)
	assert.Equal(t, 3.0, after.Rating)

	page, err := svc.ListByProduct(ctx, p.ID, "newest", 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Reviews, 1)
}

func TestListByProduct_DistributionIgnoresPaging(t *testing.T) {
	s, p := reviewFixture(t)
	svc := app.NewReviewService(s, s, nil, time.Minute)
	ctx := context.Background()

	for _, r := range []int{5, 5, 4, 1, 3, 5} {
		_, err := svc.Create(ctx, validInput(p.ID, r))
		require.NoError(t, err)
	}

	page, err := svc.ListByProduct(ctx, p.ID, "highest", 2, 2)
	require.NoError(t, err)
	assert.Len(t, page.Reviews, 2)
	assert.Equal(t, domain.Pagination{Page: 2, Limit: 2, Total: 6, Pages: 3}, page.Pagination)

	var sum int64
	for _, b := range page.RatingStats {
		sum += b.Count
	}
	assert.EqualValues(t, 6, sum)
	assert.Equal(t, 5, page.RatingStats[0].Rating)
	assert.EqualValues(t, 3, page.RatingStats[0].Count)

	// highest first: 5,5,5 | 4,3 | 1
	assert.Equal(t, 5, page.Reviews[0].Rating)
	assert.Equal(t, 4, page.Reviews[1].Rating)
}

func TestListByProduct_DefaultsAndErrors(t *testing.T) {
	s, p := reviewFixture(t)
	svc := app.NewReviewService(s, s, nil, time.Minute)
	ctx := context.Background()

	page, err := svc.ListByProduct(ctx, p.ID, "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, app.DefaultReviewLimit, page.Pagination.Limit)
	assert.NotNil(t, page.Reviews)
	assert.NotNil(t, page.RatingStats)

	_, err = svc.ListByProduct(ctx, "bad id", "", 1, 10)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	broken := app.NewReviewService(s, brokenStore{s}, nil, time.Minute)
	_, err = broken.ListByProduct(ctx, p.ID, "", 1, 10)
	assert.ErrorIs(t, err, errStore)
}

func TestListByProduct_PagePastTheEnd(t *testing.T) {
	s, p := reviewFixture(t)
	svc := app.NewReviewService(s, s, nil, time.Minute)
	ctx := context.Background()
	for _, r := range []int{5, 4, 5} {
		_, err := svc.Create(ctx, validInput(p.ID, r))
		require.NoError(t, err)
	}

	for _, page := range []int{2, 92233720368547760} {
		out, err := svc.ListByProduct(ctx, p.ID, "", page, 100)
		require.NoError(t, err, "page=%d", page)
		assert.Empty(t, out.Reviews)
		assert.NotNil(t, out.Reviews)
		assert.EqualValues(t, 3, out.Pagination.Total)
		assert.Equal(t, 1, out.Pagination.Pages)
		assert.Len(t, out.RatingStats, 2)
	}
}
