//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	server "scentshop/internal/adapters/http_server"
	redisad "scentshop/internal/adapters/redis"
	"scentshop/internal/app"
	"scentshop/internal/domain"
	"scentshop/internal/seeddata"
	"scentshop/internal/shared"
	"scentshop/internal/storage"
)

func startStore(t *testing.T) storage.Store {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("dockertest: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unreachable: %v", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{Repository: "mongo", Tag: "7.0"},
		func(hc *docker.HostConfig) {
			hc.AutoRemove = true
			hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
		})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })

	cfg := shared.Config{
		StoreDriver:  shared.DriverMongo,
		MongoURI:     fmt.Sprintf("mongodb://127.0.0.1:%s", resource.GetPort("27017/tcp")),
		MongoDB:      "scentshop_e2e",
		StoreTimeout: 5 * time.Second,
	}
	var store storage.Store
	require.NoError(t, pool.Retry(func() error {
		s, err := storage.Open(context.Background(), cfg)
		if err != nil {
			return err
		}
		store = s
		return nil
	}))
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func getJSON(t *testing.T, url string, dst any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if dst != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
	}
	return resp.StatusCode
}

func TestE2E_SeededCatalogOverMongo(t *testing.T) {
	ctx := context.Background()
	store := startStore(t)

	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = cache.Close() })

	catalog := app.NewCatalogService(store, cache, time.Minute)
	reviews := app.NewReviewService(store, store, cache, time.Minute)

	feed, err := seeddata.Default()
	require.NoError(t, err)
	seed := app.NewSeedService(feed, store, store, reviews, cache)
	ps, err := seed.Products(ctx)
	require.NoError(t, err)
	for _, p := range ps {
		_, err := seed.SeedProduct(ctx, p)
		require.NoError(t, err, p.Slug)
	}

	srv := server.New(10 * time.Second)
	srv.MountHandlers("/api", &server.Handlers{Catalog: catalog, Reviews: reviews, Ready: store.Ping})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	var health map[string]string
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/health", &health))
	assert.Equal(t, "up", health["store"])

	var woody domain.ProductsPage
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/products?scentFamily=Woody&minPrice=100", &woody))
	assert.EqualValues(t, 2, woody.Pagination.Total)

	var searched domain.ProductsPage
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/products?search=vanilla", &searched))
	assert.NotZero(t, searched.Pagination.Total)

	var chanel domain.Product
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/products/chanel-no-5-eau-de-parfum", &chanel))
	assert.Equal(t, 4.7, chanel.Rating)
	assert.EqualValues(t, 3, chanel.ReviewCount)

	var page domain.ReviewsPage
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/reviews/product/"+chanel.ID+"?sortBy=helpful", &page))
	assert.Len(t, page.Reviews, 3)
	assert.Equal(t, []domain.RatingBucket{{Rating: 5, Count: 2}, {Rating: 4, Count: 1}}, page.RatingStats)

	body, _ := json.Marshal(map[string]any{
		"productId": chanel.ID, "customerName": "Lea", "rating": 1, "title": "Not for me", "comment": "Too powdery",
	})
	resp, err := http.Post(ts.URL+"/api/reviews", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// cached product entry must reflect the recomputed aggregate: (5+4+5+1)/4 = 3.75
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/products/chanel-no-5-eau-de-parfum", &chanel))
	assert.Equal(t, 3.8, chanel.Rating)
	assert.EqualValues(t, 4, chanel.ReviewCount)

	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/reviews/product/"+chanel.ID+"?sortBy=helpful", &page))
	assert.EqualValues(t, 4, page.Pagination.Total)
}
