package feed_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"scentshop/internal/adapters/feed"
	"scentshop/internal/domain"
)

func TestClient_GetProducts_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "test-key" {
			t.Errorf("missing api key header")
		}
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			w.WriteHeader(500)
		default:
			w.WriteHeader(200)
			_, _ = w.Write([]byte(`[{"name":"Santal 33","slug":"santal-33","scentFamily":"Woody","price":120}]`))
		}
	}))
	defer ts.Close()

	cl, err := feed.New(ts.URL, "test-key", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	got, err := cl.GetProducts(ctx)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 || got[0].Slug != "santal-33" || got[0].ScentFamily != domain.Woody {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_GetProducts_RetryAfterZero(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) <= 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"products":[{"name":"Santal 33","slug":"santal-33"}]}`))
	}))
	defer ts.Close()

	cl, _ := feed.New(ts.URL, "", 100)
	// well under the backoff the same four attempts would take without the hint
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	got, err := cl.GetProducts(ctx)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if n := atomic.LoadInt32(&hits); n != 4 {
		t.Fatalf("expected 4 calls, got %d", n)
	}
}

func TestClient_GetProducts_GivesUpAfterFiveAttempts(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	cl, _ := feed.New(ts.URL, "", 100)
	_, err := cl.GetProducts(context.Background())
	if !errors.Is(err, feed.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 5 {
		t.Fatalf("expected 5 calls, got %d", n)
	}
}

func TestClient_GetReviews_FailsFast(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	cl, _ := feed.New(ts.URL, "", 100)
	_, err := cl.GetReviews(context.Background(), "santal-33")
	if !errors.Is(err, feed.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Fatalf("expected 2 calls, got %d", n)
	}
}

func TestClient_GetReviews_LongRetryAfterStops(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	cl, _ := feed.New(ts.URL, "", 100)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := cl.GetReviews(ctx, "santal-33")
	if !errors.Is(err, feed.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected 1 call, got %d", n)
	}
}

func TestClient_GetReviews_Envelope(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/santal-33/reviews" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"reviews":[{"customerName":"Ana","rating":5,"title":"Love","comment":"Lasts all day"}]}`))
	}))
	defer ts.Close()

	cl, _ := feed.New(ts.URL+"/", "", 100)
	got, err := cl.GetReviews(context.Background(), "santal-33")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 || got[0].Rating != 5 || got[0].CustomerName != "Ana" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestClient_GetReviews_404IsNotFound(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl, _ := feed.New(ts.URL, "", 100)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := cl.GetReviews(ctx, "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected domain.ErrNotFound, got %v", err)
	}
}

func TestClient_Unauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	cl, _ := feed.New(ts.URL, "bad", 100)
	if _, err := cl.GetProducts(context.Background()); !errors.Is(err, feed.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestNew_RequiresBase(t *testing.T) {
	if _, err := feed.New("", "k", 1); err == nil {
		t.Fatalf("expected error for empty base")
	}
}
