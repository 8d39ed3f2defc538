// Package feed fetches a remote product catalog to seed the store from.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"scentshop/internal/adapters/observability"
	"scentshop/internal/domain"
)

// policy bounds the retries spent on one endpoint. Retry-After hints longer
// than maxWait end the retries instead of being slept through.
type policy struct {
	attempts int
	base     time.Duration
	maxWait  time.Duration
}

var (
	// The bulk pull gates the whole seed run.
	productsPolicy = policy{attempts: 5, base: 300 * time.Millisecond, maxWait: 15 * time.Second}
	// Per-product review lookups fail fast.
	reviewsPolicy = policy{attempts: 2, base: 200 * time.Millisecond, maxWait: 2 * time.Second}
)

type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps float64) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("feed base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), burst),
	}, nil
}

var (
	ErrNotFound     = fmt.Errorf("feed: %w", domain.ErrNotFound)
	ErrUnauthorized = errors.New("feed: unauthorized")
	ErrForbidden    = errors.New("feed: forbidden")
	// ErrUnavailable is returned once retries on 429, 5xx or transport
	// failures are exhausted.
	ErrUnavailable  = errors.New("feed: unavailable")
)

// GetProducts accepts either a bare JSON array or a {"products": [...]} envelope.
func (c *Client) GetProducts(ctx context.Context) ([]domain.Product, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "products", c.base+"/products", productsPolicy, &raw); err != nil {
		return nil, err
	}
	var out []domain.Product
	if err := decodeList(raw, "products", &out); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return out, nil
}

// GetReviews accepts either a bare JSON array or a {"reviews": [...]} envelope.
func (c *Client) GetReviews(ctx context.Context, slug string) ([]domain.Review, error) {
	var raw json.RawMessage
	u := fmt.Sprintf("%s/products/%s/reviews", c.base, url.PathEscape(slug))
	if err := c.get(ctx, "reviews", u, reviewsPolicy, &raw); err != nil {
		return nil, err
	}
	var out []domain.Review
	if err := decodeList(raw, "reviews", &out); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}
	return out, nil
}

func decodeList(raw json.RawMessage, field string, out any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '[' {
		return json.Unmarshal(raw, out)
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}
	items, ok := env[field]
	if !ok {
		return fmt.Errorf("missing %q field", field)
	}
	return json.Unmarshal(items, out)
}

// transient is a failed attempt that may succeed when repeated. hint is the
// server's Retry-After, negative when it sent none.
type transient struct {
	err  error
	hint time.Duration
}

func (t *transient) Error() string { return t.err.Error() }
func (t *transient) Unwrap() error { return t.err }

// get issues GETs against u under pol, decoding a 200 body into out.
func (c *Client) get(ctx context.Context, endpoint, u string, pol policy, out any) error {
	var last error
	for i := 0; i < pol.attempts; i++ {
		if err := c.rl.Wait(ctx); err != nil {
			return err
		}
		err := c.once(ctx, endpoint, u, out)
		var tr *transient
		if !errors.As(err, &tr) {
			return err
		}
		last = tr.err
		if i == pol.attempts-1 {
			break
		}
		wait := pol.backoff(i)
		if tr.hint >= 0 {
			if tr.hint > pol.maxWait {
				break
			}
			wait = tr.hint
		}
		if !sleepCtx(ctx, wait) {
			return ctx.Err()
		}
	}
	return last
}

func (c *Client) once(ctx context.Context, endpoint, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if c.key != "" {
		req.Header.Set("X-API-Key", c.key)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "scentshop-seed/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("feed", endpoint, 0, time.Since(start))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &transient{err: fmt.Errorf("%w: %s: %v", ErrUnavailable, endpoint, err), hint: -1}
	}
	defer resp.Body.Close()
	observability.ObserveExternal("feed", endpoint, resp.StatusCode, time.Since(start))

	switch resp.StatusCode {
	case http.StatusOK:
		return json.NewDecoder(resp.Body).Decode(out)
	case http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return &transient{
			err:  fmt.Errorf("%w: %s returned %d", ErrUnavailable, endpoint, resp.StatusCode),
			hint: retryAfter(resp.Header.Get("Retry-After")),
		}
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("feed %s: bad status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(b)))
	}
}

// sleepCtx waits for d or returns false early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses a Retry-After value in seconds or as an HTTP date.
// It returns -1 when the header is absent or unparseable.
func retryAfter(h string) time.Duration {
	h = strings.TrimSpace(h)
	if h == "" {
		return -1
	}
	if secs, err := strconv.Atoi(h); err == nil {
		if secs < 0 {
			return -1
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		return max(time.Until(t), 0)
	}
	return -1
}

// backoff doubles base per attempt, adds up to 50% jitter and caps at maxWait.
func (p policy) backoff(i int) time.Duration {
	d := p.base << i
	d += time.Duration(rand.Int63n(int64(d)/2 + 1))
	return min(d, p.maxWait)
}
