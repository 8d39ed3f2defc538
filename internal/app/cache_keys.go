package app

import (
	"context"
	"fmt"
	"time"

	"scentshop/internal/domain"
)

const (
	featuredKey      = "products:featured"
	scentFamiliesKey = "products:scent-families"
)

func productKey(identifier string) string { return "product:" + identifier }

func reviewsPrefix(productID string) string { return fmt.Sprintf("reviews:%s:", productID) }

func reviewsKey(productID string, q domain.ReviewQuery) string {
	return fmt.Sprintf("%s%s:%d:%d", reviewsPrefix(productID), q.Sort, q.Page, q.Limit)
}

// productKeys lists every cache entry that embeds p's derived fields.
func productKeys(p domain.Product) []string {
	return []string{productKey(p.Slug), productKey(p.ID), featuredKey}
}

type cached struct {
	cache domain.Cache
	ttl   time.Duration
}

func (c cached) get(ctx context.Context, key string, dst any) bool {
	if c.cache == nil {
		return false
	}
	ok, err := c.cache.Get(ctx, key, dst)
	return ok && err == nil
}

func (c cached) set(ctx context.Context, key string, v any) {
	if c.cache == nil {
		return
	}
	_ = c.cache.Set(ctx, key, v, int(c.ttl.Seconds()))
}

func (c cached) del(ctx context.Context, keys ...string) {
	if c.cache == nil {
		return
	}
	_ = c.cache.Del(ctx, keys...)
}

func (c cached) delPrefix(ctx context.Context, prefix string) {
	if c.cache == nil {
		return
	}
	_ = c.cache.DelPrefix(ctx, prefix)
}
