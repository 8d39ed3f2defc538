package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisad "scentshop/internal/adapters/redis"
	"scentshop/internal/domain"
)

func newCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_SetGet(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	var miss domain.Product
	ok, err := c.Get(ctx, "product:none", &miss)
	require.NoError(t, err)
	assert.False(t, ok)

	in := domain.Product{ID: domain.NewID(), Name: "Santal 33", Slug: "santal-33", Rating: 4.7}
	require.NoError(t, c.Set(ctx, "product:santal-33", in, 60))

	var out domain.Product
	ok, err = c.Get(ctx, "product:santal-33", &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, 4.7, out.Rating)

	mr.FastForward(61 * time.Second)
	ok, err = c.Get(ctx, "product:santal-33", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_DelAndDelPrefix(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	for _, k := range []string{"reviews:a:newest:1:10", "reviews:a:oldest:1:10", "reviews:b:newest:1:10", "products:featured"} {
		require.NoError(t, c.Set(ctx, k, []int{1}, 60))
	}

	require.NoError(t, c.DelPrefix(ctx, "reviews:a:"))
	assert.False(t, mr.Exists("reviews:a:newest:1:10"))
	assert.False(t, mr.Exists("reviews:a:oldest:1:10"))
	assert.True(t, mr.Exists("reviews:b:newest:1:10"))

	require.NoError(t, c.Del(ctx, "products:featured", "missing"))
	assert.False(t, mr.Exists("products:featured"))
	assert.NoError(t, c.Del(ctx))
}
