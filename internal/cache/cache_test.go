package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type report struct {
	Total int64 `json:"total"`
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, time.Minute)
}

func TestFetchJSONCachesUntilBump(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return report{Total: int64(calls * 100)}, nil
	}

	key, err := c.Key(ctx, "o1", "trial", "2024-01-01")
	require.NoError(t, err)

	var got report
	require.NoError(t, c.FetchJSON(ctx, key, &got, loader))
	require.NoError(t, c.FetchJSON(ctx, key, &got, loader))
	assert.Equal(t, 1, calls)
	assert.Equal(t, int64(100), got.Total)

	require.NoError(t, c.Bump(ctx, "o1"))
	next, err := c.Key(ctx, "o1", "trial", "2024-01-01")
	require.NoError(t, err)
	assert.NotEqual(t, key, next)

	require.NoError(t, c.FetchJSON(ctx, next, &got, loader))
	assert.Equal(t, 2, calls)
	assert.Equal(t, int64(200), got.Total)
}

func TestBumpIsPerOwner(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	a, err := c.Key(ctx, "a", "bs")
	require.NoError(t, err)
	b, err := c.Key(ctx, "b", "bs")
	require.NoError(t, err)

	require.NoError(t, c.Bump(ctx, "a"))

	a2, err := c.Key(ctx, "a", "bs")
	require.NoError(t, err)
	b2, err := c.Key(ctx, "b", "bs")
	require.NoError(t, err)
	assert.NotEqual(t, a, a2)
	assert.Equal(t, b, b2)
}

func TestNilCacheRunsLoader(t *testing.T) {
	var c *Cache
	var got report
	err := c.FetchJSON(context.Background(), "k", &got, func(context.Context) (any, error) {
		return report{Total: 7}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Total)
	assert.NoError(t, c.Bump(context.Background(), "o"))
}
