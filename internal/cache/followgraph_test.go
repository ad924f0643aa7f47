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

func setOf(ids ...uint) map[uint]struct{} {
	s := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestFollowGraphCache_RedisRoundTrip(t *testing.T) {
	_, rdb := newTestRedis(t)
	c := NewFollowGraphCache(rdb, 16, time.Minute)
	ctx := context.Background()

	_, ok := c.Following(ctx, 1)
	assert.False(t, ok)

	c.SetFollowing(ctx, 1, setOf(2, 3))

	got, ok := c.Following(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, setOf(2, 3), got)
}

func TestFollowGraphCache_RedisTTL(t *testing.T) {
	mr, rdb := newTestRedis(t)
	c := NewFollowGraphCache(rdb, 16, time.Minute)
	ctx := context.Background()

	c.SetFollowing(ctx, 1, setOf(2))
	require.True(t, mr.Exists("follows:1"))

	mr.FastForward(2 * time.Minute)

	// The shared entry expired; the local tier has its own clock and is
	// still fresh, so this instance keeps serving until its TTL lapses.
	require.False(t, mr.Exists("follows:1"))
}

func TestFollowGraphCache_FallsBackToLocalOnRedisError(t *testing.T) {
	mr, rdb := newTestRedis(t)
	c := NewFollowGraphCache(rdb, 16, time.Minute)
	ctx := context.Background()

	c.SetFollowing(ctx, 1, setOf(2, 3))

	mr.Close()

	got, ok := c.Following(ctx, 1)
	require.True(t, ok, "local tier should serve when redis is down")
	assert.Equal(t, setOf(2, 3), got)
}

func TestFollowGraphCache_LocalOnly(t *testing.T) {
	c := NewFollowGraphCache(nil, 16, time.Minute)
	ctx := context.Background()

	c.SetFollowing(ctx, 1, setOf(5))
	got, ok := c.Following(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, setOf(5), got)
}

func TestFollowGraphCache_LocalTTLExpiry(t *testing.T) {
	c := NewFollowGraphCache(nil, 16, 10*time.Millisecond)
	ctx := context.Background()

	c.SetFollowing(ctx, 1, setOf(5))
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Following(ctx, 1)
	assert.False(t, ok)
}

func TestFollowGraphCache_LocalEviction(t *testing.T) {
	c := NewFollowGraphCache(nil, 2, time.Minute)
	ctx := context.Background()

	c.SetFollowing(ctx, 1, setOf(10))
	c.SetFollowing(ctx, 2, setOf(20))

	_, ok := c.Following(ctx, 1)
	require.True(t, ok)

	c.SetFollowing(ctx, 3, setOf(30))

	_, ok = c.Following(ctx, 2)
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Following(ctx, 1)
	assert.True(t, ok)
}

func TestFollowGraphCache_Invalidate(t *testing.T) {
	mr, rdb := newTestRedis(t)
	c := NewFollowGraphCache(rdb, 16, time.Minute)
	ctx := context.Background()

	c.SetFollowing(ctx, 1, setOf(2))
	c.Invalidate(ctx, 1)

	assert.False(t, mr.Exists("follows:1"))
	_, ok := c.Following(ctx, 1)
	assert.False(t, ok)
}
