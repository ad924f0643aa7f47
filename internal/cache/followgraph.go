package cache

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"reelfeed/internal/observability"

	"github.com/redis/go-redis/v9"
)

// FollowGraphCache answers "who does user X follow" without hitting the
// database on every feed request. Redis is the shared tier; a bounded local
// LRU serves as fallback when Redis is down and absorbs repeat lookups on a
// single instance. Entries expire after the configured TTL, so follow and
// unfollow take effect within one TTL without explicit invalidation.
type FollowGraphCache struct {
	rdb *redis.Client
	ttl time.Duration

	mu      sync.Mutex
	maxSize int
	order   *list.List
	entries map[uint]*list.Element

	log *observability.CacheLogger
}

type followEntry struct {
	userID    uint
	following map[uint]struct{}
	expiresAt time.Time
}

// NewFollowGraphCache builds a cache with the given local capacity and TTL.
// rdb may be nil; the cache then runs on the local tier alone.
func NewFollowGraphCache(rdb *redis.Client, maxSize int, ttl time.Duration) *FollowGraphCache {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &FollowGraphCache{
		rdb:     rdb,
		ttl:     ttl,
		maxSize: maxSize,
		order:   list.New(),
		entries: make(map[uint]*list.Element),
		log:     observability.NewCacheLogger("follow_graph"),
	}
}

func followKey(userID uint) string {
	return fmt.Sprintf("follows:%d", userID)
}

// Following returns the cached follow set for userID. The boolean reports
// whether a live entry was found in either tier.
func (c *FollowGraphCache) Following(ctx context.Context, userID uint) (map[uint]struct{}, bool) {
	if c.rdb != nil {
		var ids []uint
		found, err := GetJSON(ctx, c.rdb, followKey(userID), &ids)
		if err != nil {
			c.log.LogFallback(ctx, followKey(userID), err)
			observability.FollowCacheHits.WithLabelValues("redis", "error").Inc()
		} else if found {
			observability.FollowCacheHits.WithLabelValues("redis", "hit").Inc()
			set := make(map[uint]struct{}, len(ids))
			for _, id := range ids {
				set[id] = struct{}{}
			}
			// Refresh the local tier so a Redis outage right after still hits.
			c.localSet(userID, set)
			return set, true
		} else {
			observability.FollowCacheHits.WithLabelValues("redis", "miss").Inc()
			return nil, false
		}
	}

	set, ok := c.localGet(userID)
	if ok {
		observability.FollowCacheHits.WithLabelValues("local", "hit").Inc()
	} else {
		observability.FollowCacheHits.WithLabelValues("local", "miss").Inc()
	}
	return set, ok
}

// SetFollowing stores the follow set in both tiers.
func (c *FollowGraphCache) SetFollowing(ctx context.Context, userID uint, following map[uint]struct{}) {
	c.localSet(userID, following)

	if c.rdb == nil {
		return
	}
	ids := make([]uint, 0, len(following))
	for id := range following {
		ids = append(ids, id)
	}
	if err := SetJSON(ctx, c.rdb, followKey(userID), ids, c.ttl); err != nil {
		c.log.LogFallback(ctx, followKey(userID), err)
	}
}

// Invalidate drops the user's follow set from both tiers. Callers use it after
// a follow or unfollow so the next feed sees the change immediately instead of
// after TTL expiry.
func (c *FollowGraphCache) Invalidate(ctx context.Context, userID uint) {
	c.mu.Lock()
	if el, ok := c.entries[userID]; ok {
		c.order.Remove(el)
		delete(c.entries, userID)
	}
	c.mu.Unlock()

	if c.rdb != nil {
		if err := c.rdb.Del(ctx, followKey(userID)).Err(); err != nil {
			c.log.LogFallback(ctx, followKey(userID), err)
		}
	}
	c.log.LogInvalidate(ctx, fmt.Sprintf("user:%d", userID), 1)
}

func (c *FollowGraphCache) localGet(userID uint) (map[uint]struct{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[userID]
	if !ok {
		return nil, false
	}
	e := el.Value.(*followEntry)
	if time.Now().After(e.expiresAt) {
		c.order.Remove(el)
		delete(c.entries, userID)
		return nil, false
	}
	c.order.MoveToFront(el)
	return e.following, true
}

func (c *FollowGraphCache) localSet(userID uint, following map[uint]struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[userID]; ok {
		e := el.Value.(*followEntry)
		e.following = following
		e.expiresAt = time.Now().Add(c.ttl)
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(&followEntry{
		userID:    userID,
		following: following,
		expiresAt: time.Now().Add(c.ttl),
	})
	c.entries[userID] = el

	for c.order.Len() > c.maxSize {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*followEntry).userID)
	}
}
