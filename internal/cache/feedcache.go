package cache

import (
	"container/list"
	"context"
	"strconv"
	"sync"
	"time"

	"reelfeed/internal/models"
	"reelfeed/internal/observability"
)

// GuestViewer is the cache viewer key for unauthenticated requests.
const GuestViewer = "guest"

// ViewerKey returns the cache viewer key for an authenticated user id.
func ViewerKey(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}

// FeedKey identifies one cached feed page. Pages are per viewer because the
// liked and isFollowing fields differ between viewers.
type FeedKey struct {
	Viewer string
	Page   int
	Limit  int
	Mode   string
}

// FeedCache is a bounded in-process LRU of assembled feed pages with a short
// TTL. It serves identical requests within the TTL window without touching
// the database; staleness up to the TTL is accepted.
type FeedCache struct {
	ttl time.Duration

	mu      sync.Mutex
	maxSize int
	order   *list.List
	entries map[FeedKey]*list.Element

	log *observability.CacheLogger
}

type feedEntry struct {
	key       FeedKey
	page      *models.FeedPage
	expiresAt time.Time
}

// NewFeedCache builds a feed cache with the given capacity and TTL.
func NewFeedCache(maxSize int, ttl time.Duration) *FeedCache {
	if maxSize <= 0 {
		maxSize = 512
	}
	return &FeedCache{
		ttl:     ttl,
		maxSize: maxSize,
		order:   list.New(),
		entries: make(map[FeedKey]*list.Element),
		log:     observability.NewCacheLogger("feed"),
	}
}

// Get returns the cached page for key if present and unexpired.
func (c *FeedCache) Get(key FeedKey) (*models.FeedPage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		observability.FeedCacheHits.WithLabelValues("miss").Inc()
		return nil, false
	}
	e := el.Value.(*feedEntry)
	if time.Now().After(e.expiresAt) {
		c.order.Remove(el)
		delete(c.entries, key)
		observability.FeedCacheHits.WithLabelValues("expired").Inc()
		return nil, false
	}
	c.order.MoveToFront(el)
	observability.FeedCacheHits.WithLabelValues("hit").Inc()
	return e.page, true
}

// Put stores an assembled page, evicting the least recently used entry when full.
func (c *FeedCache) Put(key FeedKey, page *models.FeedPage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		e := el.Value.(*feedEntry)
		e.page = page
		e.expiresAt = time.Now().Add(c.ttl)
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(&feedEntry{
		key:       key,
		page:      page,
		expiresAt: time.Now().Add(c.ttl),
	})
	c.entries[key] = el

	for c.order.Len() > c.maxSize {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*feedEntry).key)
	}
}

// InvalidateUser drops every page cached for the given viewer and every guest
// page. Guest pages embed no viewer state but still show counters the viewer
// just changed, so they go too.
func (c *FeedCache) InvalidateUser(ctx context.Context, viewer string) {
	c.mu.Lock()
	removed := 0
	for key, el := range c.entries {
		if key.Viewer == viewer || key.Viewer == GuestViewer {
			c.order.Remove(el)
			delete(c.entries, key)
			removed++
		}
	}
	c.mu.Unlock()

	c.log.LogInvalidate(ctx, "viewer:"+viewer, removed)
}

// InvalidateAll empties the cache. Used when post visibility changes
// (approval, deletion) affect every viewer's feed at once.
func (c *FeedCache) InvalidateAll(ctx context.Context) {
	c.mu.Lock()
	removed := len(c.entries)
	c.order.Init()
	c.entries = make(map[FeedKey]*list.Element)
	c.mu.Unlock()

	c.log.LogInvalidate(ctx, "all", removed)
}

// Len returns the number of live entries, expired or not.
func (c *FeedCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
