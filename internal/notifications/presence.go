package notifications

import (
	"context"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
)

// PresenceSet tracks which usernames are online. The Redis implementation is
// shared across instances; the local one serves a single instance when Redis
// is unavailable. Both are injected into the hub rather than reached through
// a global.
type PresenceSet interface {
	Add(ctx context.Context, username string) error
	Remove(ctx context.Context, username string) error
	List(ctx context.Context) ([]string, error)
}

const presenceKey = "presence:online"

type redisPresence struct {
	rdb *redis.Client
}

// NewRedisPresence returns a PresenceSet backed by a shared Redis set.
func NewRedisPresence(rdb *redis.Client) PresenceSet {
	return &redisPresence{rdb: rdb}
}

func (p *redisPresence) Add(ctx context.Context, username string) error {
	return p.rdb.SAdd(ctx, presenceKey, username).Err()
}

func (p *redisPresence) Remove(ctx context.Context, username string) error {
	return p.rdb.SRem(ctx, presenceKey, username).Err()
}

func (p *redisPresence) List(ctx context.Context) ([]string, error) {
	users, err := p.rdb.SMembers(ctx, presenceKey).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(users)
	return users, nil
}

type localPresence struct {
	mu    sync.Mutex
	users map[string]struct{}
}

// NewLocalPresence returns an in-process PresenceSet.
func NewLocalPresence() PresenceSet {
	return &localPresence{users: make(map[string]struct{})}
}

func (p *localPresence) Add(_ context.Context, username string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[username] = struct{}{}
	return nil
}

func (p *localPresence) Remove(_ context.Context, username string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.users, username)
	return nil
}

func (p *localPresence) List(_ context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	users := make([]string, 0, len(p.users))
	for u := range p.users {
		users = append(users, u)
	}
	sort.Strings(users)
	return users, nil
}
