package auth

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"time"

	"codejudge/internal/common/cache"
)

const tokenBlacklistKey = "auth:token:blacklist"

// TokenBlacklist checks token revocation in Redis, remembering positive hits locally.
type TokenBlacklist struct {
	local        *lruCache
	redis        cache.SetOps
	redisTimeout time.Duration
}

func NewTokenBlacklist(redis cache.SetOps, redisTimeout time.Duration, localSize int, localTTL time.Duration) *TokenBlacklist {
	if redisTimeout <= 0 {
		redisTimeout = 200 * time.Millisecond
	}
	return &TokenBlacklist{
		local:        newLRUCache(localSize, localTTL),
		redis:        redis,
		redisTimeout: redisTimeout,
	}
}

func (b *TokenBlacklist) IsBlacklisted(ctx context.Context, tokenHash string) (bool, error) {
	if tokenHash == "" {
		return false, nil
	}
	if b.local.get(tokenHash) {
		return true, nil
	}
	if b.redis == nil {
		return false, errors.New("redis is nil")
	}
	ctxCache, cancel := context.WithTimeout(ctx, b.redisTimeout)
	defer cancel()
	revoked, err := b.redis.SIsMember(ctxCache, tokenBlacklistKey, tokenHash)
	if err != nil {
		return false, err
	}
	if revoked {
		b.local.add(tokenHash)
	}
	return revoked, nil
}

// Revoke adds a token hash to the shared blacklist.
func (b *TokenBlacklist) Revoke(ctx context.Context, tokenHash string) error {
	if b.redis == nil {
		return errors.New("redis is nil")
	}
	if err := b.redis.SAdd(ctx, tokenBlacklistKey, tokenHash); err != nil {
		return err
	}
	b.local.add(tokenHash)
	return nil
}

type lruEntry struct {
	key       string
	expiresAt time.Time
}

// lruCache is a small TTL-bounded set used on the authentication hot path.
type lruCache struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List
	maxSize int
	ttl     time.Duration
}

func newLRUCache(maxSize int, ttl time.Duration) *lruCache {
	if maxSize <= 0 {
		maxSize = 1024
	}
	return &lruCache{
		items:   make(map[string]*list.Element, maxSize),
		order:   list.New(),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

func (c *lruCache) get(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return false
	}
	entry := elem.Value.(*lruEntry)
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.remove(elem)
		return false
	}
	c.order.MoveToFront(elem)
	return true
}

func (c *lruCache) add(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var exp time.Time
	if c.ttl > 0 {
		exp = time.Now().Add(c.ttl)
	}
	if elem, ok := c.items[key]; ok {
		elem.Value.(*lruEntry).expiresAt = exp
		c.order.MoveToFront(elem)
		return
	}
	c.items[key] = c.order.PushFront(&lruEntry{key: key, expiresAt: exp})
	if len(c.items) > c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
}

func (c *lruCache) remove(elem *list.Element) {
	delete(c.items, elem.Value.(*lruEntry).key)
	c.order.Remove(elem)
}
