package cache

import (
	"fmt"
	"strconv"
	"time"

	radix "github.com/mediocregopher/radix/v3"
)

// UnseenCache caches per-user unseen-notification counts in Redis. It is
// optional: a nil *UnseenCache is a valid no-op instance, so the tracker can
// be wired with or without Redis. Every mutation path (post message, mark
// read) must call Invalidate for the affected user.
type UnseenCache struct {
	redis radix.Client
	ttl   time.Duration
}

// New connects a pooled Redis client. Empty addr returns nil (cache disabled).
func New(addr string, ttl time.Duration) (*UnseenCache, error) {
	if addr == "" {
		return nil, nil
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	pool, err := radix.NewPool("tcp", addr, 10)
	if err != nil {
		return nil, err
	}
	return &UnseenCache{redis: pool, ttl: ttl}, nil
}

func (c *UnseenCache) key(userID uint) string {
	return fmt.Sprintf("chat:unseen:%d", userID)
}

// Get returns the cached count and whether it was a hit.
func (c *UnseenCache) Get(userID uint) (int64, bool) {
	if c == nil {
		return 0, false
	}
	var raw string
	if err := c.redis.Do(radix.Cmd(&raw, "GET", c.key(userID))); err != nil {
		return 0, false
	}
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		_ = c.redis.Do(radix.Cmd(nil, "DEL", c.key(userID)))
		return 0, false
	}
	return n, true
}

// Set stores the count with the configured TTL.
func (c *UnseenCache) Set(userID uint, count int64) {
	if c == nil {
		return
	}
	_ = c.redis.Do(radix.FlatCmd(nil, "SETEX", c.key(userID), int64(c.ttl/time.Second), count))
}

// Invalidate drops the cached count for the user.
func (c *UnseenCache) Invalidate(userID uint) {
	if c == nil {
		return
	}
	_ = c.redis.Do(radix.Cmd(nil, "DEL", c.key(userID)))
}

// Close releases the underlying pool.
func (c *UnseenCache) Close() error {
	if c == nil {
		return nil
	}
	return c.redis.Close()
}
