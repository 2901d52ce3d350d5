// Package cache implements the seen cache on Redis.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"support_server/core/port/out"
)

const seenKeyPrefix = "seen:"

// SeenCache marks processed message IDs with a TTL. SETNX makes the mark
// atomic across concurrent pollers.
type SeenCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSeenCache creates the cache. The TTL should comfortably exceed the
// mailbox retention of unread mail so a mark outlives its message.
func NewSeenCache(client *redis.Client, ttl time.Duration) *SeenCache {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &SeenCache{client: client, ttl: ttl}
}

// FirstSeen atomically marks the ID and reports whether it was new.
func (c *SeenCache) FirstSeen(ctx context.Context, messageID string) (bool, error) {
	ok, err := c.client.SetNX(ctx, seenKeyPrefix+messageID, 1, c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("seen cache set: %w", err)
	}
	return ok, nil
}

// Forget removes the mark so the message is retried on the next poll.
func (c *SeenCache) Forget(ctx context.Context, messageID string) error {
	if err := c.client.Del(ctx, seenKeyPrefix+messageID).Err(); err != nil {
		return fmt.Errorf("seen cache del: %w", err)
	}
	return nil
}

var _ out.SeenCache = (*SeenCache)(nil)
