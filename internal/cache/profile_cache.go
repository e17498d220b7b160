// Package cache provides the advisory redis cache for computed behavior
// profiles. Profiles are always re-derivable from raw history, so a cache
// miss or a flushed key only costs a recomputation.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stillpoint/portal/internal/behavior"
)

// ProfileCache stores profile snapshots keyed by org and client.
type ProfileCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// New creates a profile cache with the given TTL. A zero TTL falls back to
// 15 minutes.
func New(redisClient *redis.Client, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &ProfileCache{redis: redisClient, ttl: ttl}
}

func (c *ProfileCache) key(orgID, clientID string) string {
	return fmt.Sprintf("behavior:profile:%s:%s", orgID, clientID)
}

// Get returns the cached profile or (nil, nil) on a miss.
func (c *ProfileCache) Get(ctx context.Context, orgID, clientID string) (*behavior.Profile, error) {
	data, err := c.redis.Get(ctx, c.key(orgID, clientID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: get profile: %w", err)
	}
	var p behavior.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("cache: unmarshal profile: %w", err)
	}
	return &p, nil
}

// Set stores a profile snapshot under the cache TTL.
func (c *ProfileCache) Set(ctx context.Context, orgID string, p behavior.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("cache: marshal profile: %w", err)
	}
	if err := c.redis.Set(ctx, c.key(orgID, p.ClientID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set profile: %w", err)
	}
	return nil
}

// Invalidate drops the cached profile for one client.
func (c *ProfileCache) Invalidate(ctx context.Context, orgID, clientID string) error {
	if err := c.redis.Del(ctx, c.key(orgID, clientID)).Err(); err != nil {
		return fmt.Errorf("cache: invalidate profile: %w", err)
	}
	return nil
}
