// Package cache provides a short-TTL read-through cache for an
// organization's hold list. The hold gate runs on every destructive
// document operation; the cache keeps that hot path off PostgreSQL while
// invalidation on issue and release keeps it honest.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"veritas/internal/legalhold"
	id "veritas/pkg/domain"
)

const (
	keyPrefix  = "veritas:holds:"
	defaultTTL = 30 * time.Second
)

// Cache wraps a Redis client. All failures degrade to a miss; the gate
// must keep working when Redis is down.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

type Option func(*Cache)

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// New creates a hold cache. A nil client yields a cache that always misses.
func New(client *redis.Client, opts ...Option) *Cache {
	c := &Cache{client: client, ttl: defaultTTL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached hold list for the organization and whether the
// lookup hit.
func (c *Cache) Get(ctx context.Context, orgID id.OrgID) ([]legalhold.Hold, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, key(orgID)).Bytes()
	if err != nil {
		if err != redis.Nil && c.logger != nil {
			c.logger.WarnContext(ctx, "hold cache read failed", "org_id", orgID, "error", err)
		}
		return nil, false
	}
	var holds []legalhold.Hold
	if err := json.Unmarshal(raw, &holds); err != nil {
		if c.logger != nil {
			c.logger.WarnContext(ctx, "hold cache entry corrupt", "org_id", orgID, "error", err)
		}
		return nil, false
	}
	return holds, true
}

// Set stores the organization's hold list.
func (c *Cache) Set(ctx context.Context, orgID id.OrgID, holds []legalhold.Hold) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(holds)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key(orgID), raw, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.WarnContext(ctx, "hold cache write failed", "org_id", orgID, "error", err)
	}
}

// Invalidate drops the organization's cached hold list. Called whenever a
// hold is issued or released.
func (c *Cache) Invalidate(ctx context.Context, orgID id.OrgID) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, key(orgID)).Err(); err != nil && c.logger != nil {
		c.logger.WarnContext(ctx, "hold cache invalidation failed", "org_id", orgID, "error", err)
	}
}

func key(orgID id.OrgID) string {
	return keyPrefix + string(orgID)
}
