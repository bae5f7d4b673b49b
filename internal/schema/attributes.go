// internal/schema/attributes.go
package schema

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/toolbridge/crm-adapter/internal/crm"
	"github.com/toolbridge/crm-adapter/internal/models"
)

// AttributeCache caches the live attribute slugs of each resource type so
// field mapping can run in live-schema mode without an API round trip per
// request. Redis-backed when a client is supplied, with an in-process
// fallback; any cache failure degrades to static-table mapping, never to
// an error.
type AttributeCache struct {
	rdb    *redis.Client
	api    crm.AttributeAPI
	ttl    time.Duration
	logger *zap.Logger

	mu    sync.RWMutex
	local map[models.ResourceType]localEntry
}

type localEntry struct {
	slugs     []string
	expiresAt time.Time
}

// NewAttributeCache builds a cache. rdb may be nil, in which case only the
// in-process cache is used.
func NewAttributeCache(rdb *redis.Client, api crm.AttributeAPI, ttl time.Duration, logger *zap.Logger) *AttributeCache {
	return &AttributeCache{
		rdb:    rdb,
		api:    api,
		ttl:    ttl,
		logger: logger,
		local:  make(map[models.ResourceType]localEntry),
	}
}

// Slugs returns the live attribute slugs for rt, fetching and caching on
// miss. Returns nil when the attributes cannot be fetched; callers treat
// nil as "no live schema available".
func (c *AttributeCache) Slugs(ctx context.Context, rt models.ResourceType) []string {
	if slugs := c.fromRedis(ctx, rt); slugs != nil {
		return slugs
	}
	if slugs := c.fromLocal(rt); slugs != nil {
		return slugs
	}
	return c.refresh(ctx, rt)
}

// Warm refreshes every resource type; used by the cron scheduler.
func (c *AttributeCache) Warm(ctx context.Context) {
	for _, rt := range models.AllResourceTypes() {
		if rt == models.ResourceRecords {
			continue // open schema, nothing to discover
		}
		c.refresh(ctx, rt)
	}
}

func (c *AttributeCache) refresh(ctx context.Context, rt models.ResourceType) []string {
	attrs, err := c.api.ListAttributes(ctx, rt)
	if err != nil {
		c.logger.Warn("attribute discovery failed",
			zap.String("resource_type", string(rt)),
			zap.Error(err))
		return nil
	}
	slugs := make([]string, 0, len(attrs))
	for _, a := range attrs {
		slugs = append(slugs, a.Slug)
	}
	c.store(ctx, rt, slugs)
	return slugs
}

func (c *AttributeCache) store(ctx context.Context, rt models.ResourceType, slugs []string) {
	c.mu.Lock()
	c.local[rt] = localEntry{slugs: slugs, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()

	if c.rdb == nil {
		return
	}
	data, err := json.Marshal(slugs)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, redisKey(rt), data, c.ttl).Err(); err != nil {
		c.logger.Warn("attribute cache write failed", zap.Error(err))
	}
}

func (c *AttributeCache) fromLocal(rt models.ResourceType) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.local[rt]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil
	}
	return entry.slugs
}

func (c *AttributeCache) fromRedis(ctx context.Context, rt models.ResourceType) []string {
	if c.rdb == nil {
		return nil
	}
	data, err := c.rdb.Get(ctx, redisKey(rt)).Bytes()
	if err != nil {
		return nil
	}
	var slugs []string
	if err := json.Unmarshal(data, &slugs); err != nil {
		return nil
	}
	return slugs
}

func redisKey(rt models.ResourceType) string {
	return "attrs:" + string(rt)
}
