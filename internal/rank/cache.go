package rank

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// rankingsKeyPrefix namespaces cached group rankings in Redis.
const rankingsKeyPrefix = "flatrank:rankings:"

// RankingsCache caches aggregated group rankings in Redis with a short TTL
// and explicit per-group invalidation on comparison, reset, and listing
// changes. The cache is best-effort: any Redis failure degrades to a
// recompute, never an error to the caller. A nil *RankingsCache is valid and
// disables caching.
type RankingsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRankingsCache creates a RankingsCache with the given TTL.
func NewRankingsCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RankingsCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RankingsCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached rankings for a group, and whether the lookup hit.
func (c *RankingsCache) Get(ctx context.Context, groupID string) ([]AggregateEntry, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, rankingsKeyPrefix+groupID).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WarnContext(ctx, "rankings cache read failed", "error", err, "group_id", groupID)
		}
		return nil, false
	}

	var entries []AggregateEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		c.logger.WarnContext(ctx, "rankings cache entry corrupt, discarding", "error", err, "group_id", groupID)
		c.Invalidate(ctx, groupID)
		return nil, false
	}
	return entries, true
}

// Set stores the rankings for a group under the cache TTL.
func (c *RankingsCache) Set(ctx context.Context, groupID string, entries []AggregateEntry) {
	if c == nil || c.client == nil {
		return
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		c.logger.WarnContext(ctx, "rankings cache encode failed", "error", err, "group_id", groupID)
		return
	}
	if err := c.client.Set(ctx, rankingsKeyPrefix+groupID, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "rankings cache write failed", "error", err, "group_id", groupID)
	}
}

// Invalidate drops the cached rankings for a single group; a new comparison
// only stales its own group's aggregate.
func (c *RankingsCache) Invalidate(ctx context.Context, groupID string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, rankingsKeyPrefix+groupID).Err(); err != nil {
		c.logger.WarnContext(ctx, "rankings cache invalidation failed", "error", err, "group_id", groupID)
	}
}
