package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"greenMarketBack/internal/models"
)

const keyPrefix = "items:search:v2"

// RedisSearchCache keeps ranked search results in Redis for a short TTL.
type RedisSearchCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisSearchCache creates a cache. A non-positive ttl disables it and
// NewRedisSearchCache returns nil.
func NewRedisSearchCache(rdb *redis.Client, ttl time.Duration) *RedisSearchCache {
	if rdb == nil || ttl <= 0 {
		return nil
	}
	return &RedisSearchCache{rdb: rdb, ttl: ttl}
}

// Key derives the cache key of an envelope. Coordinates and radius keep full
// precision so that only identical envelopes share an entry.
func Key(env models.SearchEnvelope) string {
	return fmt.Sprintf("%s:%s:%s:%s:%d", keyPrefix,
		strconv.FormatFloat(env.Center.Latitude, 'f', -1, 64),
		strconv.FormatFloat(env.Center.Longitude, 'f', -1, 64),
		strconv.FormatFloat(env.RadiusKm, 'f', -1, 64),
		env.Limit)
}

// Get returns the cached result for env. A miss is (zero, false, nil).
func (c *RedisSearchCache) Get(ctx context.Context, env models.SearchEnvelope) (models.SearchResult, bool, error) {
	raw, err := c.rdb.Get(ctx, Key(env)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.SearchResult{}, false, nil
	}
	if err != nil {
		return models.SearchResult{}, false, err
	}
	var res models.SearchResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return models.SearchResult{}, false, fmt.Errorf("decode cached search: %w", err)
	}
	return res, true, nil
}

// Set stores res under env's key.
func (c *RedisSearchCache) Set(ctx context.Context, env models.SearchEnvelope, res models.SearchResult) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode search: %w", err)
	}
	return c.rdb.Set(ctx, Key(env), raw, c.ttl).Err()
}
