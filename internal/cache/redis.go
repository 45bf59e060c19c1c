// Package cache implements the summary cache on Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/steveuk2021/thescammershort/internal/domain"
)

// keyPrefix carries the summary schema version. Bump it when the meaning of
// a cached field changes so stale payloads are never served.
const keyPrefix = "summary:v2:"

// DefaultTTL is used when a non-positive TTL is configured.
const DefaultTTL = 24 * time.Hour

// RedisSummaryCache stores run summaries as JSON with a TTL.
type RedisSummaryCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedis connects to Redis. The connection is verified with PING.
func NewRedis(ctx context.Context, opts Options) (*RedisSummaryCache, *redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisSummaryCache(client, opts.TTL), client, nil
}

// NewRedisSummaryCache wraps an existing client.
func NewRedisSummaryCache(client redis.Cmdable, ttl time.Duration) *RedisSummaryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisSummaryCache{client: client, ttl: ttl}
}

func key(runID string) string {
	return keyPrefix + runID
}

// Get returns the cached summary. A missing key is a miss, not an error.
func (c *RedisSummaryCache) Get(ctx context.Context, runID string) (*domain.RunSummary, bool, error) {
	raw, err := c.client.Get(ctx, key(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get summary %s: %w", runID, err)
	}

	var s domain.RunSummary
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false, fmt.Errorf("decode summary %s: %w", runID, err)
	}
	return &s, true, nil
}

// Set stores a summary under its run id.
func (c *RedisSummaryCache) Set(ctx context.Context, s *domain.RunSummary) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode summary %s: %w", s.RunID, err)
	}
	if err := c.client.Set(ctx, key(s.RunID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set summary %s: %w", s.RunID, err)
	}
	return nil
}
