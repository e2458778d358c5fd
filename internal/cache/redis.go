package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/raaihank/bias-auditor/internal/bias"
	"github.com/raaihank/bias-auditor/internal/config"
	"go.uber.org/zap"
)

// RedisCache stores JSON-encoded reports in Redis
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
	counters
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(cfg config.CacheConfig, logger *zap.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = cfg.MaxConnections
	opts.MinIdleConns = cfg.MinIdleConns

	c := &RedisCache{
		client: redis.NewClient(opts),
		prefix: cfg.KeyPrefix,
		ttl:    cfg.TTL,
		logger: logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.client.Ping(ctx).Err(); err != nil {
		_ = c.client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Report cache initialized",
		zap.String("backend", "redis"),
		zap.String("redis_url", maskRedisURL(cfg.RedisURL)),
		zap.Int("max_connections", cfg.MaxConnections),
		zap.Duration("ttl", cfg.TTL),
	)

	return c, nil
}

// Get looks up a report; corrupted entries are deleted and treated as misses
func (c *RedisCache) Get(ctx context.Context, key string) (*bias.Report, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err == redis.Nil {
		c.record(false)
		return nil, false, nil
	}
	if err != nil {
		c.record(false)
		return nil, false, fmt.Errorf("cache lookup failed: %w", err)
	}

	var report bias.Report
	if err := json.Unmarshal(data, &report); err != nil {
		c.logger.Warn("Dropping corrupted cache entry", zap.String("key", key), zap.Error(err))
		c.client.Del(ctx, c.prefix+key)
		c.record(false)
		return nil, false, nil
	}

	c.record(true)
	return &report, true, nil
}

// Set stores the report with the configured TTL
func (c *RedisCache) Set(ctx context.Context, key string, report *bias.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store report: %w", err)
	}
	return nil
}

// Stats returns hit/miss counters. Item count is not tracked for Redis.
func (c *RedisCache) Stats() Stats {
	return c.stats("redis", -1)
}

// Close closes the Redis client
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// maskRedisURL hides the password portion of a Redis URL for logging
func maskRedisURL(raw string) string {
	scheme := strings.Index(raw, "://")
	at := strings.LastIndex(raw, "@")
	if scheme < 0 || at < scheme {
		return raw
	}
	creds := raw[scheme+3 : at]
	if colon := strings.Index(creds, ":"); colon >= 0 {
		creds = creds[:colon+1] + "****"
	}
	return raw[:scheme+3] + creds + raw[at:]
}
