package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskmaster-platform/auth-service/config"
)

// scanBatchSize bounds the per-call fan-out of namespace invalidation.
const scanBatchSize = 100

// Client wraps a Redis client with JSON helpers and a key prefix. Every
// helper is fail-open: cache errors are logged and swallowed so the store
// stays the fallback of record. Absence is reported via the ok flag, never
// cached.
type Client struct {
	rdb       *redis.Client
	logger    *slog.Logger
	keyPrefix string
	ttl       time.Duration
	timeout   time.Duration
}

// New constructs a cache client from configuration. The client is injected
// into repositories at startup; Close must be called during teardown.
func New(cfg *config.Config, logger *slog.Logger) *Client {
	rc := cfg.Repositories.Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", rc.Host, rc.Port),
		Password: rc.Password,
		DB:       rc.DB,
	})
	return &Client{
		rdb:       rdb,
		logger:    logger,
		keyPrefix: rc.KeyPrefix,
		ttl:       rc.TTL,
		timeout:   rc.Timeout,
	}
}

// NewWithClient wires an existing Redis client; used by tests with miniredis.
func NewWithClient(rdb *redis.Client, keyPrefix string, ttl time.Duration, logger *slog.Logger) *Client {
	return &Client{
		rdb:       rdb,
		logger:    logger,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		timeout:   500 * time.Millisecond,
	}
}

func (c *Client) key(k string) string {
	return c.keyPrefix + k
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// GetJSON fetches key and unmarshals it into dst. The second return is true
// only on a usable hit; any error counts as a miss.
func (c *Client) GetJSON(ctx context.Context, key string, dst any) bool {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	data, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "Redis get failed", slog.String("key", key), slog.Any("error", err))
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.WarnContext(ctx, "Failed to unmarshal cached value", slog.String("key", key), slog.Any("error", err))
		return false
	}
	return true
}

// SetJSON stores value under key with the configured TTL.
func (c *Client) SetJSON(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to marshal value for cache", slog.String("key", key), slog.Any("error", err))
		return
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.rdb.Set(ctx, c.key(key), data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "Redis set failed", slog.String("key", key), slog.Any("error", err))
	}
}

// Delete removes the given keys.
func (c *Client) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = c.key(k)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.rdb.Del(ctx, prefixed...).Err(); err != nil {
		c.logger.WarnContext(ctx, "Redis delete failed", slog.Any("keys", keys), slog.Any("error", err))
	}
}

// DeleteNamespace removes every key matching pattern (e.g. "users:42:*"),
// scanning in bounded batches.
func (c *Client) DeleteNamespace(ctx context.Context, pattern string) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, c.key(pattern), scanBatchSize).Result()
		if err != nil {
			c.logger.WarnContext(ctx, "Redis scan failed", slog.String("pattern", pattern), slog.Any("error", err))
			return
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				c.logger.WarnContext(ctx, "Redis batch delete failed", slog.String("pattern", pattern), slog.Any("error", err))
				return
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

// Ping checks connectivity; used by startup and health checks.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection. Invoked during orderly teardown.
func (c *Client) Close() error {
	return c.rdb.Close()
}
