package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/amirasaad/backoffice/pkg/cache"
	"github.com/redis/go-redis/v9"
)

// RedisResponseCache implements cache.ResponseCache using Redis.
type RedisResponseCache struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
}

// NewRedisResponseCache creates a RedisResponseCache on an existing client.
func NewRedisResponseCache(client redis.UniversalClient, prefix string, logger *slog.Logger) *RedisResponseCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisResponseCache{client: client, prefix: prefix, logger: logger}
}

// NewRedisResponseCacheWithOptions creates a RedisResponseCache from
// redis.Options.
func NewRedisResponseCacheWithOptions(
	opt *redis.Options,
	prefix string,
	logger *slog.Logger,
) *RedisResponseCache {
	return NewRedisResponseCache(redis.NewClient(opt), prefix, logger)
}

func (r *RedisResponseCache) key(key string) string {
	return r.prefix + "idempotency:" + key
}

func (r *RedisResponseCache) Get(ctx context.Context, key string) (*cache.CachedResponse, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.logger.Debug("Redis cache miss", "key", key)
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Redis cache get error", "key", key, "error", err)
		return nil, err
	}
	var resp cache.CachedResponse
	if err := json.Unmarshal(val, &resp); err != nil {
		r.logger.Error("Redis cache unmarshal error", "key", key, "error", err)
		return nil, err
	}
	r.logger.Debug("Redis cache hit", "key", key, "status", resp.Status)
	return &resp, nil
}

func (r *RedisResponseCache) Set(
	ctx context.Context,
	key string,
	resp *cache.CachedResponse,
	ttl time.Duration,
) error {
	data, err := json.Marshal(resp)
	if err != nil {
		r.logger.Error("Redis cache marshal error", "key", key, "error", err)
		return err
	}
	if err := r.client.Set(ctx, r.key(key), data, ttl).Err(); err != nil {
		r.logger.Error("Redis cache set error", "key", key, "error", err)
		return err
	}
	r.logger.Debug("Redis cache set", "key", key, "status", resp.Status, "ttl", ttl)
	return nil
}

func (r *RedisResponseCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		r.logger.Error("Redis cache delete error", "key", key, "error", err)
		return err
	}
	r.logger.Debug("Redis cache delete", "key", key)
	return nil
}

// Ping checks that the server answers.
func (r *RedisResponseCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (r *RedisResponseCache) Close() error {
	return r.client.Close()
}

var _ cache.ResponseCache = (*RedisResponseCache)(nil)
