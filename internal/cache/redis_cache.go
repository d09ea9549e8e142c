package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/RiceCakess/holoclips/internal/config"
	"github.com/RiceCakess/holoclips/internal/domain"
)

// RedisPageCache caches serialized history pages in Redis.
type RedisPageCache struct {
	client *redis.Client
	prefix string
}

func NewRedisPageCache(cfg config.RedisConfig) (*RedisPageCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisPageCache{client: client, prefix: cfg.CachePrefix}, nil
}

func (c *RedisPageCache) BuildKey(room domain.Room, cursor string, limit int) string {
	if cursor == "" {
		cursor = "latest"
	}
	return fmt.Sprintf("%s:%s:%s:%d", c.prefix, room.Key(), cursor, limit)
}

func (c *RedisPageCache) Get(ctx context.Context, key string) (*PageResult, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get cache key %s: %w", key, err)
	}

	var result PageResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached page: %w", err)
	}
	return &result, nil
}

func (c *RedisPageCache) Set(ctx context.Context, key string, result *PageResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal page: %w", err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache key %s: %w", key, err)
	}
	return nil
}

func (c *RedisPageCache) Close() error {
	return c.client.Close()
}
