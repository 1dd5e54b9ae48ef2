package remote

import (
	"context"
	"encoding/json"
	"errors"
	"kanban/internal/logger"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache - кэш списков. Ошибки кэша никогда не роняют вызов.
type Cache interface {
	Load(ctx context.Context, key string, dst any) bool
	Store(ctx context.Context, key string, value any)
	Evict(ctx context.Context, keys ...string)
}

// NopCache используется, когда Redis не настроен
type NopCache struct{}

func (NopCache) Load(context.Context, string, any) bool { return false }
func (NopCache) Store(context.Context, string, any)     {}
func (NopCache) Evict(context.Context, ...string)       {}

type RedisCache struct {
	redis  *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisCache(client *redis.Client, ttl time.Duration, prefix string) *RedisCache {
	if client == nil {
		panic("remote.NewRedisCache: redis client is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisCache{redis: client, ttl: ttl, prefix: prefix}
}

func (c *RedisCache) key(key string) string {
	return c.prefix + key
}

func (c *RedisCache) Load(ctx context.Context, key string, dst any) bool {
	data, err := c.redis.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("Cache: Ошибка чтения, идём в API", zap.String("key", key), zap.Error(err))
			_ = c.redis.Del(ctx, c.key(key)).Err()
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		logger.Warn("Cache: Битая запись", zap.String("key", key), zap.Error(err))
		_ = c.redis.Del(ctx, c.key(key)).Err()
		return false
	}
	return true
}

func (c *RedisCache) Store(ctx context.Context, key string, value any) {
	if c.ttl == 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, c.key(key), data, c.ttl).Err(); err != nil {
		logger.Warn("Cache: Не удалось сохранить", zap.String("key", key), zap.Error(err))
	}
}

func (c *RedisCache) Evict(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	if err := c.redis.Del(ctx, full...).Err(); err != nil {
		logger.Warn("Cache: Не удалось сбросить ключи", zap.Strings("keys", keys), zap.Error(err))
	}
}

const tasksKey = "tasks"

func commentsKey(taskID string) string {
	return "comments:" + taskID
}
