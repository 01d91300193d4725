package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache 按 (resource, owner) 组织的读缓存
//
// 写操作完成后由调用方显式 Invalidate, 不依赖 TTL 过期来保证一致
type Cache interface {
	Get(ctx context.Context, resource, owner string, dest interface{}) (bool, error)
	Set(ctx context.Context, resource, owner string, value interface{}) error
	Invalidate(ctx context.Context, resource, owner string) error
}

// RedisCache 基于 Redis 的实现
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache 创建 Redis 缓存
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

func (c *RedisCache) key(resource, owner string) string {
	return fmt.Sprintf("%s:%s:%s", c.prefix, resource, owner)
}

func (c *RedisCache) Get(ctx context.Context, resource, owner string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, c.key(resource, owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		// 结构变更后的旧数据, 当作未命中
		c.logger.Warn("缓存数据解析失败, 忽略", zap.String("key", c.key(resource, owner)), zap.Error(err))
		return false, nil
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, resource, owner string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	if err := c.client.Set(ctx, c.key(resource, owner), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, resource, owner string) error {
	if err := c.client.Del(ctx, c.key(resource, owner)).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

// NopCache 未配置 Redis 时使用, 永远未命中
type NopCache struct{}

func (NopCache) Get(context.Context, string, string, interface{}) (bool, error) { return false, nil }
func (NopCache) Set(context.Context, string, string, interface{}) error         { return nil }
func (NopCache) Invalidate(context.Context, string, string) error               { return nil }

// Remember 读穿透: 命中直接返回, 否则调用 load 并回填
// 缓存自身出错只记录日志, 不影响主流程
func Remember[T any](ctx context.Context, c Cache, logger *zap.Logger, resource, owner string, load func() (T, error)) (T, error) {
	var cached T
	hit, err := c.Get(ctx, resource, owner, &cached)
	if err != nil {
		logger.Warn("读取缓存失败", zap.String("resource", resource), zap.String("owner", owner), zap.Error(err))
	}
	if hit {
		return cached, nil
	}

	value, err := load()
	if err != nil {
		return value, err
	}
	if err := c.Set(ctx, resource, owner, value); err != nil {
		logger.Warn("写入缓存失败", zap.String("resource", resource), zap.String("owner", owner), zap.Error(err))
	}
	return value, nil
}
