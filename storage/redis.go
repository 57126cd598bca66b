package storage

import (
	"context"

	"github.com/BaSui01/gtmflow/internal/cache"
)

// RedisSubstrate Redis 后端，键前缀由 cache.Manager 统一处理。
type RedisSubstrate struct {
	manager *cache.Manager
}

// NewRedisSubstrate 基于已连接的 Manager 创建后端。
func NewRedisSubstrate(manager *cache.Manager) *RedisSubstrate {
	return &RedisSubstrate{manager: manager}
}

func (r *RedisSubstrate) GetItem(ctx context.Context, key string) (string, bool, error) {
	v, err := r.manager.Get(ctx, key)
	if cache.IsCacheMiss(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// SetItem 写入；TTL 沿用 Manager 的 DefaultTTL（默认不过期）
func (r *RedisSubstrate) SetItem(ctx context.Context, key, value string) error {
	return r.manager.Set(ctx, key, value, 0)
}

func (r *RedisSubstrate) RemoveItem(ctx context.Context, key string) error {
	return r.manager.Delete(ctx, key)
}

func (r *RedisSubstrate) Ping(ctx context.Context) error { return r.manager.Ping(ctx) }

func (r *RedisSubstrate) Close() error { return r.manager.Close() }
