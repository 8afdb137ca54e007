package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix Redis键前缀
const DefaultKeyPrefix = "agri:"

// RedisProvider 基于Redis的缓存
type RedisProvider struct {
	client redis.Cmdable
	prefix string
}

// NewRedisClient 创建Redis连接并测试
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis连接失败: %w", err)
	}
	return rdb, nil
}

func NewRedisProvider(client redis.Cmdable, prefix string) *RedisProvider {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisProvider{client: client, prefix: prefix}
}

func (p *RedisProvider) Get(ctx context.Context, key string, dest any) error {
	data, err := p.client.Get(ctx, p.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (p *RedisProvider) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return p.client.Set(ctx, p.prefix+key, data, expiration).Err()
}

// Delete 删除缓存
func (p *RedisProvider) Delete(ctx context.Context, key string) error {
	return p.client.Del(ctx, p.prefix+key).Err()
}

// Flush 删除前缀下的全部键
func (p *RedisProvider) Flush(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := p.client.Scan(ctx, cursor, p.prefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := p.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
