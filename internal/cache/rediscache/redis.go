package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ARF-DEV/caffeine_reply_bot/internal/cache"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var _ cache.Cache = (*RedisCache)(nil)

type RedisCache struct {
	client *redis.Client
}

func CreateCache(opt *redis.Options) *RedisCache {
	return &RedisCache{client: redis.NewClient(opt)}
}

func (rc *RedisCache) GetAndParse(ctx context.Context, key string, dst interface{}) error {
	res, err := rc.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return cache.ErrMiss
	}
	if err != nil {
		return errors.Wrapf(err, "redis get %s", key)
	}

	if len(res) == 0 {
		return errors.Errorf("redis key (%s)'s value len is 0", key)
	}
	if err = json.Unmarshal(res, dst); err != nil {
		return errors.Wrapf(err, "redis key (%s) decode", key)
	}

	return nil
}

func (rc *RedisCache) Set(ctx context.Context, key string, value interface{}) error {
	return rc.SetExp(ctx, key, value, 0)
}

// SetExp stores value as JSON. An exp of 0 keeps the key forever.
func (rc *RedisCache) SetExp(ctx context.Context, key string, value interface{}, exp time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "redis key (%s) encode", key)
	}
	return errors.Wrapf(rc.client.Set(ctx, key, b, exp).Err(), "redis set %s", key)
}

func (rc *RedisCache) SetExpFunc(ctx context.Context, key string, value interface{}, expFunc cache.ExpFunc) error {
	return rc.SetExp(ctx, key, value, expFunc(ctx, value))
}

func (rc *RedisCache) Del(ctx context.Context, key string) error {
	return errors.Wrapf(rc.client.Del(ctx, key).Err(), "redis del %s", key)
}

func (rc *RedisCache) Ping(ctx context.Context) error {
	return errors.Wrap(rc.client.Ping(ctx).Err(), "redis ping")
}

func (rc *RedisCache) Close() error {
	return rc.client.Close()
}
