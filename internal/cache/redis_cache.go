package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// versionTTL outlives any value TTL so a fill never sees a version reset.
const versionTTL = 24 * time.Hour

var errStaleFill = errors.New("cache: version moved")

// RedisCache stores JSON values under a shared key prefix.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisCache(rdb *redis.Client, prefix string) *RedisCache {
	return &RedisCache{rdb: rdb, prefix: prefix}
}

func (c *RedisCache) key(k string) string { return c.prefix + k }

func (c *RedisCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	b, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		// corrupt entry counts as a miss
		_ = c.rdb.Del(ctx, c.key(key)).Err()
		return false, nil
	}
	return true, nil
}

func (c *RedisCache) Version(ctx context.Context, key string) (int64, error) {
	return readVersion(ctx, c.rdb, c.key(versionKey(key)))
}

// SetJSONAt watches the version key and writes inside MULTI, so an
// Invalidate landing between the check and the write aborts the fill.
func (c *RedisCache) SetJSONAt(ctx context.Context, key string, version int64, val any, ttl time.Duration) (bool, error) {
	b, err := json.Marshal(val)
	if err != nil {
		return false, err
	}
	vk := c.key(versionKey(key))

	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := readVersion(ctx, tx, vk)
		if err != nil {
			return err
		}
		if cur != version {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, c.key(key), b, ttl)
			return nil
		})
		return err
	}, vk)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, err
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, k := range keys {
			vk := c.key(versionKey(k))
			p.Incr(ctx, vk)
			p.Expire(ctx, vk, versionTTL)
			p.Del(ctx, c.key(k))
		}
		return nil
	})
	return err
}

func readVersion(ctx context.Context, r redis.Cmdable, vk string) (int64, error) {
	v, err := r.Get(ctx, vk).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}
