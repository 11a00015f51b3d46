// Package cache provides the category name -> id cache consulted by identity
// resolution. The default is a run-local in-memory map; a Redis-backed cache
// is available for operators who run repeated migrations against the same
// long-lived target database.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// CategoryCache maps category names to their target-store ids.
type CategoryCache interface {
	Get(ctx context.Context, name string) (int64, bool, error)
	Set(ctx context.Context, name string, id int64) error
	Close() error
}

type memoryCategoryCache struct {
	ids map[string]int64
}

// NewMemoryCategoryCache builds a fresh in-process cache. Each migration run
// gets its own instance, so nothing leaks across runs in the same process.
func NewMemoryCategoryCache() CategoryCache {
	return &memoryCategoryCache{ids: make(map[string]int64)}
}

func (c *memoryCategoryCache) Get(_ context.Context, name string) (int64, bool, error) {
	id, ok := c.ids[name]
	return id, ok, nil
}

func (c *memoryCategoryCache) Set(_ context.Context, name string, id int64) error {
	c.ids[name] = id
	return nil
}

func (c *memoryCategoryCache) Close() error {
	return nil
}

type redisCategoryCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCategoryCache builds a Redis-backed cache with the given
// addr/password/db. Category ids are stable for the lifetime of a target
// database, so entries may outlive a single run; the TTL bounds staleness if
// the target is ever rebuilt.
func NewRedisCategoryCache(addr, password string, db int, ttl time.Duration, prefix string) (CategoryCache, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	if ttl <= 0 {
		ttl = 240 * time.Hour // 10 days
	}
	if prefix == "" {
		prefix = "category"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &redisCategoryCache{client: client, ttl: ttl, prefix: prefix}, nil
}

func (c *redisCategoryCache) key(name string) string {
	return fmt.Sprintf("%s:%s", c.prefix, name)
}

func (c *redisCategoryCache) Get(ctx context.Context, name string) (int64, bool, error) {
	if c == nil || c.client == nil {
		return 0, false, nil
	}
	val, err := c.client.Get(ctx, c.key(name)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("decode cached category id %q: %w", val, err)
	}
	return id, true, nil
}

func (c *redisCategoryCache) Set(ctx context.Context, name string, id int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, c.key(name), strconv.FormatInt(id, 10), c.ttl).Err()
}

func (c *redisCategoryCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
