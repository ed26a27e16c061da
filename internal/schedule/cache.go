package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores the aggregated opening hours.
type Cache interface {
	Get(ctx context.Context) ([]DaySchedule, bool, error)
	Set(ctx context.Context, days []DaySchedule, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// RedisCache keeps the aggregated week as a JSON string under one key.
type RedisCache struct {
	client *redis.Client
	key    string
}

// NewRedisCache builds a cache on the given client.
func NewRedisCache(client *redis.Client, key string) *RedisCache {
	if key == "" {
		key = "tayoga:opening-hours"
	}
	return &RedisCache{client: client, key: key}
}

func (c *RedisCache) Get(ctx context.Context) ([]DaySchedule, bool, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var days []DaySchedule
	if err := json.Unmarshal(raw, &days); err != nil {
		return nil, false, err
	}
	return days, true, nil
}

func (c *RedisCache) Set(ctx context.Context, days []DaySchedule, ttl time.Duration) error {
	raw, err := json.Marshal(days)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key, raw, ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context) ([]DaySchedule, bool, error) { return nil, false, nil }
func (NopCache) Set(context.Context, []DaySchedule, time.Duration) error { return nil }
func (NopCache) Invalidate(context.Context) error { return nil }
