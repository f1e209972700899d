package cache

import (
	"context"
	"errors"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"time"
)

const keyPrefix = "balance:"

// Redis is Cache shared between processes
type Redis struct {
	client *redis.Client
}

// NewRedis creates new Redis cache
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Get returns value and true if key is present
func (r *Redis) Get(ctx context.Context, key string) (decimal.Decimal, bool, error) {
	val, err := r.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}

	d, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, false, err
	}
	return d, true, nil
}

// Set stores value for ttl
func (r *Redis) Set(ctx context.Context, key string, value decimal.Decimal, ttl time.Duration) error {
	return r.client.Set(ctx, keyPrefix+key, value.String(), ttl).Err()
}

// Expire drops key
func (r *Redis) Expire(ctx context.Context, key string) error {
	return r.client.Del(ctx, keyPrefix+key).Err()
}
