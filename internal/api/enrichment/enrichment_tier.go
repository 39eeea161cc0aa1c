package enrichment

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// SecondTier is a shared cache consulted after the in-process one misses.
type SecondTier interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// RedisTier stores lookups in Redis so several instances share them.
type RedisTier struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisTier(client redis.UniversalClient, ttl time.Duration) *RedisTier {
	return &RedisTier{client: client, prefix: "enrichment:", ttl: ttl}
}

func (r *RedisTier) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisTier) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.prefix+key, value, r.ttl).Err()
}
