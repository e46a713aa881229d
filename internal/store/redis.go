package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"test12/models"
	"test12/utils"
)

const DefaultRedisKey = "test12:state"

// RedisStore keeps the snapshot under a single key. A single SET replaces the
// whole document, so readers never observe a partial write.
type RedisStore struct {
	Redis   *redis.Client
	key     string
	breaker *utils.CircuitBreaker
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{
		Redis:   client,
		key:     key,
		breaker: utils.NewCircuitBreaker("redis-store", utils.BreakerSettings{}),
	}
}

func (r *RedisStore) Load(ctx context.Context) (*models.Snapshot, error) {
	var data []byte
	err := r.breaker.Execute(ctx, func() error {
		raw, err := r.Redis.Get(ctx, r.key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		data = raw
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("redis load %s: %w", r.key, err)
	}
	return decode(data, "redis:"+r.key), nil
}

func (r *RedisStore) Save(ctx context.Context, s *models.Snapshot) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	err = r.breaker.Execute(ctx, func() error {
		return r.Redis.Set(ctx, r.key, string(data), 0).Err()
	})
	if err != nil {
		return fmt.Errorf("redis save %s: %w", r.key, err)
	}
	return nil
}
