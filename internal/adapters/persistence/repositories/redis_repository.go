package repositories

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// redisRepository implements KeyValueRepository on a redis instance
type redisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository creates a repository whose keys live under namespace
func NewRedisRepository(client *redis.Client, namespace string) KeyValueRepository {
	return &redisRepository{client: client, prefix: namespace + ":"}
}

func (r *redisRepository) key(key string) string {
	return r.prefix + key
}

func (r *redisRepository) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *redisRepository) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.key(key), value, 0).Err()
}

func (r *redisRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = r.key(key)
	}
	return r.client.Del(ctx, prefixed...).Err()
}

func (r *redisRepository) Close() error {
	return r.client.Close()
}
