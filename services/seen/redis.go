package seen

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"sjsage522/listingwatcher/logger"
	apperrors "sjsage522/listingwatcher/pkg/errors"
)

// RedisStore persists the seen set in a Redis set. Redis durability (AOF or
// RDB) is what makes the mark survive a restart.
type RedisStore struct {
	memberSet
	client *redis.Client
	key    string
}

// NewRedisStore connects to Redis and loads the members of key
func NewRedisStore(ctx context.Context, addr string, db int, key string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	urls, err := client.SMembers(ctx, key).Result()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to load seen set %s: %w", key, err)
	}

	logger.ForStore().Info().
		Str("key", key).
		Int("count", len(urls)).
		Msg("Loaded seen listings from Redis")

	s := &RedisStore{client: client, key: key}
	s.load(urls)
	return s, nil
}

// Add marks url seen with SADD
func (s *RedisStore) Add(ctx context.Context, url string) error {
	return s.add(url, func() error {
		if err := s.client.SAdd(ctx, s.key, url).Err(); err != nil {
			return apperrors.NewPersistence("redis", "failed to SADD "+s.key, err)
		}
		return nil
	})
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
