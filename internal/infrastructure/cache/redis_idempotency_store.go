package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/rafflehub/backend/internal/domain/shared"
	"github.com/rafflehub/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "raffle:processed:"

// RedisIdempotencyStore implements IdempotencyStore on Redis. Suitable for
// multi-instance deployments where webhook deliveries can land on any node.
type RedisIdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisIdempotencyStore creates a Redis-backed idempotency store
func NewRedisIdempotencyStore(cfg config.RedisConfig) (*RedisIdempotencyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: defaultKeyPrefix,
	}, nil
}

// NewRedisIdempotencyStoreWithClient wraps an existing Redis client
func NewRedisIdempotencyStoreWithClient(client *redis.Client, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// MarkProcessed marks a message as processed with a TTL. SETNX makes the
// check-and-mark a single atomic operation across instances.
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, messageID string, ttl time.Duration) (bool, error) {
	fresh, err := s.client.SetNX(ctx, s.keyPrefix+messageID, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark message as processed: %w", err)
	}
	return fresh, nil
}

// IsProcessed checks if a message has already been processed
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, messageID string) (bool, error) {
	exists, err := s.client.Exists(ctx, s.keyPrefix+messageID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check processed message: %w", err)
	}
	return exists > 0, nil
}

// Close closes the Redis client
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

// Ensure RedisIdempotencyStore implements IdempotencyStore
var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
