package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "frenesis:"

// RedisHistoryBucket stores the history blob under a single Redis key
type RedisHistoryBucket struct {
	client *redis.Client
	key    string
}

// NewRedisHistoryBucket connects to redisURL and verifies the connection
func NewRedisHistoryBucket(redisURL, name string) (*RedisHistoryBucket, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisHistoryBucket{client: client, key: redisKeyPrefix + name}, nil
}

// Load returns the stored blob, or nil if the key does not exist
func (b *RedisHistoryBucket) Load(ctx context.Context) ([]byte, error) {
	data, err := b.client.Get(ctx, b.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return data, nil
}

// Save replaces the stored blob
func (b *RedisHistoryBucket) Save(ctx context.Context, data []byte) error {
	if err := b.client.Set(ctx, b.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

// Ping checks the Redis connection
func (b *RedisHistoryBucket) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (b *RedisHistoryBucket) Close() error {
	return b.client.Close()
}
