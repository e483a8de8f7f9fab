package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/zenarog/zenarog-engine/pkg/config"
	"github.com/zenarog/zenarog-engine/pkg/retry"
)

// NewRedisClient creates a Redis client and verifies the connection.
// Returns nil if Redis is not configured (host is empty).
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	if !cfg.IsAvailable() {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.ResolveHostForDocker(cfg.Host), cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := retry.Do(ctx, retry.StartupConfig(), func() error {
		return client.Ping(ctx).Err()
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}
