package events

import (
	"context"
	"time"

	"franchise-catalog/internal/catalog/config"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates the client backing the change trail
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	idle := cfg.ConnMaxIdleTime
	if idle == 0 {
		idle = 30 * time.Minute
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,

		ConnMaxIdleTime: idle,
	})
}

// PingRedis checks the connection within timeout
func PingRedis(ctx context.Context, client *redis.Client, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return client.Ping(pingCtx).Err()
}
