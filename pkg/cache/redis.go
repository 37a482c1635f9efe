package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/school-academic-api/pkg/config"
)

// pingTimeout bounds the startup check so an unreachable Redis cannot stall boot.
const pingTimeout = 3 * time.Second

// NewRedis connects the report card and progression cache.
//
// It returns a nil client and no error when REDIS_ENABLED is false; callers treat a nil
// client as "cache off" and compute every report card from Postgres. When Redis is enabled
// but does not answer a PING, the client is closed and the error is returned so the caller
// can decide whether to run without the cache.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: pingTimeout,
		MaxRetries:  1,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return client, nil
}
