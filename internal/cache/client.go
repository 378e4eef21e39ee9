package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewClient creates the process-wide Redis client.
// Built once at startup and shared; callers never hold the raw transport,
// only the Facade.
//
// An unreachable Redis at startup is logged, not fatal: the Facade is
// fail-open and every caller degrades to cache-miss behavior.
func NewClient(cfg Config, log *zap.Logger) (*redis.Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid redis config: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Warn("redis unreachable at startup, continuing fail-open",
			zap.String("addr", cfg.Addr),
			zap.Error(err))
	} else {
		log.Debug("redis connection successful", zap.String("addr", cfg.Addr))
	}

	return client, nil
}
