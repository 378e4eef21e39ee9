// Package limiter implements a fixed-window rate limiter on top of the
// cache facade's atomic counters.
package limiter

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/clubport/clubport/internal/cache"
)

// Config rate limit configuration
type Config struct {
	// Enabled toggles limiting; disabled means every request passes
	Enabled bool `mapstructure:"enabled"`

	// Limit maximum requests per window (default 30)
	Limit int64 `mapstructure:"limit"`

	// Window counting window (default 1m)
	Window time.Duration `mapstructure:"window"`

	// KeyPrefix cache key prefix (default "limiter:")
	KeyPrefix string `mapstructure:"key_prefix"`
}

// ApplyDefaults fills zero values
func (c *Config) ApplyDefaults() {
	if c.Limit == 0 {
		c.Limit = 30
	}
	if c.Window == 0 {
		c.Window = time.Minute
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "limiter:"
	}
}

// Limiter counts requests per key in fixed windows.
// Inherits the facade's fail-open contract: with the cache down the counter
// reads 0 and every request is allowed. Rate limiting is a shield, not an
// availability dependency.
type Limiter struct {
	cache  *cache.Facade
	cfg    Config
	logger *zap.Logger
}

// New creates the limiter.
func New(facade *cache.Facade, cfg Config, log *zap.Logger) *Limiter {
	cfg.ApplyDefaults()
	return &Limiter{
		cache:  facade,
		cfg:    cfg,
		logger: log,
	}
}

// Allow reports whether the request identified by key fits in the current
// window.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if !l.cfg.Enabled {
		return true
	}

	fullKey := l.cfg.KeyPrefix + key
	n := l.cache.Incr(ctx, fullKey)
	if n == 0 {
		// Counter unavailable: fail open.
		return true
	}
	if n == 1 {
		// First hit opens the window.
		l.cache.Expire(ctx, fullKey, l.cfg.Window)
	}
	if n > l.cfg.Limit {
		l.logger.Debug("request rate limited",
			zap.String("key", key),
			zap.Int64("count", n))
		return false
	}
	return true
}
