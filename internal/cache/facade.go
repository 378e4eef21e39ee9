// Package cache provides a fail-open facade over the remote Redis cache.
//
// Every operation maps transport failures to its documented neutral value
// (false, 0, miss) and never returns a cache-layer error to the caller.
// The portal must stay correct, if slower, with the cache completely down.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// scanBatch is the SCAN COUNT hint for pattern deletion.
const scanBatch = 100

// Facade wraps the Redis client with fail-open semantics.
type Facade struct {
	client redis.UniversalClient
	logger *zap.Logger
}

// NewFacade creates the cache facade.
func NewFacade(client redis.UniversalClient, log *zap.Logger) *Facade {
	return &Facade{
		client: client,
		logger: log,
	}
}

// Get returns the value and true on a hit.
// Missing key or unreachable store both report a miss.
func (f *Facade) Get(ctx context.Context, key string) (string, bool) {
	val, err := f.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			f.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return val, true
}

// Set stores a value. ttl <= 0 means no expiry (used only for entries
// invalidated purely by explicit deletion).
// Returns false on any failure, never an error.
func (f *Facade) Set(ctx context.Context, key, value string, ttl time.Duration) bool {
	if ttl < 0 {
		ttl = 0
	}
	if err := f.client.Set(ctx, key, value, ttl).Err(); err != nil {
		f.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// GetJSON deserializes a stored JSON payload into dest.
// A malformed payload is treated as a miss and the dirty key is deleted
// best-effort so the next write starts clean.
func (f *Facade) GetJSON(ctx context.Context, key string, dest any) bool {
	raw, ok := f.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		f.logger.Warn("cache payload malformed, dropping key",
			zap.String("key", key), zap.Error(err))
		f.client.Del(ctx, key)
		return false
	}
	return true
}

// SetJSON serializes v and stores it with the given TTL.
func (f *Facade) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) bool {
	data, err := json.Marshal(v)
	if err != nil {
		f.logger.Warn("cache serialize failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return f.Set(ctx, key, string(data), ttl)
}

// Del deletes keys and returns the number removed (0 when absent or the
// store is unavailable).
func (f *Facade) Del(ctx context.Context, keys ...string) int64 {
	if len(keys) == 0 {
		return 0
	}
	n, err := f.client.Del(ctx, keys...).Result()
	if err != nil {
		f.logger.Warn("cache del failed", zap.Strings("keys", keys), zap.Error(err))
		return 0
	}
	return n
}

// DeleteByPattern removes every key matching the glob pattern using a
// cursor-based SCAN followed by batched DEL, and returns the number deleted.
//
// Cached ranking and listing pages are keyed by filter and page parameters
// unknown at invalidation time, so invalidation has to match by pattern.
// A full KEYS listing blocks the store and must never be used here.
// Zero matches is a normal outcome, not an error.
func (f *Facade) DeleteByPattern(ctx context.Context, pattern string) int64 {
	var (
		cursor  uint64
		deleted int64
	)
	for {
		keys, next, err := f.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			f.logger.Warn("cache scan failed",
				zap.String("pattern", pattern), zap.Error(err))
			return deleted
		}
		if len(keys) > 0 {
			n, err := f.client.Del(ctx, keys...).Result()
			if err != nil {
				f.logger.Warn("cache bulk delete failed",
					zap.String("pattern", pattern), zap.Error(err))
				return deleted
			}
			deleted += n
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return deleted
}

// Incr atomically increments a counter, returning 0 on failure.
func (f *Facade) Incr(ctx context.Context, key string) int64 {
	n, err := f.client.Incr(ctx, key).Result()
	if err != nil {
		f.logger.Warn("cache incr failed", zap.String("key", key), zap.Error(err))
		return 0
	}
	return n
}

// Decr atomically decrements a counter, returning 0 on failure.
func (f *Facade) Decr(ctx context.Context, key string) int64 {
	n, err := f.client.Decr(ctx, key).Result()
	if err != nil {
		f.logger.Warn("cache decr failed", zap.String("key", key), zap.Error(err))
		return 0
	}
	return n
}

// Exists reports whether the key is present.
func (f *Facade) Exists(ctx context.Context, key string) bool {
	n, err := f.client.Exists(ctx, key).Result()
	if err != nil {
		f.logger.Warn("cache exists failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return n > 0
}

// Expire sets a TTL on an existing key.
func (f *Facade) Expire(ctx context.Context, key string, ttl time.Duration) bool {
	ok, err := f.client.Expire(ctx, key, ttl).Result()
	if err != nil {
		f.logger.Warn("cache expire failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return ok
}

// TTL returns the remaining lifetime in whole seconds, or -1 when the key
// is absent, has no expiry, or the store is unavailable.
func (f *Facade) TTL(ctx context.Context, key string) int64 {
	d, err := f.client.TTL(ctx, key).Result()
	if err != nil {
		f.logger.Warn("cache ttl failed", zap.String("key", key), zap.Error(err))
		return -1
	}
	if d < 0 {
		return -1
	}
	return int64(d.Seconds())
}
