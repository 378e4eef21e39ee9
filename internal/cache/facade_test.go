package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubport/clubport/internal/logger"
)

func newTestFacade(t *testing.T) (*Facade, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewFacade(client, logger.NewNop()), mr
}

func TestFacade_GetSet(t *testing.T) {
	f, mr := newTestFacade(t)
	ctx := context.Background()

	_, ok := f.Get(ctx, "missing")
	assert.False(t, ok)

	assert.True(t, f.Set(ctx, "k", "v", time.Minute))
	val, ok := f.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "v", val)

	// TTL expiry behaves as a passive delete.
	mr.FastForward(2 * time.Minute)
	_, ok = f.Get(ctx, "k")
	assert.False(t, ok)
}

func TestFacade_SetWithoutTTL(t *testing.T) {
	f, mr := newTestFacade(t)
	ctx := context.Background()

	assert.True(t, f.Set(ctx, "pinned", "v", 0))
	mr.FastForward(24 * time.Hour)
	_, ok := f.Get(ctx, "pinned")
	assert.True(t, ok, "ttl 0 means no expiry")
	assert.Equal(t, int64(-1), f.TTL(ctx, "pinned"))
}

func TestFacade_JSON(t *testing.T) {
	f, _ := newTestFacade(t)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Score int64  `json:"score"`
	}

	assert.True(t, f.SetJSON(ctx, "member:1", payload{Name: "ada", Score: 120}, time.Minute))

	var out payload
	require.True(t, f.GetJSON(ctx, "member:1", &out))
	assert.Equal(t, "ada", out.Name)
	assert.Equal(t, int64(120), out.Score)
}

func TestFacade_GetJSON_MalformedIsMiss(t *testing.T) {
	f, mr := newTestFacade(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("dirty", "{not json"))

	var out map[string]any
	assert.False(t, f.GetJSON(ctx, "dirty", &out))
	// Dirty payload is dropped so the next write starts clean.
	assert.False(t, f.Exists(ctx, "dirty"))
}

func TestFacade_Del(t *testing.T) {
	f, _ := newTestFacade(t)
	ctx := context.Background()

	f.Set(ctx, "a", "1", 0)
	f.Set(ctx, "b", "2", 0)

	assert.Equal(t, int64(2), f.Del(ctx, "a", "b"))
	assert.Equal(t, int64(0), f.Del(ctx, "a"))
	assert.Equal(t, int64(0), f.Del(ctx))
}

func TestFacade_DeleteByPattern(t *testing.T) {
	f, _ := newTestFacade(t)
	ctx := context.Background()

	for page := 1; page <= 150; page++ {
		f.Set(ctx, fmt.Sprintf("ranking:all:%d:20", page), "page", time.Minute)
	}
	f.Set(ctx, "ranking:top:10", "top", time.Minute)
	f.Set(ctx, "session:abc", "keepme", time.Minute)

	// More keys than one SCAN batch, so the cursor loop is exercised.
	assert.Equal(t, int64(151), f.DeleteByPattern(ctx, "ranking:*"))
	assert.True(t, f.Exists(ctx, "session:abc"))

	// Idempotent: a second pass over the same pattern finds nothing.
	assert.Equal(t, int64(0), f.DeleteByPattern(ctx, "ranking:*"))
}

func TestFacade_DeleteByPattern_NoMatches(t *testing.T) {
	f, _ := newTestFacade(t)

	assert.Equal(t, int64(0), f.DeleteByPattern(context.Background(), "nosuch:*"))
}

func TestFacade_Counters(t *testing.T) {
	f, _ := newTestFacade(t)
	ctx := context.Background()

	assert.Equal(t, int64(1), f.Incr(ctx, "hits"))
	assert.Equal(t, int64(2), f.Incr(ctx, "hits"))
	assert.Equal(t, int64(1), f.Decr(ctx, "hits"))
}

func TestFacade_ExpireAndTTL(t *testing.T) {
	f, _ := newTestFacade(t)
	ctx := context.Background()

	assert.False(t, f.Expire(ctx, "missing", time.Minute))
	assert.Equal(t, int64(-1), f.TTL(ctx, "missing"))

	f.Set(ctx, "k", "v", 0)
	assert.True(t, f.Expire(ctx, "k", 90*time.Second))
	assert.Equal(t, int64(90), f.TTL(ctx, "k"))
}

// TestFacade_FailOpen verifies every operation degrades to its neutral value
// with the transport down instead of surfacing an error.
func TestFacade_FailOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr:       mr.Addr(),
		MaxRetries: -1, // fail fast, no reconnect backoff in tests
	})
	t.Cleanup(func() { client.Close() })
	f := NewFacade(client, logger.NewNop())
	ctx := context.Background()

	mr.Close()

	_, ok := f.Get(ctx, "k")
	assert.False(t, ok)
	assert.False(t, f.Set(ctx, "k", "v", time.Minute))

	var out map[string]any
	assert.False(t, f.GetJSON(ctx, "k", &out))
	assert.False(t, f.SetJSON(ctx, "k", map[string]any{"a": 1}, time.Minute))

	assert.Equal(t, int64(0), f.Del(ctx, "k"))
	assert.Equal(t, int64(0), f.DeleteByPattern(ctx, "ranking:*"))
	assert.Equal(t, int64(0), f.Incr(ctx, "c"))
	assert.Equal(t, int64(0), f.Decr(ctx, "c"))
	assert.False(t, f.Exists(ctx, "k"))
	assert.False(t, f.Expire(ctx, "k", time.Minute))
	assert.Equal(t, int64(-1), f.TTL(ctx, "k"))
}

func TestNewClient_InvalidConfig(t *testing.T) {
	_, err := NewClient(Config{}, logger.NewNop())
	assert.Error(t, err)

	_, err = NewClient(Config{Addr: "localhost:6379", DB: 42}, logger.NewNop())
	assert.Error(t, err)
}

func TestNewClient_UnreachableIsNotFatal(t *testing.T) {
	client, err := NewClient(Config{Addr: "127.0.0.1:1"}, logger.NewNop())
	require.NoError(t, err)
	client.Close()
}
