package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	client.FlushDB(ctx)
	t.Cleanup(func() {
		client.FlushDB(ctx)
		client.Close()
	})

	return client
}

func TestRedisLimiter_PerMinute(t *testing.T) {
	limiter := NewRedisLimiter(setupTestRedis(t))
	ctx := context.Background()
	limits := Limits{PerMinute: 5}

	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, "report:10.0.0.1", limits)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, err := limiter.Allow(ctx, "report:10.0.0.1", limits)
	require.NoError(t, err)
	assert.False(t, allowed, "6th request should be denied")
}

func TestRedisLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewRedisLimiter(setupTestRedis(t))
	ctx := context.Background()
	limits := Limits{PerMinute: 1}

	allowed, err := limiter.Allow(ctx, "report:a", limits)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "report:b", limits)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "report:a", limits)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestRedisLimiter_WindowSlides(t *testing.T) {
	limiter := NewRedisLimiter(setupTestRedis(t))
	ctx := context.Background()
	limits := Limits{PerMinute: 1}

	base := time.Now()
	limiter.now = func() time.Time { return base }
	allowed, err := limiter.Allow(ctx, "report:slide", limits)
	require.NoError(t, err)
	assert.True(t, allowed)

	limiter.now = func() time.Time { return base.Add(61 * time.Second) }
	allowed, err = limiter.Allow(ctx, "report:slide", limits)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisLimiter_NoLimits(t *testing.T) {
	limiter := NewRedisLimiter(setupTestRedis(t))

	for i := 0; i < 20; i++ {
		allowed, err := limiter.Allow(context.Background(), "report:free", Limits{})
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	assert.False(t, Limits{}.Enabled())
}
