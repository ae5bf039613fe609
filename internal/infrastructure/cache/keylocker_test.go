package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/keyhub/internal/shared/logger"
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

func TestLocalKeyLocker_MutualExclusion(t *testing.T) {
	locker := NewLocalKeyLocker(time.Second)
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), 42)
			if !assert.NoError(t, err) {
				return
			}
			n := inside.Add(1)
			if n > maxInside.Load() {
				maxInside.Store(n)
			}
			time.Sleep(5 * time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside.Load())
}

func TestLocalKeyLocker_Timeout(t *testing.T) {
	locker := NewLocalKeyLocker(20 * time.Millisecond)
	unlock, err := locker.Lock(context.Background(), 1)
	require.NoError(t, err)
	defer unlock()

	_, err = locker.Lock(context.Background(), 1)
	assert.ErrorIs(t, err, ErrLockTimeout)
}

func TestRedisKeyLocker(t *testing.T) {
	client := setupTestRedis(t)
	locker := NewRedisKeyLocker(client, time.Second, 100*time.Millisecond, logger.NewNopLogger())
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, 7)
	require.NoError(t, err)

	_, err = locker.Lock(ctx, 7)
	assert.ErrorIs(t, err, ErrLockTimeout)

	unlock()
	unlock2, err := locker.Lock(ctx, 7)
	require.NoError(t, err)
	unlock2()
}

func TestMemoryReportDeduplicator(t *testing.T) {
	d := NewMemoryReportDeduplicator()
	now := time.Now()
	d.nowFunc = func() time.Time { return now }
	ctx := context.Background()

	ok, err := d.TryAcquire(ctx, 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = d.TryAcquire(ctx, 1, time.Minute)
	assert.False(t, ok)
	ok, _ = d.TryAcquire(ctx, 2, time.Minute)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, _ = d.TryAcquire(ctx, 1, time.Minute)
	assert.True(t, ok)
}

func TestRedisReportDeduplicator(t *testing.T) {
	client := setupTestRedis(t)
	d := NewRedisReportDeduplicator(client)
	ctx := context.Background()

	ok, err := d.TryAcquire(ctx, 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = d.TryAcquire(ctx, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}
