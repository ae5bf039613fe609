package cache

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/keyhub/internal/shared/logger"
)

const (
	keyLockPrefix       = "keyhub:key_lock:"
	defaultLockTTL      = 30 * time.Second
	defaultLockWait     = 10 * time.Second
	lockPollInterval    = 50 * time.Millisecond
	lockReleaseTimeout  = 2 * time.Second
	localLockStripeSize = 64
)

// ErrLockTimeout is returned when the per-key critical section could not be
// entered before the wait budget ran out.
var ErrLockTimeout = errors.New("timed out waiting for key lock")

// releaseKeyLockScript deletes the lock only when it still holds our token,
// so an expired and re-acquired lock is never released by the old holder.
var releaseKeyLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisKeyLocker serializes work on one key across all service instances.
type RedisKeyLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	logger logger.Interface
}

func NewRedisKeyLocker(client *redis.Client, ttl, wait time.Duration, log logger.Interface) *RedisKeyLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if wait <= 0 {
		wait = defaultLockWait
	}
	return &RedisKeyLocker{client: client, ttl: ttl, wait: wait, logger: log}
}

func (l *RedisKeyLocker) Lock(ctx context.Context, keyID uint) (func(), error) {
	lockKey := fmt.Sprintf("%s%d", keyLockPrefix, keyID)
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	for {
		acquired, err := l.client.SetNX(waitCtx, lockKey, token, l.ttl).Result()
		if err != nil && waitCtx.Err() == nil {
			return nil, fmt.Errorf("failed to acquire key lock: %w", err)
		}
		if acquired {
			return func() { l.release(lockKey, token) }, nil
		}

		select {
		case <-waitCtx.Done():
			return nil, fmt.Errorf("%w: key %d", ErrLockTimeout, keyID)
		case <-time.After(lockPollInterval):
		}
	}
}

func (l *RedisKeyLocker) release(lockKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), lockReleaseTimeout)
	defer cancel()

	if err := releaseKeyLockScript.Run(ctx, l.client, []string{lockKey}, token).Err(); err != nil {
		l.logger.Warnw("failed to release key lock", "lock", lockKey, "error", err)
	}
}

// LocalKeyLocker is the single-instance fallback: a fixed set of striped
// semaphores, so two keys may share a stripe but one key always maps to one.
type LocalKeyLocker struct {
	stripes []chan struct{}
	wait    time.Duration
}

func NewLocalKeyLocker(wait time.Duration) *LocalKeyLocker {
	if wait <= 0 {
		wait = defaultLockWait
	}
	stripes := make([]chan struct{}, localLockStripeSize)
	for i := range stripes {
		stripes[i] = make(chan struct{}, 1)
	}
	return &LocalKeyLocker{stripes: stripes, wait: wait}
}

func (l *LocalKeyLocker) Lock(ctx context.Context, keyID uint) (func(), error) {
	stripe := l.stripes[stripeIndex(keyID, len(l.stripes))]

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	select {
	case stripe <- struct{}{}:
		return func() { <-stripe }, nil
	case <-waitCtx.Done():
		return nil, fmt.Errorf("%w: key %d", ErrLockTimeout, keyID)
	}
}

func stripeIndex(keyID uint, n int) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%d", keyID)
	return int(h.Sum32() % uint32(n))
}
