package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const reportKeyPrefix = "keyhub:violation_report:"

// RedisReportDeduplicator drops repeated violation reports for a key inside the cooldown.
type RedisReportDeduplicator struct {
	client *redis.Client
}

func NewRedisReportDeduplicator(client *redis.Client) *RedisReportDeduplicator {
	return &RedisReportDeduplicator{client: client}
}

// TryAcquire returns true when no report for keyID was accepted within ttl.
func (d *RedisReportDeduplicator) TryAcquire(ctx context.Context, keyID uint, ttl time.Duration) (bool, error) {
	acquired, err := d.client.SetNX(ctx, fmt.Sprintf("%s%d", reportKeyPrefix, keyID), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire report cooldown: %w", err)
	}
	return acquired, nil
}

// MemoryReportDeduplicator keeps cooldowns in process memory.
type MemoryReportDeduplicator struct {
	mu      sync.Mutex
	until   map[uint]time.Time
	nowFunc func() time.Time
}

func NewMemoryReportDeduplicator() *MemoryReportDeduplicator {
	return &MemoryReportDeduplicator{
		until:   make(map[uint]time.Time),
		nowFunc: time.Now,
	}
}

func (d *MemoryReportDeduplicator) TryAcquire(_ context.Context, keyID uint, ttl time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.nowFunc()
	if until, ok := d.until[keyID]; ok && now.Before(until) {
		return false, nil
	}
	d.until[keyID] = now.Add(ttl)

	// drop expired entries opportunistically
	if len(d.until) > 1024 {
		for id, until := range d.until {
			if !now.Before(until) {
				delete(d.until, id)
			}
		}
	}
	return true, nil
}
