package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SweepLock is a Redis SETNX lock that keeps multiple scheduler instances
// from sweeping at the same time. The value is a per-instance owner token so
// only the holder can release.
type SweepLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	owner  string
}

// NewSweepLock creates a lock on the given key.
func NewSweepLock(client *redis.Client, key string, ttl time.Duration) *SweepLock {
	return &SweepLock{
		client: client,
		key:    key,
		ttl:    ttl,
		owner:  uuid.NewString(),
	}
}

// Acquire tries to take the lock. It returns false when another instance
// holds it.
func (l *SweepLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire sweep lock: %w", err)
	}
	return ok, nil
}

// Release frees the lock if this instance still owns it. A lock that
// expired and was taken by someone else is left alone.
func (l *SweepLock) Release(ctx context.Context) error {
	value, err := l.client.Get(ctx, l.key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil
		}
		return fmt.Errorf("read sweep lock: %w", err)
	}
	if value != l.owner {
		return nil
	}
	if err := l.client.Del(ctx, l.key).Err(); err != nil {
		return fmt.Errorf("release sweep lock: %w", err)
	}
	return nil
}
