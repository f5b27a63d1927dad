package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	server := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: server.Addr()})
}

func TestSweepLockSingleHolder(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	first := NewSweepLock(client, "reconcile:sweep", time.Minute)
	second := NewSweepLock(client, "reconcile:sweep", time.Minute)

	held, err := first.Acquire(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !held {
		t.Fatal("expected first lock to be acquired")
	}

	held, err = second.Acquire(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if held {
		t.Fatal("expected second acquire to fail while lock is held")
	}

	if err := first.Release(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	held, err = second.Acquire(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !held {
		t.Fatal("expected lock to be available after release")
	}
}

func TestSweepLockReleaseOnlyByOwner(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	owner := NewSweepLock(client, "reconcile:sweep", time.Minute)
	intruder := NewSweepLock(client, "reconcile:sweep", time.Minute)

	if held, _ := owner.Acquire(ctx); !held {
		t.Fatal("expected owner to acquire lock")
	}

	// A non-owner release is a no-op.
	if err := intruder.Release(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if held, _ := intruder.Acquire(ctx); held {
		t.Fatal("expected lock still held by owner after foreign release")
	}
}
