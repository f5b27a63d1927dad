package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadline-backend/internal/activity"
	"leadline-backend/internal/calls"
	"leadline-backend/internal/events"
	"leadline-backend/internal/reconcile"
	"leadline-backend/internal/scheduler"
	"leadline-backend/internal/telephony"
	"leadline-backend/platform/config"
	"leadline-backend/platform/db"
	"leadline-backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const sweepLockKey = "reconcile:sweep"
const sweepLockTTL = 15 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	activity.New(log).RegisterHandlers(eventBus)

	var provider telephony.Provider
	if cfg.IsTelephonyEnabled() {
		provider = telephony.NewClient(cfg, log)
	} else {
		provider = telephony.NewDisabled()
		log.Warn("telephony credentials not configured; reconciliation will fail until set")
	}

	// The sweep lock keeps concurrent scheduler instances from reconciling
	// the same batch twice. Without Redis the loop runs unlocked.
	var lock reconcile.Locker
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; sweep lock and reconcile nudges disabled")
	} else {
		opt, err := redis.ParseURL(cfg.GetRedisURL())
		if err != nil {
			log.Error("invalid REDIS_URL", "error", err)
			panic("invalid REDIS_URL: " + err.Error())
		}
		redisClient := redis.NewClient(opt)
		defer func() { _ = redisClient.Close() }()
		lock = reconcile.NewSweepLock(redisClient, sweepLockKey, sweepLockTTL)
	}

	reconciler := reconcile.NewReconciler(calls.NewRepository(pool), provider, cfg, lock, eventBus, log)

	loop := reconcile.NewLoop(reconciler, cfg.GetReconcileInterval(), log)
	go loop.Run(ctx)

	if cfg.GetRedisURL() == "" {
		// No task queue to drain; the periodic sweep is the only job.
		<-ctx.Done()
		return
	}

	worker, err := scheduler.NewWorker(cfg, reconciler, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
