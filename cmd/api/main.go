package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadline-backend/internal/activity"
	"leadline-backend/internal/assignment"
	"leadline-backend/internal/calls"
	"leadline-backend/internal/directory"
	"leadline-backend/internal/events"
	apphttp "leadline-backend/internal/http"
	"leadline-backend/internal/http/router"
	"leadline-backend/internal/intake"
	"leadline-backend/internal/reconcile"
	"leadline-backend/internal/scheduler"
	"leadline-backend/internal/telephony"
	"leadline-backend/migrations"
	"leadline-backend/platform/config"
	"leadline-backend/platform/db"
	"leadline-backend/platform/logger"
	"leadline-backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.Migrate(cfg.GetDatabaseURL(), migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	// Event bus for decoupled communication between modules. The activity
	// module tails it so every pipeline event lands in the operational log.
	eventBus := events.NewInMemoryBus(log)
	activity.New(log).RegisterHandlers(eventBus)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Outbound telephony provider. Without credentials every call attempt
	// fails fast with a misconfiguration error instead of reaching out.
	var provider telephony.Provider
	if cfg.IsTelephonyEnabled() {
		provider = telephony.NewClient(cfg, log)
		log.Info("telephony provider initialized", "baseURL", cfg.GetTelephonyBaseURL())
	} else {
		provider = telephony.NewDisabled()
		log.Warn("telephony credentials not configured; outbound calling disabled")
	}

	nudger, closeNudger := initReconcileScheduler(cfg, log)
	if closeNudger != nil {
		defer closeNudger()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	directoryRepo := directory.NewRepository(pool)
	directoryModule := directory.NewModule(directoryRepo)
	engine := assignment.NewEngine(directoryRepo, assignment.NewRepository(pool), log)

	intakeModule := intake.NewModule(pool, engine, cfg, eventBus, val, log)
	callsModule := calls.NewModule(pool, provider, cfg, nudger, eventBus, val, log)

	// Manual reconciliation shares the sweep logic; the API instance runs
	// without a lock because it never sweeps on its own.
	reconciler := reconcile.NewReconciler(callsModule.Repository(), provider, cfg, nil, eventBus, log)
	reconcileModule := reconcile.NewModule(reconciler)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			directoryModule,
			intakeModule,
			callsModule,
			reconcileModule,
		},
	}

	engineHTTP := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engineHTTP.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initReconcileScheduler(cfg config.SchedulerConfig, log *logger.Logger) (calls.ReconcileScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; recording reconcile nudges disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reconcile scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
