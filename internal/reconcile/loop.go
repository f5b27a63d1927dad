package reconcile

import (
	"context"
	"time"

	"leadline-backend/platform/logger"
)

const defaultSweepInterval = 10 * time.Minute

// Loop runs reconciliation sweeps at a fixed interval until the context ends.
type Loop struct {
	reconciler *Reconciler
	interval   time.Duration
	log        *logger.Logger
}

// NewLoop creates a sweep loop.
func NewLoop(reconciler *Reconciler, interval time.Duration, log *logger.Logger) *Loop {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Loop{reconciler: reconciler, interval: interval, log: log}
}

// Run sweeps once immediately, then on every tick.
func (l *Loop) Run(ctx context.Context) {
	if l == nil || l.reconciler == nil {
		return
	}

	l.sweep(ctx)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.sweep(ctx)
		}
	}
}

func (l *Loop) sweep(ctx context.Context) {
	if err := l.reconciler.Sweep(ctx); err != nil {
		l.log.Warn("reconciliation sweep failed", "error", err)
	}
}
