// Package reconcile repairs call rows whose recording never arrived via
// callback. It periodically re-reads the provider's call records for recent
// answered outgoing calls, corrects the outcome from the provider's final
// status, and attaches the newest recording when one exists.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"leadline-backend/internal/calls"
	"leadline-backend/internal/events"
	"leadline-backend/internal/telephony"
	"leadline-backend/platform/apperr"
	"leadline-backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// sweepConcurrency bounds how many provider fetches run in parallel per cycle.
const sweepConcurrency = 4

// CallStore is the persistence surface the reconciler needs.
type CallStore interface {
	GetCall(ctx context.Context, id uuid.UUID) (*calls.Call, error)
	UpdateCall(ctx context.Context, call *calls.Call) error
	ListMissingRecordings(ctx context.Context, since time.Time, limit int) ([]calls.Call, error)
	AddRecording(ctx context.Context, rec *calls.Recording) (*calls.Recording, error)
}

// Config is the slice of application config the reconciler needs.
type Config interface {
	GetReconcileLookback() time.Duration
	GetReconcileBatchLimit() int
}

// Locker guards a sweep cycle. Nil disables locking (single instance).
type Locker interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Reconciler re-derives call state from the provider's records.
type Reconciler struct {
	repo     CallStore
	provider telephony.Provider
	cfg      Config
	lock     Locker
	bus      events.Bus
	log      *logger.Logger
}

// NewReconciler creates a new reconciler.
func NewReconciler(repo CallStore, provider telephony.Provider, cfg Config, lock Locker, bus events.Bus, log *logger.Logger) *Reconciler {
	return &Reconciler{repo: repo, provider: provider, cfg: cfg, lock: lock, bus: bus, log: log}
}

// ReconcileCall fetches the provider record for one call and folds it back
// into the row: final status re-derives the outcome, and the most recent
// recording (when one exists) is attached. A still-missing recording leaves
// the row untouched so a later cycle retries.
func (r *Reconciler) ReconcileCall(ctx context.Context, callID uuid.UUID) error {
	call, err := r.repo.GetCall(ctx, callID)
	if err != nil {
		return err
	}
	if call.ProviderSID == nil {
		return apperr.Validation("call has no provider reference")
	}

	info, err := r.provider.FetchCall(ctx, *call.ProviderSID)
	if err != nil {
		return fmt.Errorf("fetch provider call: %w", err)
	}

	changed := false
	if outcome, final := telephony.OutcomeForStatus(info.Status); final {
		if call.Outcome == nil || *call.Outcome != outcome {
			call.Outcome = &outcome
			changed = true
		}
		if call.EndTime == nil {
			end := time.Now()
			if info.EndTime != nil {
				end = *info.EndTime
			}
			call.EndTime = &end
			changed = true
		}
	}
	if info.Duration != nil && call.Duration == nil {
		call.Duration = info.Duration
		changed = true
	}

	recordings, err := r.provider.ListRecordings(ctx, *call.ProviderSID)
	if err != nil {
		return fmt.Errorf("list provider recordings: %w", err)
	}
	if len(recordings) > 0 {
		// Provider orders newest first.
		newest := recordings[0]
		if call.RecordingURL == nil || *call.RecordingURL != newest.URL {
			call.RecordingURL = &newest.URL
			if newest.Duration != nil {
				call.Duration = newest.Duration
			}
			changed = true

			if _, err := r.repo.AddRecording(ctx, &calls.Recording{
				CallID:      call.ID,
				ProviderSID: newest.SID,
				URL:         newest.URL,
				Duration:    newest.Duration,
			}); err != nil {
				return err
			}

			if r.bus != nil {
				r.bus.Publish(ctx, events.RecordingAttached{
					BaseEvent:    events.NewBaseEvent(),
					CallID:       call.ID,
					RecordingURL: newest.URL,
				})
			}
		}
	}

	if changed {
		if err := r.repo.UpdateCall(ctx, call); err != nil {
			return err
		}
	}

	return nil
}

// Sweep runs one reconciliation cycle over the lookback window. Each call is
// reconciled in isolation: failures are logged and never abort the batch.
// When a lock is configured and held elsewhere the cycle is skipped.
func (r *Reconciler) Sweep(ctx context.Context) error {
	if r.lock != nil {
		held, err := r.lock.Acquire(ctx)
		if err != nil {
			return err
		}
		if !held {
			r.log.Debug("sweep lock held elsewhere, skipping cycle")
			return nil
		}
		defer func() {
			if err := r.lock.Release(ctx); err != nil {
				r.log.Warn("failed to release sweep lock", "error", err)
			}
		}()
	}

	since := time.Now().Add(-r.cfg.GetReconcileLookback())
	batch, err := r.repo.ListMissingRecordings(ctx, since, r.cfg.GetReconcileBatchLimit())
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(sweepConcurrency)

	for _, call := range batch {
		callID := call.ID
		group.Go(func() error {
			if err := r.ReconcileCall(groupCtx, callID); err != nil {
				r.log.Warn("call reconciliation failed", "call_id", callID, "error", err)
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	r.log.Info("reconciliation sweep finished", "batch", len(batch))
	return nil
}
