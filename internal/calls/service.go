package calls

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadline-backend/internal/events"
	"leadline-backend/internal/telephony"
	"leadline-backend/platform/apperr"
	"leadline-backend/platform/logger"
	"leadline-backend/platform/phone"

	"github.com/google/uuid"
)

// reconcileNudgeDelay is how long after an unrecorded completion we wait
// before asking the scheduler to re-check the provider for a recording.
const reconcileNudgeDelay = 5 * time.Minute

// Store is the persistence surface the service needs.
type Store interface {
	CreateCall(ctx context.Context, call *Call) (*Call, error)
	GetCall(ctx context.Context, id uuid.UUID) (*Call, error)
	UpdateCall(ctx context.Context, call *Call) error
	UpdateSalesStatus(ctx context.Context, id uuid.UUID, status string) (*Call, error)
	ListCalls(ctx context.Context, limit, offset int) ([]Call, error)
	AddRecording(ctx context.Context, rec *Recording) (*Recording, error)
	ListRecordings(ctx context.Context, callID uuid.UUID) ([]Recording, error)
}

// Config is the slice of application config the calls service needs.
type Config interface {
	GetTelephonyOriginNumber() string
	GetDefaultCountryCode() string
	GetCallbackBaseURL() string
}

// ReconcileScheduler defers a single-call recording reconciliation.
// Nil is allowed; without a scheduler the periodic sweep still catches up.
type ReconcileScheduler interface {
	ScheduleCallReconcile(ctx context.Context, callID uuid.UUID, delay time.Duration) error
}

// Service implements the call lifecycle.
type Service struct {
	repo     Store
	provider telephony.Provider
	cfg      Config
	nudger   ReconcileScheduler
	bus      events.Bus
	log      *logger.Logger
}

// NewService creates a new calls service.
func NewService(repo Store, provider telephony.Provider, cfg Config, nudger ReconcileScheduler, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, provider: provider, cfg: cfg, nudger: nudger, bus: bus, log: log}
}

// InitiateCallInput describes an outbound call to start.
type InitiateCallInput struct {
	LeadID  *uuid.UUID
	AgentID uuid.UUID
	Phone   string
	Note    string
}

// InitiateCall creates the call row and then asks the provider to dial.
// The row is written before placement so a provider failure still leaves an
// auditable record; on failure the call closes as no_answer and the caller
// gets a typed error telling misconfiguration apart from a blocked
// destination.
func (s *Service) InitiateCall(ctx context.Context, input InitiateCallInput) (*Call, error) {
	if strings.TrimSpace(input.Phone) == "" {
		return nil, apperr.Validation("phone is required")
	}

	dialable := phone.Dialable(input.Phone, s.cfg.GetDefaultCountryCode())

	call, err := s.repo.CreateCall(ctx, &Call{
		LeadID:      input.LeadID,
		AgentID:     input.AgentID,
		Phone:       dialable,
		Direction:   DirectionOutgoing,
		SalesStatus: SalesPending,
		Note:        input.Note,
		StartTime:   time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("initiate call: %w", err)
	}

	info, err := s.provider.PlaceCall(ctx, telephony.CallRequest{
		To:          dialable,
		From:        s.cfg.GetTelephonyOriginNumber(),
		CallbackURL: s.callbackURL(call.ID),
		Record:      true,
	})
	if err != nil {
		s.closeFailedPlacement(ctx, call, err)
		s.log.TelephonyEvent("place_call", call.ID.String(), false, err.Error())

		switch {
		case errors.Is(err, telephony.ErrRestrictedDestination):
			return nil, apperr.Wrap(apperr.KindBadRequest, "destination not permitted by provider", err)
		case errors.Is(err, telephony.ErrMisconfigured):
			return nil, apperr.Wrap(apperr.KindInternal, "telephony provider misconfigured", err)
		default:
			return nil, apperr.Wrap(apperr.KindInternal, "call placement failed", err)
		}
	}

	call.ProviderSID = &info.SID
	if err := s.repo.UpdateCall(ctx, call); err != nil {
		return nil, fmt.Errorf("store provider sid: %w", err)
	}
	s.log.TelephonyEvent("place_call", call.ID.String(), true, "")

	if s.bus != nil {
		s.bus.Publish(ctx, events.CallInitiated{
			BaseEvent: events.NewBaseEvent(),
			CallID:    call.ID,
			LeadID:    call.LeadID,
			AgentID:   call.AgentID,
			Phone:     call.Phone,
		})
	}

	return call, nil
}

// closeFailedPlacement marks a call that never reached the network.
func (s *Service) closeFailedPlacement(ctx context.Context, call *Call, cause error) {
	outcome := OutcomeNoAnswer
	now := time.Now()
	call.Outcome = &outcome
	call.EndTime = &now
	call.Note = appendNote(call.Note, "placement failed: "+cause.Error())

	if err := s.repo.UpdateCall(ctx, call); err != nil {
		s.log.DatabaseError("close failed placement", err)
	}
}

// CallbackInput carries the fields of one provider status callback.
type CallbackInput struct {
	Status            string
	Duration          *int
	RecordingURL      string
	RecordingSID      string
	RecordingDuration *int
}

// HandleProviderCallback applies one status callback to a call. Callbacks
// arrive at-least-once and out of order, so every transition is idempotent
// and a terminal call never regresses to an earlier state. Unknown statuses
// are ignored.
func (s *Service) HandleProviderCallback(ctx context.Context, callID uuid.UUID, input CallbackInput) error {
	call, err := s.repo.GetCall(ctx, callID)
	if err != nil {
		return err
	}

	changed := false
	completed := false

	switch input.Status {
	case telephony.StatusQueued, telephony.StatusInitiated, telephony.StatusRinging:
		// Progress signals carry no state we keep.

	case telephony.StatusInProgress:
		if !call.Terminal() && call.Outcome == nil {
			outcome := OutcomeAnswered
			call.Outcome = &outcome
			changed = true
		}

	case telephony.StatusCompleted:
		if call.EndTime == nil {
			now := time.Now()
			call.EndTime = &now
			changed = true
			completed = true
		}
		if input.Duration != nil && call.Duration == nil {
			call.Duration = input.Duration
			changed = true
		}
		if call.Outcome == nil {
			outcome := OutcomeAnswered
			call.Outcome = &outcome
			changed = true
		}

	case telephony.StatusBusy:
		changed = applyMissed(call, OutcomeBusy) || changed

	case telephony.StatusNoAnswer, telephony.StatusFailed, telephony.StatusCanceled:
		changed = applyMissed(call, OutcomeNoAnswer) || changed

	default:
		s.log.Debug("ignoring unknown provider status", "call_id", callID, "status", input.Status)
		return nil
	}

	if changed {
		if err := s.repo.UpdateCall(ctx, call); err != nil {
			return err
		}
	}

	if input.RecordingURL != "" {
		if err := s.attachRecording(ctx, call, input); err != nil {
			return err
		}
	} else if completed && s.nudger != nil {
		// The completion carried no recording reference; have the worker
		// re-check the provider in a few minutes.
		if err := s.nudger.ScheduleCallReconcile(ctx, call.ID, reconcileNudgeDelay); err != nil {
			s.log.Warn("failed to schedule recording reconcile", "call_id", call.ID, "error", err)
		}
	}

	if completed && s.bus != nil {
		outcome := ""
		if call.Outcome != nil {
			outcome = *call.Outcome
		}
		s.bus.Publish(ctx, events.CallCompleted{
			BaseEvent: events.NewBaseEvent(),
			CallID:    call.ID,
			Outcome:   outcome,
			Duration:  call.Duration,
		})
	}

	return nil
}

// applyMissed closes the call as missed with the given outcome. A call that
// already ended keeps its first terminal state.
func applyMissed(call *Call, outcome string) bool {
	if call.Terminal() {
		return false
	}
	now := time.Now()
	call.Outcome = &outcome
	call.Direction = DirectionMissed
	call.EndTime = &now
	return true
}

func (s *Service) attachRecording(ctx context.Context, call *Call, input CallbackInput) error {
	rec, err := s.repo.AddRecording(ctx, &Recording{
		CallID:      call.ID,
		ProviderSID: input.RecordingSID,
		URL:         input.RecordingURL,
		Duration:    input.RecordingDuration,
	})
	if err != nil {
		return err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.RecordingAttached{
			BaseEvent:    events.NewBaseEvent(),
			CallID:       call.ID,
			RecordingURL: rec.URL,
		})
	}
	return nil
}

// UpdateSalesStatus sets the agent-driven axis. The network outcome is
// never written here.
func (s *Service) UpdateSalesStatus(ctx context.Context, id uuid.UUID, status string) (*Call, error) {
	if !ValidSalesStatus(status) {
		return nil, apperr.Validation("invalid sales status: " + status)
	}
	return s.repo.UpdateSalesStatus(ctx, id, status)
}

// GetCall fetches a call by id.
func (s *Service) GetCall(ctx context.Context, id uuid.UUID) (*Call, error) {
	return s.repo.GetCall(ctx, id)
}

// ListCalls returns the newest calls first.
func (s *Service) ListCalls(ctx context.Context, limit, offset int) ([]Call, error) {
	return s.repo.ListCalls(ctx, limit, offset)
}

// ListRecordings returns all recordings stored for a call.
func (s *Service) ListRecordings(ctx context.Context, callID uuid.UUID) ([]Recording, error) {
	return s.repo.ListRecordings(ctx, callID)
}

func (s *Service) callbackURL(callID uuid.UUID) string {
	return strings.TrimRight(s.cfg.GetCallbackBaseURL(), "/") + "/calls/webhook/" + callID.String()
}

func appendNote(existing, addition string) string {
	if existing == "" {
		return addition
	}
	return existing + "; " + addition
}
