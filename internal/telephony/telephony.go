// Package telephony is the boundary to the external voice provider.
// The rest of the application talks to the Provider interface; the concrete
// HTTP client and the provider's status vocabulary stay in this package.
package telephony

import (
	"context"
	"errors"
	"time"
)

// Provider call statuses as reported on callbacks and call records.
const (
	StatusQueued     = "queued"
	StatusInitiated  = "initiated"
	StatusRinging    = "ringing"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusBusy       = "busy"
	StatusNoAnswer   = "no-answer"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

// Typed placement failures. Callers branch on these to tell an operator
// problem (bad credentials) from a per-destination one.
var (
	// ErrMisconfigured means the provider rejected our credentials or
	// account configuration.
	ErrMisconfigured = errors.New("telephony provider misconfigured")
	// ErrRestrictedDestination means the destination number is blocked by
	// the provider's geographic or account permissions.
	ErrRestrictedDestination = errors.New("destination not permitted")
)

// CallRequest describes an outbound call to place.
type CallRequest struct {
	To          string
	From        string
	CallbackURL string
	Record      bool
}

// CallInfo is the provider's view of a call.
type CallInfo struct {
	SID       string
	Status    string
	Duration  *int
	StartTime *time.Time
	EndTime   *time.Time
}

// Recording is a call recording held by the provider.
type Recording struct {
	SID       string
	URL       string
	Duration  *int
	CreatedAt time.Time
}

// Provider places and inspects calls with the external voice service.
type Provider interface {
	PlaceCall(ctx context.Context, req CallRequest) (*CallInfo, error)
	FetchCall(ctx context.Context, sid string) (*CallInfo, error)
	ListRecordings(ctx context.Context, callSID string) ([]Recording, error)
	HealthCheck(ctx context.Context) error
}

// OutcomeForStatus maps a final provider status to a call outcome.
// Non-final statuses (queued, ringing, in-progress) map to nothing.
func OutcomeForStatus(status string) (string, bool) {
	switch status {
	case StatusCompleted:
		return "answered", true
	case StatusBusy:
		return "busy", true
	case StatusNoAnswer, StatusFailed, StatusCanceled:
		return "no_answer", true
	}
	return "", false
}

// Disabled is a Provider used when no telephony credentials are configured.
// Every operation fails with ErrMisconfigured.
type Disabled struct{}

// NewDisabled creates the disabled provider.
func NewDisabled() *Disabled { return &Disabled{} }

func (*Disabled) PlaceCall(context.Context, CallRequest) (*CallInfo, error) {
	return nil, ErrMisconfigured
}

func (*Disabled) FetchCall(context.Context, string) (*CallInfo, error) {
	return nil, ErrMisconfigured
}

func (*Disabled) ListRecordings(context.Context, string) ([]Recording, error) {
	return nil, ErrMisconfigured
}

func (*Disabled) HealthCheck(context.Context) error {
	return ErrMisconfigured
}
