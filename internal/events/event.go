// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadline-backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Intake Domain Events
// =============================================================================

// LeadCaptured is published when the intake gateway accepts a new lead.
type LeadCaptured struct {
	BaseEvent
	LeadID          uuid.UUID  `json:"leadId"`
	AssignedAgentID *uuid.UUID `json:"assignedAgentId,omitempty"`
	Source          string     `json:"source"`
	Name            string     `json:"name"`
	Phone           string     `json:"phone"`
	Email           string     `json:"email"`
}

func (e LeadCaptured) EventName() string { return "intake.lead.captured" }

// LeadAssigned is published when a lead is assigned to an agent.
type LeadAssigned struct {
	BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	AgentID uuid.UUID `json:"agentId"`
}

func (e LeadAssigned) EventName() string { return "intake.lead.assigned" }

// =============================================================================
// Call Domain Events
// =============================================================================

// CallInitiated is published when an outgoing call row has been created
// and handed to the telephony provider.
type CallInitiated struct {
	BaseEvent
	CallID  uuid.UUID  `json:"callId"`
	LeadID  *uuid.UUID `json:"leadId,omitempty"`
	AgentID uuid.UUID  `json:"agentId"`
	Phone   string     `json:"phone"`
}

func (e CallInitiated) EventName() string { return "calls.call.initiated" }

// CallCompleted is published when a provider callback closes a call.
type CallCompleted struct {
	BaseEvent
	CallID   uuid.UUID `json:"callId"`
	Outcome  string    `json:"outcome"`
	Duration *int      `json:"duration,omitempty"`
}

func (e CallCompleted) EventName() string { return "calls.call.completed" }

// RecordingAttached is published when a recording reference is persisted
// for a call, either from a callback or from reconciliation.
type RecordingAttached struct {
	BaseEvent
	CallID       uuid.UUID `json:"callId"`
	RecordingURL string    `json:"recordingUrl"`
}

func (e RecordingAttached) EventName() string { return "calls.recording.attached" }
