// Package calls implements the call lifecycle: initiation against the
// telephony provider, provider status callbacks, and the agent-facing
// disposition. A call carries two independent status axes that are never
// cross-written: the outcome (what the network observed) and the sales
// status (what the agent concluded).
package calls

import (
	"time"

	"github.com/google/uuid"
)

// Call directions.
const (
	DirectionOutgoing = "outgoing"
	DirectionIncoming = "incoming"
	DirectionMissed   = "missed"
)

// Outcomes, the provider-driven axis.
const (
	OutcomeAnswered  = "answered"
	OutcomeNoAnswer  = "no_answer"
	OutcomeBusy      = "busy"
	OutcomeVoicemail = "voicemail"
)

// Sales statuses, the agent-driven axis.
const (
	SalesPending       = "pending"
	SalesInterested    = "interested"
	SalesNotInterested = "not_interested"
	SalesCallback      = "callback"
	SalesConverted     = "converted"
)

// Call is one phone call, inbound or outbound.
type Call struct {
	ID           uuid.UUID  `json:"id"`
	LeadID       *uuid.UUID `json:"leadId,omitempty"`
	AgentID      uuid.UUID  `json:"agentId"`
	Phone        string     `json:"phone"`
	Direction    string     `json:"direction"`
	ProviderSID  *string    `json:"providerSid,omitempty"`
	Outcome      *string    `json:"outcome,omitempty"`
	SalesStatus  string     `json:"salesStatus"`
	Note         string     `json:"note,omitempty"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      *time.Time `json:"endTime,omitempty"`
	Duration     *int       `json:"duration,omitempty"`
	RecordingURL *string    `json:"recordingUrl,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Terminal reports whether the call has reached a final network state.
// Once terminal, non-final callbacks must not rewrite the outcome.
func (c *Call) Terminal() bool {
	return c.EndTime != nil
}

// Recording is a stored reference to provider call audio. Recordings live in
// their own table; attaching one never rewrites the call row.
type Recording struct {
	ID          uuid.UUID `json:"id"`
	CallID      uuid.UUID `json:"callId"`
	ProviderSID string    `json:"providerSid,omitempty"`
	URL         string    `json:"url"`
	Duration    *int      `json:"duration,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ValidSalesStatus reports whether s is a known agent disposition.
func ValidSalesStatus(s string) bool {
	switch s {
	case SalesPending, SalesInterested, SalesNotInterested, SalesCallback, SalesConverted:
		return true
	}
	return false
}
