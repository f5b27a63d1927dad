// Package intake implements the public lead capture gateway and the manual
// lead entry endpoints. Inbound webhook payloads are normalized, deduplicated
// against recent leads, assigned to an agent and audited. The webhook
// endpoint always answers HTTP 200 so form providers never retry or surface
// errors to end users; success or failure is carried in the response body.
package intake

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Lead sources.
const (
	SourceWebhook = "webhook"
	SourceManual  = "manual"
	SourceImport  = "import"
)

// Lead pipeline statuses.
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusQualified = "qualified"
	StatusConverted = "converted"
	StatusLost      = "lost"
)

// Audit record statuses.
const (
	AuditSuccess   = "success"
	AuditDuplicate = "duplicate"
	AuditFailed    = "failed"
)

// DedupWindow is the sliding window within which a repeated phone number is
// treated as a duplicate rather than a new lead.
const DedupWindow = 24 * time.Hour

// Lead is a captured prospect. Phone is stored exactly as submitted; the
// E.164 form lives alongside it as the dedup key so repeated submissions
// match regardless of formatting.
type Lead struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Phone           string          `json:"phone"`
	PhoneNormalized string          `json:"-"`
	Email           string          `json:"email,omitempty"`
	Company         string          `json:"company,omitempty"`
	Source          string          `json:"source"`
	Status          string          `json:"status"`
	AssignedAgentID *uuid.UUID      `json:"assignedAgentId,omitempty"`
	RawPayload      json.RawMessage `json:"rawPayload,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// AuditRecord captures the outcome of a single intake request.
// Exactly one record is written per webhook request, whatever happens.
type AuditRecord struct {
	ID         uuid.UUID       `json:"id"`
	Status     string          `json:"status"`
	LeadID     *uuid.UUID      `json:"leadId,omitempty"`
	Endpoint   string          `json:"endpoint,omitempty"`
	Detail     string          `json:"detail,omitempty"`
	SourceIP   string          `json:"sourceIp,omitempty"`
	RawPayload json.RawMessage `json:"rawPayload,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// ValidLeadStatus reports whether s is a known pipeline status.
func ValidLeadStatus(s string) bool {
	switch s {
	case StatusNew, StatusContacted, StatusQualified, StatusConverted, StatusLost:
		return true
	}
	return false
}
