package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"leadline-backend/internal/events"
	"leadline-backend/platform/apperr"
	"leadline-backend/platform/logger"
	"leadline-backend/platform/phone"

	"github.com/google/uuid"
)

// LeadStore is the persistence surface the service needs.
type LeadStore interface {
	CreateLead(ctx context.Context, lead *Lead) (*Lead, error)
	FindRecentByPhone(ctx context.Context, phone string, since time.Time) (*Lead, error)
	GetLead(ctx context.Context, id uuid.UUID) (*Lead, error)
	ListLeads(ctx context.Context, limit, offset int) ([]Lead, error)
	UpdateLeadStatus(ctx context.Context, id uuid.UUID, status string) (*Lead, error)
	CreateAudit(ctx context.Context, record *AuditRecord) error
	ListAudit(ctx context.Context, limit, offset int) ([]AuditRecord, error)
}

// Assigner picks the next agent in rotation. A nil assignee with a nil error
// means nobody is available and the lead stays unassigned.
type Assigner interface {
	NextAssignee(ctx context.Context) (*uuid.UUID, error)
}

// Config is the slice of application config the intake service needs.
type Config interface {
	GetDefaultCountryCode() string
}

// WebhookResult is the body returned to webhook callers. The transport
// status is always 200; Success carries the actual outcome.
type WebhookResult struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	LeadID  *uuid.UUID `json:"lead_id,omitempty"`
}

// Service implements lead intake.
type Service struct {
	repo     LeadStore
	assigner Assigner
	cfg      Config
	bus      events.Bus
	log      *logger.Logger
}

// NewService creates a new intake service.
func NewService(repo LeadStore, assigner Assigner, cfg Config, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, assigner: assigner, cfg: cfg, bus: bus, log: log}
}

// ProcessWebhookLead runs the full capture pipeline for one webhook request:
// extract fields, validate, dedup, assign, persist, audit. It never returns
// an error; every outcome, including a panic, ends in exactly one audit
// record and a well-formed result body.
func (s *Service) ProcessWebhookLead(ctx context.Context, raw []byte, sourceIP, endpoint string) (result WebhookResult) {
	audited := false
	audit := func(status string, leadID *uuid.UUID, detail string) {
		if audited {
			return
		}
		audited = true
		record := &AuditRecord{
			Status:     status,
			LeadID:     leadID,
			Endpoint:   endpoint,
			Detail:     detail,
			SourceIP:   sourceIP,
			RawPayload: jsonSafePayload(raw),
		}
		if err := s.repo.CreateAudit(ctx, record); err != nil {
			s.log.DatabaseError("create intake audit", err)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("lead intake panic", "panic", fmt.Sprintf("%v", r))
			audit(AuditFailed, nil, fmt.Sprintf("panic: %v", r))
			result = WebhookResult{Success: false, Message: "lead could not be processed"}
		}
	}()

	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		audit(AuditFailed, nil, "invalid JSON payload: "+err.Error())
		return WebhookResult{Success: false, Message: "invalid payload"}
	}

	fields := ExtractFields(payload)
	if fields.Name == "" {
		audit(AuditFailed, nil, "missing required field: name")
		return WebhookResult{Success: false, Message: "missing required field: name"}
	}
	if fields.Phone == "" {
		audit(AuditFailed, nil, "missing required field: phone")
		return WebhookResult{Success: false, Message: "missing required field: phone"}
	}

	// The phone is stored exactly as submitted; dialing normalizes later.
	// The E.164 form is the dedup key so formatting variants still match.
	normalized := phone.Dialable(fields.Phone, s.cfg.GetDefaultCountryCode())

	existing, err := s.repo.FindRecentByPhone(ctx, normalized, time.Now().Add(-DedupWindow))
	if err != nil {
		audit(AuditFailed, nil, "dedup lookup failed: "+err.Error())
		return WebhookResult{Success: false, Message: "lead could not be processed"}
	}
	if existing != nil {
		audit(AuditDuplicate, &existing.ID, "phone already captured within dedup window")
		return WebhookResult{Success: true, Message: "duplicate lead", LeadID: &existing.ID}
	}

	assignee := s.nextAssignee(ctx)

	created, err := s.repo.CreateLead(ctx, &Lead{
		Name:            fields.Name,
		Phone:           fields.Phone,
		PhoneNormalized: normalized,
		Email:           fields.Email,
		Company:         fields.Company,
		Source:          SourceWebhook,
		Status:          StatusNew,
		AssignedAgentID: assignee,
		RawPayload:      json.RawMessage(raw),
	})
	if err != nil {
		audit(AuditFailed, nil, "lead persistence failed: "+err.Error())
		return WebhookResult{Success: false, Message: "lead could not be processed"}
	}

	audit(AuditSuccess, &created.ID, "")
	s.publishCaptured(ctx, created)

	return WebhookResult{Success: true, Message: "lead captured", LeadID: &created.ID}
}

// nextAssignee asks the rotation engine for an agent. Engine failure is not
// fatal to intake: the lead is created unassigned and the failure is logged.
func (s *Service) nextAssignee(ctx context.Context) *uuid.UUID {
	assignee, err := s.assigner.NextAssignee(ctx)
	if err != nil {
		s.log.Warn("assignment engine failed, creating lead unassigned", "error", err)
		return nil
	}
	return assignee
}

func (s *Service) publishCaptured(ctx context.Context, lead *Lead) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.LeadCaptured{
		BaseEvent:       events.NewBaseEvent(),
		LeadID:          lead.ID,
		AssignedAgentID: lead.AssignedAgentID,
		Source:          lead.Source,
		Name:            lead.Name,
		Phone:           lead.Phone,
		Email:           lead.Email,
	})
	if lead.AssignedAgentID != nil {
		s.bus.Publish(ctx, events.LeadAssigned{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    lead.ID,
			AgentID:   *lead.AssignedAgentID,
		})
	}
}

// CreateLeadInput is the payload for manual lead entry.
type CreateLeadInput struct {
	Name    string
	Phone   string
	Email   string
	Company string
}

// CreateManualLead creates a lead entered by an agent. Manual leads go
// through the same normalization and rotation as webhook leads but skip the
// dedup window and the audit trail.
func (s *Service) CreateManualLead(ctx context.Context, input CreateLeadInput) (*Lead, error) {
	if input.Name == "" {
		return nil, apperr.Validation("name is required")
	}
	if input.Phone == "" {
		return nil, apperr.Validation("phone is required")
	}

	created, err := s.repo.CreateLead(ctx, &Lead{
		Name:            input.Name,
		Phone:           input.Phone,
		PhoneNormalized: phone.Dialable(input.Phone, s.cfg.GetDefaultCountryCode()),
		Email:           input.Email,
		Company:         input.Company,
		Source:          SourceManual,
		Status:          StatusNew,
		AssignedAgentID: s.nextAssignee(ctx),
	})
	if err != nil {
		return nil, fmt.Errorf("create manual lead: %w", err)
	}

	s.publishCaptured(ctx, created)
	return created, nil
}

// GetLead fetches a lead by id.
func (s *Service) GetLead(ctx context.Context, id uuid.UUID) (*Lead, error) {
	return s.repo.GetLead(ctx, id)
}

// ListLeads returns the newest leads first.
func (s *Service) ListLeads(ctx context.Context, limit, offset int) ([]Lead, error) {
	return s.repo.ListLeads(ctx, limit, offset)
}

// UpdateLeadStatus moves a lead through the pipeline.
func (s *Service) UpdateLeadStatus(ctx context.Context, id uuid.UUID, status string) (*Lead, error) {
	if !ValidLeadStatus(status) {
		return nil, apperr.Validation("invalid lead status: " + status)
	}
	return s.repo.UpdateLeadStatus(ctx, id, status)
}

// ListAudit returns recent intake audit records.
func (s *Service) ListAudit(ctx context.Context, limit, offset int) ([]AuditRecord, error) {
	return s.repo.ListAudit(ctx, limit, offset)
}
