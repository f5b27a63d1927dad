package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"leadline-backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists leads and intake audit records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new intake repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `id, name, phone, phone_normalized, email, company, source, status, assigned_agent_id, raw_payload, created_at, updated_at`

func scanLead(row pgx.Row) (*Lead, error) {
	var l Lead
	err := row.Scan(&l.ID, &l.Name, &l.Phone, &l.PhoneNormalized, &l.Email, &l.Company, &l.Source,
		&l.Status, &l.AssignedAgentID, &l.RawPayload, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateLead inserts a new lead and returns the stored row.
func (r *Repository) CreateLead(ctx context.Context, lead *Lead) (*Lead, error) {
	raw := lead.RawPayload
	if raw == nil {
		raw = json.RawMessage("{}")
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (id, name, phone, phone_normalized, email, company, source, status, assigned_agent_id, raw_payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+leadColumns,
		uuid.New(), lead.Name, lead.Phone, lead.PhoneNormalized, lead.Email, lead.Company,
		lead.Source, lead.Status, lead.AssignedAgentID, raw)

	created, err := scanLead(row)
	if err != nil {
		return nil, fmt.Errorf("create lead: %w", err)
	}
	return created, nil
}

// FindRecentByPhone returns the newest lead whose normalized phone matches,
// created after the cutoff, or nil when none exists.
func (r *Repository) FindRecentByPhone(ctx context.Context, normalized string, since time.Time) (*Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE phone_normalized = $1 AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT 1`, normalized, since)

	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find recent lead by phone: %w", err)
	}
	return lead, nil
}

// GetLead fetches a lead by id.
func (r *Repository) GetLead(ctx context.Context, id uuid.UUID) (*Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

// ListLeads returns the newest leads first.
func (r *Repository) ListLeads(ctx context.Context, limit, offset int) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, *lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return leads, nil
}

// UpdateLeadStatus moves a lead to a new pipeline status.
func (r *Repository) UpdateLeadStatus(ctx context.Context, id uuid.UUID, status string) (*Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+leadColumns, id, status)

	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, fmt.Errorf("update lead status: %w", err)
	}
	return lead, nil
}

// CreateAudit writes one intake audit record. The raw payload column is
// JSONB, so bytes that never parsed as JSON are stored as a JSON string
// rather than rejected; the audit row must survive any input.
func (r *Repository) CreateAudit(ctx context.Context, record *AuditRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO intake_audit_records (id, status, lead_id, endpoint, detail, source_ip, raw_payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New(), record.Status, record.LeadID, record.Endpoint, record.Detail,
		record.SourceIP, jsonSafePayload(record.RawPayload))
	if err != nil {
		return fmt.Errorf("create audit record: %w", err)
	}
	return nil
}

func jsonSafePayload(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("{}")
	}
	if json.Valid(raw) {
		return raw
	}
	quoted, err := json.Marshal(string(raw))
	if err != nil {
		return json.RawMessage("{}")
	}
	return quoted
}

// ListAudit returns the newest audit records first.
func (r *Repository) ListAudit(ctx context.Context, limit, offset int) ([]AuditRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, status, lead_id, endpoint, detail, source_ip, raw_payload, created_at
		FROM intake_audit_records
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	defer rows.Close()

	var records []AuditRecord
	for rows.Next() {
		var rec AuditRecord
		if err := rows.Scan(&rec.ID, &rec.Status, &rec.LeadID, &rec.Endpoint, &rec.Detail, &rec.SourceIP, &rec.RawPayload, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit records: %w", err)
	}
	return records, nil
}
