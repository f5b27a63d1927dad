package calls

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadline-backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists calls and call recordings.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new calls repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const callColumns = `id, lead_id, agent_id, phone, direction, provider_sid, outcome,
	sales_status, note, start_time, end_time, duration, recording_url, created_at, updated_at`

func scanCall(row pgx.Row) (*Call, error) {
	var c Call
	err := row.Scan(&c.ID, &c.LeadID, &c.AgentID, &c.Phone, &c.Direction, &c.ProviderSID,
		&c.Outcome, &c.SalesStatus, &c.Note, &c.StartTime, &c.EndTime, &c.Duration,
		&c.RecordingURL, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCall inserts a new call row and returns it.
func (r *Repository) CreateCall(ctx context.Context, call *Call) (*Call, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO calls (id, lead_id, agent_id, phone, direction, provider_sid, outcome,
			sales_status, note, start_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+callColumns,
		uuid.New(), call.LeadID, call.AgentID, call.Phone, call.Direction,
		call.ProviderSID, call.Outcome, call.SalesStatus, call.Note, call.StartTime)

	created, err := scanCall(row)
	if err != nil {
		return nil, fmt.Errorf("create call: %w", err)
	}
	return created, nil
}

// GetCall fetches a call by id.
func (r *Repository) GetCall(ctx context.Context, id uuid.UUID) (*Call, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+callColumns+` FROM calls WHERE id = $1`, id)
	call, err := scanCall(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("call not found")
		}
		return nil, fmt.Errorf("get call: %w", err)
	}
	return call, nil
}

// UpdateCall writes back the mutable call fields.
func (r *Repository) UpdateCall(ctx context.Context, call *Call) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE calls
		SET direction = $2, provider_sid = $3, outcome = $4, note = $5,
			end_time = $6, duration = $7, recording_url = $8, updated_at = NOW()
		WHERE id = $1`,
		call.ID, call.Direction, call.ProviderSID, call.Outcome, call.Note,
		call.EndTime, call.Duration, call.RecordingURL)
	if err != nil {
		return fmt.Errorf("update call: %w", err)
	}
	return nil
}

// UpdateSalesStatus writes only the agent-driven axis.
func (r *Repository) UpdateSalesStatus(ctx context.Context, id uuid.UUID, status string) (*Call, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE calls SET sales_status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+callColumns, id, status)

	call, err := scanCall(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("call not found")
		}
		return nil, fmt.Errorf("update sales status: %w", err)
	}
	return call, nil
}

// ListCalls returns the newest calls first.
func (r *Repository) ListCalls(ctx context.Context, limit, offset int) ([]Call, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+callColumns+`
		FROM calls
		ORDER BY start_time DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list calls: %w", err)
	}
	defer rows.Close()

	var calls []Call
	for rows.Next() {
		call, err := scanCall(rows)
		if err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		calls = append(calls, *call)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calls: %w", err)
	}
	return calls, nil
}

// ListMissingRecordings selects answered outgoing calls inside the lookback
// window that have no recording URL yet. This feeds the reconciliation sweep.
func (r *Repository) ListMissingRecordings(ctx context.Context, since time.Time, limit int) ([]Call, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+callColumns+`
		FROM calls
		WHERE direction = $1
		  AND outcome = $2
		  AND recording_url IS NULL
		  AND provider_sid IS NOT NULL
		  AND start_time >= $3
		ORDER BY start_time ASC
		LIMIT $4`, DirectionOutgoing, OutcomeAnswered, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list calls missing recordings: %w", err)
	}
	defer rows.Close()

	var calls []Call
	for rows.Next() {
		call, err := scanCall(rows)
		if err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		calls = append(calls, *call)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calls: %w", err)
	}
	return calls, nil
}

// AddRecording stores one recording reference for a call.
func (r *Repository) AddRecording(ctx context.Context, rec *Recording) (*Recording, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO call_recordings (id, call_id, provider_sid, url, duration)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (call_id, provider_sid) DO UPDATE SET url = EXCLUDED.url
		RETURNING id, call_id, provider_sid, url, duration, created_at`,
		uuid.New(), rec.CallID, rec.ProviderSID, rec.URL, rec.Duration)

	var stored Recording
	err := row.Scan(&stored.ID, &stored.CallID, &stored.ProviderSID, &stored.URL, &stored.Duration, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("add recording: %w", err)
	}
	return &stored, nil
}

// ListRecordings returns all recordings for a call, oldest first.
func (r *Repository) ListRecordings(ctx context.Context, callID uuid.UUID) ([]Recording, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, call_id, provider_sid, url, duration, created_at
		FROM call_recordings
		WHERE call_id = $1
		ORDER BY created_at ASC`, callID)
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	defer rows.Close()

	var recordings []Recording
	for rows.Next() {
		var rec Recording
		if err := rows.Scan(&rec.ID, &rec.CallID, &rec.ProviderSID, &rec.URL, &rec.Duration, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		recordings = append(recordings, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recordings: %w", err)
	}
	return recordings, nil
}
