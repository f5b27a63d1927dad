package directory

import (
	"context"
	"errors"
	"fmt"

	"leadline-backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads agents from the users table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new directory repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListActiveSalesAgents returns all active sales agents ordered by id.
// The stable ordering is what makes round-robin assignment deterministic.
func (r *Repository) ListActiveSalesAgents(ctx context.Context) ([]Agent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, COALESCE(phone, ''), role, is_active, created_at
		FROM users
		WHERE role = $1 AND is_active = TRUE
		ORDER BY id ASC`, RoleSalesAgent)
	if err != nil {
		return nil, fmt.Errorf("list active sales agents: %w", err)
	}
	defer rows.Close()

	var agents []Agent
	for rows.Next() {
		var a Agent
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Phone, &a.Role, &a.IsActive, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agents: %w", err)
	}

	return agents, nil
}

// GetAgent fetches a single agent by id.
func (r *Repository) GetAgent(ctx context.Context, id uuid.UUID) (*Agent, error) {
	var a Agent
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, COALESCE(phone, ''), role, is_active, created_at
		FROM users
		WHERE id = $1`, id).
		Scan(&a.ID, &a.Name, &a.Email, &a.Phone, &a.Role, &a.IsActive, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("agent not found")
		}
		return nil, fmt.Errorf("get agent: %w", err)
	}

	return &a, nil
}
