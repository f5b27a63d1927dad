package assignment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists rotation pointers in the assignment_states table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new assignment state repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetPointer reads the last assigned agent for the pool.
// A missing row means the pool has never assigned anything.
func (r *Repository) GetPointer(ctx context.Context, pool string) (*uuid.UUID, error) {
	var last *uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT last_assigned_agent_id FROM assignment_states WHERE pool = $1`, pool).
		Scan(&last)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get rotation pointer: %w", err)
	}
	return last, nil
}

// CompareAndSwap moves the pointer from old to new in a single statement.
// IS NOT DISTINCT FROM makes the guard hold for the initial NULL pointer too.
// The upsert covers the first assignment ever, where no row exists yet.
func (r *Repository) CompareAndSwap(ctx context.Context, pool string, old *uuid.UUID, new uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO assignment_states (pool, last_assigned_agent_id, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (pool) DO UPDATE
		SET last_assigned_agent_id = EXCLUDED.last_assigned_agent_id, updated_at = NOW()
		WHERE assignment_states.last_assigned_agent_id IS NOT DISTINCT FROM $3`,
		pool, new, old)
	if err != nil {
		return false, fmt.Errorf("swap rotation pointer: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
