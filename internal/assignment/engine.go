// Package assignment implements round-robin lead distribution over the
// active agent roster.
package assignment

import (
	"context"
	"fmt"

	"leadline-backend/internal/directory"
	"leadline-backend/platform/logger"

	"github.com/google/uuid"
)

// DefaultPool is the rotation pool used for sales lead assignment.
const DefaultPool = "sales"

// casRetries bounds how often the engine retries a lost compare-and-swap
// before giving up. Contention beyond this means something is pathological.
const casRetries = 5

// RosterProvider returns the agents currently eligible for assignment.
// The roster is re-read on every assignment so deactivated agents drop out
// of the rotation immediately.
type RosterProvider interface {
	ListActiveSalesAgents(ctx context.Context) ([]directory.Agent, error)
}

// StateRepository persists the rotation pointer for a pool.
type StateRepository interface {
	// GetPointer returns the last assigned agent for the pool, or nil when
	// no assignment has happened yet.
	GetPointer(ctx context.Context, pool string) (*uuid.UUID, error)
	// CompareAndSwap advances the pointer from old to new. It returns false
	// when another writer moved the pointer first.
	CompareAndSwap(ctx context.Context, pool string, old *uuid.UUID, new uuid.UUID) (bool, error)
}

// Engine hands out the next agent in rotation.
type Engine struct {
	roster RosterProvider
	states StateRepository
	pool   string
	log    *logger.Logger
}

// NewEngine creates a round-robin engine over the default sales pool.
func NewEngine(roster RosterProvider, states StateRepository, log *logger.Logger) *Engine {
	return &Engine{
		roster: roster,
		states: states,
		pool:   DefaultPool,
		log:    log,
	}
}

// NextAssignee returns the id of the next agent in rotation, or nil when the
// roster is empty. Concurrent callers race on the persisted pointer; losers
// re-read and retry so no two leads in a burst land on the same agent.
func (e *Engine) NextAssignee(ctx context.Context) (*uuid.UUID, error) {
	for attempt := 0; attempt < casRetries; attempt++ {
		agents, err := e.roster.ListActiveSalesAgents(ctx)
		if err != nil {
			return nil, fmt.Errorf("read roster: %w", err)
		}
		if len(agents) == 0 {
			return nil, nil
		}

		last, err := e.states.GetPointer(ctx, e.pool)
		if err != nil {
			return nil, fmt.Errorf("read rotation pointer: %w", err)
		}

		// An unknown or never-set pointer restarts the rotation at the
		// first agent. This covers both first-ever assignment and the
		// pointer referencing an agent that has since been deactivated.
		pos := -1
		if last != nil {
			for i, agent := range agents {
				if agent.ID == *last {
					pos = i
					break
				}
			}
		}

		next := agents[(pos+1)%len(agents)]

		ok, err := e.states.CompareAndSwap(ctx, e.pool, last, next.ID)
		if err != nil {
			return nil, fmt.Errorf("advance rotation pointer: %w", err)
		}
		if ok {
			return &next.ID, nil
		}

		if e.log != nil {
			e.log.Debug("rotation pointer conflict, retrying", "pool", e.pool, "attempt", attempt+1)
		}
	}

	return nil, fmt.Errorf("advance rotation pointer: exhausted %d retries", casRetries)
}
