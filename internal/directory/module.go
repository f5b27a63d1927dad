package directory

import (
	"context"
	"net/http"

	apphttp "leadline-backend/internal/http"
	"leadline-backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AgentStore is the read surface the HTTP handlers need.
type AgentStore interface {
	ListActiveSalesAgents(ctx context.Context) ([]Agent, error)
	GetAgent(ctx context.Context, id uuid.UUID) (*Agent, error)
}

// Module exposes the agent roster over HTTP.
type Module struct {
	store AgentStore
}

// NewModule creates the directory module.
func NewModule(store AgentStore) *Module {
	return &Module{store: store}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "directory"
}

// RegisterRoutes mounts roster routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	agents := ctx.Protected.Group("/agents")
	agents.GET("", m.handleListAgents)
	agents.GET("/:id", m.handleGetAgent)
}

// handleListAgents returns the active sales agents in rotation order.
// GET /api/v1/agents
func (m *Module) handleListAgents(c *gin.Context) {
	agents, err := m.store.ListActiveSalesAgents(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	if agents == nil {
		agents = []Agent{}
	}

	httpkit.OK(c, agents)
}

// handleGetAgent fetches one agent for display.
// GET /api/v1/agents/:id
func (m *Module) handleGetAgent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid agent ID", nil)
		return
	}

	agent, err := m.store.GetAgent(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, agent)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
