// Package intake provides the lead capture bounded context module.
// This file defines the module that encapsulates intake setup and route registration.
package intake

import (
	"leadline-backend/internal/events"
	apphttp "leadline-backend/internal/http"
	"leadline-backend/platform/logger"
	"leadline-backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the intake bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates and initializes the intake module with all its dependencies.
func NewModule(pool *pgxpool.Pool, assigner Assigner, cfg Config, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	service := NewService(repo, assigner, cfg, bus, log)
	handler := NewHandler(service, val)

	return &Module{handler: handler, service: service}
}

// Service exposes the intake service for cross-module wiring.
func (m *Module) Service() *Service {
	return m.service
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "intake"
}

// RegisterRoutes mounts intake routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public capture endpoint, rate limited per IP, no auth.
	ctx.Engine.POST("/webhooks/lead-capture",
		ctx.WebhookRateLimiter.RateLimit(), m.handler.HandleLeadCapture)

	leads := ctx.Protected.Group("/leads")
	leads.POST("", m.handler.HandleCreateLead)
	leads.GET("", m.handler.HandleListLeads)
	leads.GET("/:id", m.handler.HandleGetLead)
	leads.PATCH("/:id/status", m.handler.HandleUpdateLeadStatus)

	ctx.Protected.GET("/intake/audit", m.handler.HandleListAudit)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
