// Package calls provides the call lifecycle bounded context module.
// This file defines the module that encapsulates calls setup and route registration.
package calls

import (
	"leadline-backend/internal/events"
	apphttp "leadline-backend/internal/http"
	"leadline-backend/internal/telephony"
	"leadline-backend/platform/logger"
	"leadline-backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the calls bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
	repo    *Repository
}

// NewModule creates and initializes the calls module with all its dependencies.
func NewModule(pool *pgxpool.Pool, provider telephony.Provider, cfg Config, nudger ReconcileScheduler, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	service := NewService(repo, provider, cfg, nudger, bus, log)
	handler := NewHandler(service, val)

	return &Module{handler: handler, service: service, repo: repo}
}

// Service exposes the calls service for cross-module wiring.
func (m *Module) Service() *Service {
	return m.service
}

// Repository exposes the calls repository (used by reconciliation).
func (m *Module) Repository() *Repository {
	return m.repo
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "calls"
}

// RegisterRoutes mounts call routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public provider callback, one URL per call.
	ctx.Engine.POST("/calls/webhook/:callId", m.handler.HandleProviderCallback)

	calls := ctx.Protected.Group("/calls")
	calls.POST("", m.handler.HandleInitiateCall)
	calls.GET("", m.handler.HandleListCalls)
	calls.GET("/:id", m.handler.HandleGetCall)
	calls.GET("/:id/recordings", m.handler.HandleListRecordings)
	calls.PATCH("/:id/sales-status", m.handler.HandleUpdateSalesStatus)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
