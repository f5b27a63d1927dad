// Package reconcile provides the recording reconciliation module.
// This file registers the manual single-call reconciliation endpoint.
package reconcile

import (
	"net/http"

	apphttp "leadline-backend/internal/http"
	"leadline-backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Module exposes manual reconciliation over HTTP.
type Module struct {
	reconciler *Reconciler
}

// NewModule creates the reconcile module.
func NewModule(reconciler *Reconciler) *Module {
	return &Module{reconciler: reconciler}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "reconcile"
}

// RegisterRoutes mounts the manual reconcile endpoint.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/calls/:id/reconcile", m.handleReconcileCall)
}

// handleReconcileCall runs the fetch-and-update synchronously for one call.
// POST /api/v1/calls/:id/reconcile
func (m *Module) handleReconcileCall(c *gin.Context) {
	callID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid call ID", nil)
		return
	}

	if err := m.reconciler.ReconcileCall(c.Request.Context(), callID); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"message": "call reconciled"})
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
