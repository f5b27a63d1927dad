package intake

import (
	"io"
	"net/http"
	"strconv"

	"leadline-backend/platform/httpkit"
	"leadline-backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	errInvalidRequest = "invalid request body"
	errValidation     = "validation error"
	errInvalidLeadID  = "invalid lead ID"

	defaultPageSize = 50
	maxPageSize     = 200
)

// Handler handles intake HTTP requests.
type Handler struct {
	service *Service
	val     *validator.Validator
}

// NewHandler creates a new intake handler.
func NewHandler(service *Service, val *validator.Validator) *Handler {
	return &Handler{service: service, val: val}
}

// HandleLeadCapture processes an inbound lead webhook.
// POST /webhooks/lead-capture (public)
// Always responds 200; the body carries success or failure.
func (h *Handler) HandleLeadCapture(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		raw = []byte{}
	}

	result := h.service.ProcessWebhookLead(c.Request.Context(), raw, c.ClientIP(), c.FullPath())
	c.JSON(http.StatusOK, result)
}

// CreateLeadRequest is the body for manual lead entry.
type CreateLeadRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=200"`
	Phone   string `json:"phone" validate:"required,min=4,max=32"`
	Email   string `json:"email" validate:"omitempty,email"`
	Company string `json:"company" validate:"max=200"`
}

// HandleCreateLead creates a lead entered by an agent.
// POST /api/v1/leads
func (h *Handler) HandleCreateLead(c *gin.Context) {
	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errValidation, err.Error())
		return
	}

	lead, err := h.service.CreateManualLead(c.Request.Context(), CreateLeadInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Company: req.Company,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	c.JSON(http.StatusCreated, lead)
}

// HandleListLeads lists leads, newest first.
// GET /api/v1/leads
func (h *Handler) HandleListLeads(c *gin.Context) {
	limit, offset := pagination(c)

	leads, err := h.service.ListLeads(c.Request.Context(), limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}
	if leads == nil {
		leads = []Lead{}
	}

	httpkit.OK(c, leads)
}

// HandleGetLead fetches a single lead.
// GET /api/v1/leads/:id
func (h *Handler) HandleGetLead(c *gin.Context) {
	id, ok := parseLeadID(c)
	if !ok {
		return
	}

	lead, err := h.service.GetLead(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

// UpdateLeadStatusRequest is the body for pipeline status changes.
type UpdateLeadStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// HandleUpdateLeadStatus moves a lead to a new pipeline status.
// PATCH /api/v1/leads/:id/status
func (h *Handler) HandleUpdateLeadStatus(c *gin.Context) {
	id, ok := parseLeadID(c)
	if !ok {
		return
	}

	var req UpdateLeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errValidation, err.Error())
		return
	}

	lead, err := h.service.UpdateLeadStatus(c.Request.Context(), id, req.Status)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

// HandleListAudit lists recent intake audit records.
// GET /api/v1/intake/audit
func (h *Handler) HandleListAudit(c *gin.Context) {
	limit, offset := pagination(c)

	records, err := h.service.ListAudit(c.Request.Context(), limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}
	if records == nil {
		records = []AuditRecord{}
	}

	httpkit.OK(c, records)
}

func parseLeadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidLeadID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

func pagination(c *gin.Context) (limit, offset int) {
	limit = defaultPageSize
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= maxPageSize {
			limit = parsed
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
