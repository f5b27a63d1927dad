package calls

import (
	"net/http"
	"strconv"

	"leadline-backend/platform/apperr"
	"leadline-backend/platform/httpkit"
	"leadline-backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	errInvalidRequest = "invalid request body"
	errValidation     = "validation error"
	errInvalidCallID  = "invalid call ID"

	defaultPageSize = 50
	maxPageSize     = 200
)

// Handler handles call HTTP requests.
type Handler struct {
	service *Service
	val     *validator.Validator
}

// NewHandler creates a new calls handler.
func NewHandler(service *Service, val *validator.Validator) *Handler {
	return &Handler{service: service, val: val}
}

// InitiateCallRequest is the body for starting an outbound call.
type InitiateCallRequest struct {
	LeadID *uuid.UUID `json:"leadId"`
	Phone  string     `json:"phone" validate:"required,min=4,max=32"`
	Note   string     `json:"note" validate:"max=1000"`
}

// HandleInitiateCall starts an outbound call for the authenticated agent.
// POST /api/v1/calls
func (h *Handler) HandleInitiateCall(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req InitiateCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errValidation, err.Error())
		return
	}

	call, err := h.service.InitiateCall(c.Request.Context(), InitiateCallInput{
		LeadID:  req.LeadID,
		AgentID: identity.UserID(),
		Phone:   req.Phone,
		Note:    req.Note,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	c.JSON(http.StatusCreated, call)
}

// HandleProviderCallback receives provider status callbacks.
// POST /calls/webhook/:callId (public)
// The provider expects a plain 200 "OK"; 404 is returned only for an
// unknown call id so the provider stops retrying dead callbacks.
func (h *Handler) HandleProviderCallback(c *gin.Context) {
	callID, err := uuid.Parse(c.Param("callId"))
	if err != nil {
		c.String(http.StatusNotFound, "Not Found")
		return
	}

	input := parseCallbackInput(c)

	if err := h.service.HandleProviderCallback(c.Request.Context(), callID, input); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			c.String(http.StatusNotFound, "Not Found")
			return
		}
		c.String(http.StatusInternalServerError, "Error")
		return
	}

	c.String(http.StatusOK, "OK")
}

// parseCallbackInput reads provider callback fields from either a
// form-encoded or a JSON body. Numeric fields arrive as strings.
func parseCallbackInput(c *gin.Context) CallbackInput {
	var form struct {
		CallStatus        string `form:"CallStatus" json:"CallStatus"`
		CallDuration      string `form:"CallDuration" json:"CallDuration"`
		RecordingURL      string `form:"RecordingUrl" json:"RecordingUrl"`
		RecordingSID      string `form:"RecordingSid" json:"RecordingSid"`
		RecordingDuration string `form:"RecordingDuration" json:"RecordingDuration"`
	}
	_ = c.ShouldBind(&form)

	return CallbackInput{
		Status:            form.CallStatus,
		Duration:          parseOptionalInt(form.CallDuration),
		RecordingURL:      form.RecordingURL,
		RecordingSID:      form.RecordingSID,
		RecordingDuration: parseOptionalInt(form.RecordingDuration),
	}
}

// UpdateSalesStatusRequest is the body for agent dispositions.
type UpdateSalesStatusRequest struct {
	SalesStatus string `json:"salesStatus" validate:"required"`
}

// HandleUpdateSalesStatus sets the agent disposition for a call.
// PATCH /api/v1/calls/:id/sales-status
func (h *Handler) HandleUpdateSalesStatus(c *gin.Context) {
	id, ok := parseCallID(c)
	if !ok {
		return
	}

	var req UpdateSalesStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errValidation, err.Error())
		return
	}

	call, err := h.service.UpdateSalesStatus(c.Request.Context(), id, req.SalesStatus)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, call)
}

// HandleListCalls lists calls, newest first.
// GET /api/v1/calls
func (h *Handler) HandleListCalls(c *gin.Context) {
	limit, offset := pagination(c)

	calls, err := h.service.ListCalls(c.Request.Context(), limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}
	if calls == nil {
		calls = []Call{}
	}

	httpkit.OK(c, calls)
}

// HandleGetCall fetches one call.
// GET /api/v1/calls/:id
func (h *Handler) HandleGetCall(c *gin.Context) {
	id, ok := parseCallID(c)
	if !ok {
		return
	}

	call, err := h.service.GetCall(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, call)
}

// HandleListRecordings lists the recordings stored for a call.
// GET /api/v1/calls/:id/recordings
func (h *Handler) HandleListRecordings(c *gin.Context) {
	id, ok := parseCallID(c)
	if !ok {
		return
	}

	recordings, err := h.service.ListRecordings(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	if recordings == nil {
		recordings = []Recording{}
	}

	httpkit.OK(c, recordings)
}

func parseCallID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidCallID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

func parseOptionalInt(value string) *int {
	if value == "" {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	return &parsed
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
