package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/booking-api/internal/dto"
	"github.com/noah-isme/booking-api/internal/models"
	"github.com/noah-isme/booking-api/internal/service"
	appErrors "github.com/noah-isme/booking-api/pkg/errors"
	"github.com/noah-isme/booking-api/pkg/response"
)

type bookingService interface {
	Create(ctx context.Context, scope models.TenantScope, req dto.CreateAppointmentRequest) (*models.Appointment, error)
	Reschedule(ctx context.Context, scope models.TenantScope, id string, req dto.RescheduleAppointmentRequest) (*models.Appointment, error)
	CancelByOwner(ctx context.Context, scope models.TenantScope, id string) (*models.Appointment, error)
	UpdateStatus(ctx context.Context, scope models.TenantScope, id string, req dto.UpdateAppointmentStatusRequest) (*models.Appointment, error)
	Delete(ctx context.Context, scope models.TenantScope, id string) error
	Get(ctx context.Context, scope models.TenantScope, id string) (*models.Appointment, error)
	List(ctx context.Context, scope models.TenantScope, query dto.AppointmentListQuery) ([]models.Appointment, *models.Pagination, error)
}

type agendaExporter interface {
	Agenda(ctx context.Context, scope models.TenantScope, query dto.AgendaQuery) (*service.ExportResult, error)
}

// AppointmentHandler exposes the owner-side appointment endpoints.
type AppointmentHandler struct {
	bookings bookingService
	exports  agendaExporter
}

// NewAppointmentHandler builds the handler.
func NewAppointmentHandler(bookings bookingService, exports agendaExporter) *AppointmentHandler {
	return &AppointmentHandler{bookings: bookings, exports: exports}
}

// List godoc
// @Summary List appointments
// @Tags Appointments
// @Produce json
// @Param employeeId query string false "Employee ID"
// @Param status query string false "PENDING, CONFIRMED, CANCELLED or COMPLETED"
// @Param startDate query string false "First local date (YYYY-MM-DD)"
// @Param endDate query string false "Last local date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /appointments [get]
func (h *AppointmentHandler) List(c *gin.Context) {
	scope, ok := tenantScope(c)
	if !ok {
		return
	}
	var query dto.AppointmentListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	items, pagination, err := h.bookings.List(c.Request.Context(), scope, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get appointment
// @Tags Appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /appointments/{id} [get]
func (h *AppointmentHandler) Get(c *gin.Context) {
	scope, ok := tenantScope(c)
	if !ok {
		return
	}
	appt, err := h.bookings.Get(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appt, nil)
}

// Create godoc
// @Summary Book an appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Param payload body dto.CreateAppointmentRequest true "Appointment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /appointments [post]
func (h *AppointmentHandler) Create(c *gin.Context) {
	scope, ok := tenantScope(c)
	if !ok {
		return
	}
	var req dto.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid appointment payload"))
		return
	}
	appt, err := h.bookings.Create(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, appt)
}

// Reschedule godoc
// @Summary Reschedule an appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param payload body dto.RescheduleAppointmentRequest true "New start and/or service"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /appointments/{id} [patch]
func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	scope, ok := tenantScope(c)
	if !ok {
		return
	}
	var req dto.RescheduleAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reschedule payload"))
		return
	}
	appt, err := h.bookings.Reschedule(c.Request.Context(), scope, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appt, nil)
}

// UpdateStatus godoc
// @Summary Confirm or complete an appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param payload body dto.UpdateAppointmentStatusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /appointments/{id}/status [patch]
func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	scope, ok := tenantScope(c)
	if !ok {
		return
	}
	var req dto.UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	appt, err := h.bookings.UpdateStatus(c.Request.Context(), scope, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appt, nil)
}

// Cancel godoc
// @Summary Cancel an appointment
// @Tags Appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /appointments/{id}/cancel [post]
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	scope, ok := tenantScope(c)
	if !ok {
		return
	}
	appt, err := h.bookings.CancelByOwner(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appt, nil)
}

// Delete godoc
// @Summary Delete an appointment
// @Tags Appointments
// @Param id path string true "Appointment ID"
// @Success 204
// @Security BearerAuth
// @Router /appointments/{id} [delete]
func (h *AppointmentHandler) Delete(c *gin.Context) {
	scope, ok := tenantScope(c)
	if !ok {
		return
	}
	if err := h.bookings.Delete(c.Request.Context(), scope, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Agenda godoc
// @Summary Export an employee's day agenda
// @Tags Appointments
// @Produce text/csv
// @Produce application/pdf
// @Param date query string true "Local date (YYYY-MM-DD)"
// @Param employeeId query string true "Employee ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /appointments/agenda [get]
func (h *AppointmentHandler) Agenda(c *gin.Context) {
	scope, ok := tenantScope(c)
	if !ok {
		return
	}
	var query dto.AgendaQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid agenda query"))
		return
	}
	result, err := h.exports.Agenda(c.Request.Context(), scope, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, result.Filename, result.ContentType, result.Data)
}
