package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/booking-api/internal/dto"
	"github.com/noah-isme/booking-api/internal/models"
	appErrors "github.com/noah-isme/booking-api/pkg/errors"
	"github.com/noah-isme/booking-api/pkg/response"
)

type availabilityService interface {
	Weekly(ctx context.Context, scope models.TenantScope, employeeID string) ([]models.WeeklyAvailability, error)
	UpdateWeekly(ctx context.Context, scope models.TenantScope, employeeID string, req dto.UpdateAvailabilityRequest) ([]models.WeeklyAvailability, error)
}

// AvailabilityHandler manages employees' weekly templates.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler builds the handler.
func NewAvailabilityHandler(service availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// Get godoc
// @Summary Get weekly availability
// @Tags Availability
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /employees/{id}/availability [get]
func (h *AvailabilityHandler) Get(c *gin.Context) {
	scope, ok := tenantScope(c)
	if !ok {
		return
	}
	week, err := h.service.Weekly(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, week, nil)
}

// Update godoc
// @Summary Replace days of the weekly availability
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Employee ID"
// @Param payload body dto.UpdateAvailabilityRequest true "Days to upsert"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /employees/{id}/availability [put]
func (h *AvailabilityHandler) Update(c *gin.Context) {
	scope, ok := tenantScope(c)
	if !ok {
		return
	}
	var req dto.UpdateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}
	week, err := h.service.UpdateWeekly(c.Request.Context(), scope, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, week, nil)
}
