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

type publicBooking interface {
	PublicBook(ctx context.Context, req dto.PublicBookingRequest) (*models.Appointment, error)
	CancelByToken(ctx context.Context, token models.CancelToken) (*models.Appointment, error)
}

type slotFinder interface {
	PublicSlots(ctx context.Context, query dto.AvailabilityQuery) (*dto.SlotsResponse, error)
}

type catalogLister interface {
	ListServices(ctx context.Context, ownerID string) ([]models.Service, error)
	ListEmployees(ctx context.Context, ownerID string) ([]models.Employee, error)
}

// PublicHandler serves the anonymous booking page.
type PublicHandler struct {
	bookings publicBooking
	slots    slotFinder
	catalog  catalogLister
}

// NewPublicHandler builds the handler.
func NewPublicHandler(bookings publicBooking, slots slotFinder, catalog catalogLister) *PublicHandler {
	return &PublicHandler{bookings: bookings, slots: slots, catalog: catalog}
}

// Availability godoc
// @Summary List free slots
// @Tags Public
// @Produce json
// @Param date query string true "Local date (YYYY-MM-DD)"
// @Param employeeId query string true "Employee ID"
// @Param serviceId query string true "Service ID"
// @Success 200 {object} response.Envelope
// @Router /public/availability [get]
func (h *PublicHandler) Availability(c *gin.Context) {
	var query dto.AvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability query"))
		return
	}
	slots, err := h.slots.PublicSlots(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Book godoc
// @Summary Book as a client
// @Description The response carries the cancel token; it is the only way for the client to cancel later.
// @Tags Public
// @Accept json
// @Produce json
// @Param payload body dto.PublicBookingRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /public/book [post]
func (h *PublicHandler) Book(c *gin.Context) {
	var req dto.PublicBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking payload"))
		return
	}
	appt, err := h.bookings.PublicBook(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, appt)
}

// Cancel godoc
// @Summary Cancel with a cancel token
// @Tags Public
// @Produce json
// @Param token path string true "Cancel token"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /public/cancel/{token} [patch]
func (h *PublicHandler) Cancel(c *gin.Context) {
	appt, err := h.bookings.CancelByToken(c.Request.Context(), models.CancelToken(c.Param("token")))
	if err != nil {
		response.Error(c, err)
		return
	}
	appt.CancelToken = ""
	response.JSON(c, http.StatusOK, appt, nil)
}

// Services godoc
// @Summary List a business's services
// @Tags Public
// @Produce json
// @Param ownerId path string true "Owner ID"
// @Success 200 {object} response.Envelope
// @Router /public/services/{ownerId} [get]
func (h *PublicHandler) Services(c *gin.Context) {
	items, err := h.catalog.ListServices(c.Request.Context(), c.Param("ownerId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Employees godoc
// @Summary List a business's employees
// @Tags Public
// @Produce json
// @Param ownerId path string true "Owner ID"
// @Success 200 {object} response.Envelope
// @Router /public/employees/{ownerId} [get]
func (h *PublicHandler) Employees(c *gin.Context) {
	items, err := h.catalog.ListEmployees(c.Request.Context(), c.Param("ownerId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
