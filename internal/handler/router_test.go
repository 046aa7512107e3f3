package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/booking-api/internal/models"
	"github.com/noah-isme/booking-api/internal/service"
)

func newTestRouter(t *testing.T) (*gin.Engine, *service.AuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth := service.NewAuthService(service.AuthConfig{AccessTokenSecret: "router-secret"})
	bookings := &bookingServiceMock{}
	routes := Routes{
		Appointments: NewAppointmentHandler(bookings, exporterMock{}),
		Public:       NewPublicHandler(bookings, &slotFinderMock{}, catalogListerMock{}),
		Availability: NewAvailabilityHandler(&availabilityServiceMock{}),
		Metrics:      NewMetricsHandler(service.NewMetricsService(), nil, nil),
	}
	r := gin.New()
	routes.Register(r, "/api/v1", auth)
	return r, auth
}

func TestRouterPublicRoutesNeedNoToken(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/public/availability?date=2024-06-03&employeeId=e&serviceId=s", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/api/v1/public/cancel/tok-1", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterOwnerRoutesRequireOwnerToken(t *testing.T) {
	r, auth := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, _, err := auth.IssueToken("owner-1", "", "", models.RoleOwner)
	require.NoError(t, err)

	for _, target := range []string{
		"/api/v1/appointments",
		"/api/v1/appointments/agenda?date=2024-06-03&employeeId=emp-1",
		"/api/v1/employees/emp-1/availability",
	} {
		w = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, target)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments/appt-9", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
