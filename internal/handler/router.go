package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/booking-api/internal/middleware"
	"github.com/noah-isme/booking-api/internal/models"
)

type tokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// Routes groups the handlers mounted by Register.
type Routes struct {
	Appointments *AppointmentHandler
	Public       *PublicHandler
	Availability *AvailabilityHandler
	Metrics      *MetricsHandler
}

// Register mounts ops endpoints at the root and the booking API under prefix.
func (rt Routes) Register(r *gin.Engine, prefix string, auth tokenValidator) {
	if rt.Metrics != nil {
		r.GET("/health", rt.Metrics.Health)
		r.GET("/ready", rt.Metrics.Ready)
		r.GET("/metrics", rt.Metrics.Prometheus)
	}

	api := r.Group(prefix)

	public := api.Group("/public")
	public.GET("/availability", rt.Public.Availability)
	public.POST("/book", rt.Public.Book)
	public.PATCH("/cancel/:token", rt.Public.Cancel)
	public.GET("/services/:ownerId", rt.Public.Services)
	public.GET("/employees/:ownerId", rt.Public.Employees)

	owner := api.Group("")
	owner.Use(middleware.JWT(auth), middleware.RequireRoles(models.RoleOwner, models.RoleAdmin))

	appointments := owner.Group("/appointments")
	appointments.GET("", rt.Appointments.List)
	appointments.POST("", rt.Appointments.Create)
	appointments.GET("/agenda", rt.Appointments.Agenda)
	appointments.GET("/:id", rt.Appointments.Get)
	appointments.PATCH("/:id", rt.Appointments.Reschedule)
	appointments.PATCH("/:id/status", rt.Appointments.UpdateStatus)
	appointments.POST("/:id/cancel", rt.Appointments.Cancel)
	appointments.DELETE("/:id", rt.Appointments.Delete)

	owner.GET("/employees/:id/availability", rt.Availability.Get)
	owner.PUT("/employees/:id/availability", rt.Availability.Update)
}
