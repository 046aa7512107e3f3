package dto

import "time"

// CreateAppointmentRequest is the owner payload for booking an appointment.
type CreateAppointmentRequest struct {
	EmployeeID string    `json:"employeeId" validate:"required"`
	ServiceID  string    `json:"serviceId" validate:"required"`
	ClientID   string    `json:"clientId" validate:"required"`
	StartTime  time.Time `json:"startTime" validate:"required"`
	Notes      *string   `json:"notes" validate:"omitempty,max=500"`
}

// RescheduleAppointmentRequest moves an appointment and/or swaps its service.
type RescheduleAppointmentRequest struct {
	StartTime *time.Time `json:"startTime"`
	ServiceID *string    `json:"serviceId" validate:"omitempty,min=1"`
	Notes     *string    `json:"notes" validate:"omitempty,max=500"`
}

// UpdateAppointmentStatusRequest drives owner-side lifecycle transitions.
type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=CONFIRMED COMPLETED"`
}

// PublicBookingRequest is submitted by an anonymous client from the booking page.
type PublicBookingRequest struct {
	OwnerID     string  `json:"ownerId" validate:"required"`
	ServiceID   string  `json:"serviceId" validate:"required"`
	EmployeeID  string  `json:"employeeId" validate:"required"`
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string  `json:"time" validate:"required,datetime=15:04"`
	ClientName  string  `json:"clientName" validate:"required,min=2,max=120"`
	ClientEmail *string `json:"clientEmail" validate:"omitempty,email"`
	ClientPhone string  `json:"clientPhone" validate:"required,min=6,max=32"`
	Notes       *string `json:"notes" validate:"omitempty,max=500"`
}

// AvailabilityQuery selects the slots of one employee and service on a date.
type AvailabilityQuery struct {
	Date       string `form:"date" validate:"required,datetime=2006-01-02"`
	EmployeeID string `form:"employeeId" validate:"required"`
	ServiceID  string `form:"serviceId" validate:"required"`
}

// SlotsResponse lists bookable "HH:mm" start times in the business timezone.
type SlotsResponse struct {
	Date       string   `json:"date"`
	EmployeeID string   `json:"employeeId"`
	ServiceID  string   `json:"serviceId"`
	Timezone   string   `json:"timezone"`
	Slots      []string `json:"slots"`
}

// AppointmentListQuery captures owner list filters from the query string.
type AppointmentListQuery struct {
	EmployeeID string `form:"employeeId"`
	Status     string `form:"status" validate:"omitempty,oneof=PENDING CONFIRMED CANCELLED COMPLETED"`
	StartDate  string `form:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate    string `form:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Page       int    `form:"page" validate:"omitempty,min=1"`
	PageSize   int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// AgendaQuery selects an employee's day agenda for export.
type AgendaQuery struct {
	Date       string `form:"date" validate:"required,datetime=2006-01-02"`
	EmployeeID string `form:"employeeId" validate:"required"`
	Format     string `form:"format" validate:"omitempty,oneof=csv pdf"`
}
