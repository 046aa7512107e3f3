package models

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus enumerates the lifecycle states of an appointment.
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "PENDING"
	AppointmentStatusConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
)

// CancelToken is the bearer credential that lets an anonymous client cancel a single appointment.
type CancelToken string

// NewCancelToken issues a fresh, unguessable token.
func NewCancelToken() CancelToken {
	return CancelToken(uuid.NewString())
}

func (t CancelToken) String() string {
	return string(t)
}

// Appointment is a booked interval between an employee and a client for one service.
type Appointment struct {
	ID           string            `db:"id" json:"id"`
	OwnerID      string            `db:"owner_id" json:"owner_id"`
	EmployeeID   string            `db:"employee_id" json:"employee_id"`
	ServiceID    string            `db:"service_id" json:"service_id"`
	ClientID     string            `db:"client_id" json:"client_id"`
	StartTime    time.Time         `db:"start_time" json:"start_time"`
	EndTime      time.Time         `db:"end_time" json:"end_time"`
	Status       AppointmentStatus `db:"status" json:"status"`
	CancelToken  CancelToken       `db:"cancel_token" json:"cancel_token,omitempty"`
	ReminderSent bool              `db:"reminder_sent" json:"reminder_sent"`
	Notes        *string           `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time         `db:"updated_at" json:"updated_at"`
}

// AppointmentDetail joins an appointment with the names needed by notifications and exports.
type AppointmentDetail struct {
	Appointment
	ClientName   string  `db:"client_name" json:"client_name"`
	ClientEmail  *string `db:"client_email" json:"client_email,omitempty"`
	ClientPhone  string  `db:"client_phone" json:"client_phone"`
	ServiceName  string  `db:"service_name" json:"service_name"`
	EmployeeName string  `db:"employee_name" json:"employee_name"`
}

// AppointmentFilter narrows owner listings.
type AppointmentFilter struct {
	EmployeeID string
	Status     AppointmentStatus
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}
