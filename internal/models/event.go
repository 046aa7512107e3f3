package models

import "time"

// AppointmentEventType names the domain events emitted by the booking flow.
type AppointmentEventType string

const (
	AppointmentEventCreated   AppointmentEventType = "appointment.created"
	AppointmentEventCancelled AppointmentEventType = "appointment.cancelled"
)

// AppointmentEvent is handed to notification and billing subscribers after a commit.
type AppointmentEvent struct {
	ID          string               `json:"event_id"`
	Type        AppointmentEventType `json:"event_type"`
	OccurredAt  time.Time            `json:"occurred_at"`
	Appointment Appointment          `json:"appointment"`
	// RequestID correlates the event with the HTTP request that caused it. Travels as a header.
	RequestID string `json:"-"`
}
