package scheduling

import "github.com/noah-isme/booking-api/internal/models"

var transitions = map[models.AppointmentStatus][]models.AppointmentStatus{
	models.AppointmentStatusPending:   {models.AppointmentStatusConfirmed, models.AppointmentStatusCancelled},
	models.AppointmentStatusConfirmed: {models.AppointmentStatusCompleted, models.AppointmentStatusCancelled},
}

// CanTransition reports whether an appointment may move from one status to another.
func CanTransition(from, to models.AppointmentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func IsTerminal(status models.AppointmentStatus) bool {
	return len(transitions[status]) == 0
}

// Occupies reports whether an appointment in this status blocks its interval.
func Occupies(status models.AppointmentStatus) bool {
	return status != models.AppointmentStatusCancelled
}

// Reschedulable reports whether the appointment's time or service may still change.
func Reschedulable(status models.AppointmentStatus) bool {
	return status == models.AppointmentStatusPending || status == models.AppointmentStatusConfirmed
}
