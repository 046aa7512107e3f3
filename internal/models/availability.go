package models

import "time"

// WeeklyAvailability is an employee's bookable window for one day of the week.
// DayOfWeek follows time.Weekday: 0 is Sunday.
type WeeklyAvailability struct {
	ID          string    `db:"id" json:"id"`
	EmployeeID  string    `db:"employee_id" json:"employee_id"`
	DayOfWeek   int       `db:"day_of_week" json:"day_of_week"`
	IsAvailable bool      `db:"is_available" json:"is_available"`
	WindowStart *string   `db:"window_start" json:"window_start,omitempty"`
	WindowEnd   *string   `db:"window_end" json:"window_end,omitempty"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Bookable reports whether the row describes an open window.
func (w *WeeklyAvailability) Bookable() bool {
	return w != nil && w.IsAvailable && w.WindowStart != nil && w.WindowEnd != nil
}
