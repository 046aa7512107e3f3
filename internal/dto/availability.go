package dto

// DayAvailability is one day of an employee's weekly template.
type DayAvailability struct {
	DayOfWeek   *int   `json:"dayOfWeek" validate:"required,min=0,max=6"`
	IsAvailable bool   `json:"isAvailable"`
	StartTime   string `json:"startTime" validate:"omitempty,datetime=15:04"`
	EndTime     string `json:"endTime" validate:"omitempty,datetime=15:04"`
}

// UpdateAvailabilityRequest replaces some or all days of the weekly template.
type UpdateAvailabilityRequest struct {
	Days []DayAvailability `json:"days" validate:"required,min=1,max=7,dive"`
}
