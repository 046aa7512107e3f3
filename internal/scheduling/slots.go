package scheduling

import (
	"fmt"
	"time"
)

const (
	// DefaultStep is the granularity of generated slot start times.
	DefaultStep = 15 * time.Minute

	// DateLayout is the wire format for calendar dates.
	DateLayout = "2006-01-02"
	// ClockLayout is the wire format for wall-clock times.
	ClockLayout = "15:04"
)

// SlotRequest describes one day's window for a single employee.
type SlotRequest struct {
	WindowStart time.Time
	WindowEnd   time.Time
	Duration    time.Duration
	Step        time.Duration
	Busy        []Interval
	Location    *time.Location
}

// GenerateSlots walks the window from its start and returns every "HH:mm" start time
// (in req.Location) where an appointment of req.Duration fits without touching a busy
// interval. When a candidate collides, the cursor jumps to the end of the colliding
// interval; otherwise it advances by req.Step.
func GenerateSlots(req SlotRequest) []string {
	slots := make([]string, 0)
	if req.Duration <= 0 || !req.WindowEnd.After(req.WindowStart) {
		return slots
	}
	step := req.Step
	if step <= 0 {
		step = DefaultStep
	}
	loc := req.Location
	if loc == nil {
		loc = time.UTC
	}

	busy := make([]Interval, len(req.Busy))
	copy(busy, req.Busy)
	SortIntervals(busy)

	cursor := req.WindowStart
	for {
		candidate := Interval{Start: cursor, End: cursor.Add(req.Duration)}
		if candidate.End.After(req.WindowEnd) {
			break
		}
		if hit, ok := FirstOverlap(candidate, busy); ok {
			cursor = hit.End
			continue
		}
		slots = append(slots, cursor.In(loc).Format(ClockLayout))
		cursor = cursor.Add(step)
	}
	return slots
}

// ParseDate interprets "YYYY-MM-DD" as midnight of that day in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation(DateLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return day, nil
}

// ParseClock parses "HH:mm" into hour and minute.
func ParseClock(raw string) (int, int, error) {
	t, err := time.Parse(ClockLayout, raw)
	if err != nil {
		return 0, 0, fmt.Errorf("parse clock %q: %w", raw, err)
	}
	return t.Hour(), t.Minute(), nil
}

// At combines a calendar day with an "HH:mm" wall-clock time in the day's location.
func At(day time.Time, clock string) (time.Time, error) {
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, day.Location()), nil
}

// DayBounds returns [start, end) of the calendar day containing t, in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	y, m, d := local.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// LocalDate formats t as "YYYY-MM-DD" in loc.
func LocalDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// LocalClock formats t as "HH:mm" in loc.
func LocalClock(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(ClockLayout)
}

// MinuteAligned reports whether t has no seconds or sub-second component.
func MinuteAligned(t time.Time) bool {
	return t.Second() == 0 && t.Nanosecond() == 0
}
