// Package scheduling holds the pure rules of the booking engine: interval overlap,
// slot generation and the appointment state machine. Nothing here touches storage.
package scheduling

import (
	"sort"
	"time"
)

// Overlaps reports whether [candStart, candEnd) intersects [existStart, existEnd).
// Intervals that only touch at a boundary do not overlap.
func Overlaps(candStart, candEnd, existStart, existEnd time.Time) bool {
	return candStart.Before(existEnd) && candEnd.After(existStart)
}

// Interval is a half-open span of time.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the two half-open intervals intersect.
func (i Interval) Overlaps(other Interval) bool {
	return Overlaps(i.Start, i.End, other.Start, other.End)
}

// Duration returns the interval length.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// FirstOverlap returns the earliest-starting busy interval that intersects candidate.
func FirstOverlap(candidate Interval, busy []Interval) (Interval, bool) {
	var (
		hit   Interval
		found bool
	)
	for _, b := range busy {
		if !candidate.Overlaps(b) {
			continue
		}
		if !found || b.Start.Before(hit.Start) {
			hit = b
			found = true
		}
	}
	return hit, found
}

// SortIntervals orders intervals by start time in place.
func SortIntervals(items []Interval) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Start.Before(items[j].Start)
	})
}
