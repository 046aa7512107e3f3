package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bogota = time.FixedZone("COT", -5*60*60)

func localAt(hour, minute int) time.Time {
	return time.Date(2024, time.June, 3, hour, minute, 0, 0, bogota)
}

func TestGenerateSlotsEmptyDay(t *testing.T) {
	slots := GenerateSlots(SlotRequest{
		WindowStart: localAt(9, 0),
		WindowEnd:   localAt(12, 0),
		Duration:    30 * time.Minute,
		Location:    bogota,
	})

	assert.Equal(t, []string{
		"09:00", "09:15", "09:30", "09:45", "10:00", "10:15",
		"10:30", "10:45", "11:00", "11:15", "11:30",
	}, slots)
}

func TestGenerateSlotsSkipsBookedInterval(t *testing.T) {
	slots := GenerateSlots(SlotRequest{
		WindowStart: localAt(9, 0),
		WindowEnd:   localAt(12, 0),
		Duration:    30 * time.Minute,
		Step:        15 * time.Minute,
		Busy:        []Interval{{Start: localAt(10, 0), End: localAt(10, 30)}},
		Location:    bogota,
	})

	assert.Equal(t, []string{"09:00", "09:15", "09:30", "10:30", "10:45", "11:00", "11:15", "11:30"}, slots)
	assert.NotContains(t, slots, "09:45")
	assert.NotContains(t, slots, "10:00")
	assert.NotContains(t, slots, "10:15")
}

func TestGenerateSlotsJumpsToOffGridEnd(t *testing.T) {
	slots := GenerateSlots(SlotRequest{
		WindowStart: localAt(9, 0),
		WindowEnd:   localAt(10, 30),
		Duration:    30 * time.Minute,
		Busy:        []Interval{{Start: localAt(9, 10), End: localAt(9, 40)}},
		Location:    bogota,
	})

	assert.Equal(t, []string{"09:40", "09:55"}, slots)
}

func TestGenerateSlotsNeverOverlapsBusy(t *testing.T) {
	busy := []Interval{
		{Start: localAt(9, 30), End: localAt(10, 15)},
		{Start: localAt(11, 0), End: localAt(11, 20)},
		{Start: localAt(14, 45), End: localAt(15, 0)},
	}
	duration := 45 * time.Minute
	slots := GenerateSlots(SlotRequest{
		WindowStart: localAt(8, 0),
		WindowEnd:   localAt(17, 0),
		Duration:    duration,
		Busy:        busy,
		Location:    bogota,
	})
	require.NotEmpty(t, slots)

	prev := ""
	for _, slot := range slots {
		start, err := At(localAt(0, 0), slot)
		require.NoError(t, err)
		for _, b := range busy {
			assert.False(t, Overlaps(start, start.Add(duration), b.Start, b.End), "slot %s overlaps busy interval", slot)
		}
		assert.False(t, start.Add(duration).After(localAt(17, 0)))
		assert.Greater(t, slot, prev)
		prev = slot
	}
}

func TestGenerateSlotsInvalidWindow(t *testing.T) {
	assert.Empty(t, GenerateSlots(SlotRequest{WindowStart: localAt(12, 0), WindowEnd: localAt(9, 0), Duration: time.Hour}))
	assert.Empty(t, GenerateSlots(SlotRequest{WindowStart: localAt(9, 0), WindowEnd: localAt(9, 20), Duration: 30 * time.Minute}))
	assert.Empty(t, GenerateSlots(SlotRequest{WindowStart: localAt(9, 0), WindowEnd: localAt(12, 0)}))
}

func TestGenerateSlotsFormatsInBusinessTimezone(t *testing.T) {
	// 14:00Z is 09:00 in UTC-5.
	start := time.Date(2024, time.June, 3, 14, 0, 0, 0, time.UTC)
	slots := GenerateSlots(SlotRequest{
		WindowStart: start,
		WindowEnd:   start.Add(time.Hour),
		Duration:    time.Hour,
		Location:    bogota,
	})
	assert.Equal(t, []string{"09:00"}, slots)
}

func TestDayBoundsUsesBusinessTimezone(t *testing.T) {
	// 02:00Z on June 4th is still June 3rd at 21:00 in UTC-5.
	instant := time.Date(2024, time.June, 4, 2, 0, 0, 0, time.UTC)

	start, end := DayBounds(instant, bogota)
	assert.Equal(t, time.Date(2024, time.June, 3, 5, 0, 0, 0, time.UTC), start.UTC())
	assert.Equal(t, 24*time.Hour, end.Sub(start))
	assert.Equal(t, "2024-06-03", LocalDate(instant, bogota))
	assert.Equal(t, "2024-06-04", LocalDate(instant, time.UTC))
	assert.Equal(t, "21:00", LocalClock(instant, bogota))
}

func TestParseDateAndAt(t *testing.T) {
	day, err := ParseDate("2024-06-03", bogota)
	require.NoError(t, err)
	assert.Equal(t, time.Monday, day.Weekday())

	start, err := At(day, "09:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.June, 3, 14, 30, 0, 0, time.UTC), start.UTC())

	_, err = ParseDate("03/06/2024", bogota)
	assert.Error(t, err)
	_, err = At(day, "9h30")
	assert.Error(t, err)
}

func TestMinuteAligned(t *testing.T) {
	assert.True(t, MinuteAligned(localAt(9, 0)))
	assert.False(t, MinuteAligned(localAt(9, 0).Add(30*time.Second)))
	assert.False(t, MinuteAligned(localAt(9, 0).Add(time.Millisecond)))
}
