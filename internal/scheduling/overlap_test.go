package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, time.June, 3, hour, minute, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                 string
		candStart, candEnd   time.Time
		existStart, existEnd time.Time
		want                 bool
	}{
		{"candidate inside", at(10, 0), at(10, 15), at(9, 45), at(10, 30), true},
		{"candidate contains existing", at(9, 0), at(11, 0), at(10, 0), at(10, 30), true},
		{"starts inside", at(10, 15), at(10, 45), at(10, 0), at(10, 30), true},
		{"ends inside", at(9, 45), at(10, 15), at(10, 0), at(10, 30), true},
		{"identical", at(10, 0), at(10, 30), at(10, 0), at(10, 30), true},
		{"ends at existing start", at(9, 30), at(10, 0), at(10, 0), at(10, 30), false},
		{"starts at existing end", at(10, 30), at(11, 0), at(10, 0), at(10, 30), false},
		{"disjoint", at(8, 0), at(8, 30), at(10, 0), at(10, 30), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(tc.candStart, tc.candEnd, tc.existStart, tc.existEnd))
			assert.Equal(t, tc.want, Overlaps(tc.existStart, tc.existEnd, tc.candStart, tc.candEnd), "overlap must be symmetric")
		})
	}
}

func TestFirstOverlapPicksEarliest(t *testing.T) {
	busy := []Interval{
		{Start: at(11, 0), End: at(11, 30)},
		{Start: at(10, 0), End: at(10, 45)},
	}
	hit, ok := FirstOverlap(Interval{Start: at(10, 30), End: at(11, 15)}, busy)
	assert.True(t, ok)
	assert.Equal(t, at(10, 0), hit.Start)

	_, ok = FirstOverlap(Interval{Start: at(10, 45), End: at(11, 0)}, busy)
	assert.False(t, ok)
}
