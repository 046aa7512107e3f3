package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/booking-api/internal/dto"
	"github.com/noah-isme/booking-api/internal/models"
	appErrors "github.com/noah-isme/booking-api/pkg/errors"
)

func intRef(v int) *int { return &v }

func TestWeeklyAlwaysReportsSevenDays(t *testing.T) {
	f := newBookingFixture()

	week, err := f.slots.Weekly(context.Background(), f.scope, "emp-1")
	require.NoError(t, err)
	require.Len(t, week, 7)
	for i, day := range week {
		assert.Equal(t, i, day.DayOfWeek)
		assert.Equal(t, "emp-1", day.EmployeeID)
	}
	assert.True(t, week[int(time.Monday)].Bookable())
	assert.False(t, week[int(time.Sunday)].Bookable())
}

func TestWeeklyRejectsForeignEmployee(t *testing.T) {
	f := newBookingFixture()

	_, err := f.slots.Weekly(context.Background(), f.scope, "emp-other")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestUpdateWeeklyValidation(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	cases := map[string]dto.UpdateAvailabilityRequest{
		"empty":         {},
		"duplicate day": {Days: []dto.DayAvailability{{DayOfWeek: intRef(2), IsAvailable: false}, {DayOfWeek: intRef(2), IsAvailable: false}}},
		"missing times": {Days: []dto.DayAvailability{{DayOfWeek: intRef(2), IsAvailable: true, StartTime: "09:00"}}},
		"end before":    {Days: []dto.DayAvailability{{DayOfWeek: intRef(2), IsAvailable: true, StartTime: "12:00", EndTime: "09:00"}}},
		"zero length":   {Days: []dto.DayAvailability{{DayOfWeek: intRef(2), IsAvailable: true, StartTime: "09:00", EndTime: "09:00"}}},
		"bad clock":     {Days: []dto.DayAvailability{{DayOfWeek: intRef(2), IsAvailable: true, StartTime: "9am", EndTime: "17:00"}}},
		"day range":     {Days: []dto.DayAvailability{{DayOfWeek: intRef(7), IsAvailable: false}}},
		"missing day":   {Days: []dto.DayAvailability{{IsAvailable: false}}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.slots.UpdateWeekly(ctx, f.scope, "emp-1", req)
			assert.ErrorIs(t, err, appErrors.ErrValidation)
		})
	}

	_, err := f.slots.UpdateWeekly(ctx, f.scope, "emp-other", dto.UpdateAvailabilityRequest{
		Days: []dto.DayAvailability{{DayOfWeek: intRef(2), IsAvailable: false}},
	})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestUpdateWeeklySavesAndInvalidatesSlots(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()
	query := dto.AvailabilityQuery{Date: "2024-06-03", EmployeeID: "emp-1", ServiceID: "svc-30"}

	_, err := f.slots.PublicSlots(ctx, query)
	require.NoError(t, err)
	require.True(t, f.cacheRepo.has(SlotCacheKey("emp-1", "svc-30", "2024-06-03")))

	week, err := f.slots.UpdateWeekly(ctx, f.scope, "emp-1", dto.UpdateAvailabilityRequest{Days: []dto.DayAvailability{
		{DayOfWeek: intRef(int(time.Monday)), IsAvailable: true, StartTime: "14:00", EndTime: "15:00"},
		{DayOfWeek: intRef(int(time.Tuesday)), IsAvailable: false, StartTime: "09:00", EndTime: "10:00"},
	}})
	require.NoError(t, err)
	require.Len(t, week, 7)

	monday := week[int(time.Monday)]
	require.True(t, monday.Bookable())
	assert.Equal(t, "14:00", *monday.WindowStart)
	assert.Equal(t, "15:00", *monday.WindowEnd)

	tuesday := week[int(time.Tuesday)]
	assert.False(t, tuesday.IsAvailable)
	assert.Nil(t, tuesday.WindowStart)
	assert.Nil(t, tuesday.WindowEnd)

	assert.False(t, f.cacheRepo.has(SlotCacheKey("emp-1", "svc-30", "2024-06-03")))
	resp, err := f.slots.PublicSlots(ctx, query)
	require.NoError(t, err)
	assert.Equal(t, []string{"14:00", "14:15", "14:30"}, resp.Slots)
}

func TestUnavailableDayYieldsNoSlots(t *testing.T) {
	f := newBookingFixture()
	f.availability.days["emp-1"][int(time.Monday)] = models.WeeklyAvailability{
		EmployeeID:  "emp-1",
		DayOfWeek:   int(time.Monday),
		IsAvailable: false,
		WindowStart: strRef("09:00"),
		WindowEnd:   strRef("12:00"),
	}

	slots, err := f.slots.GenerateSlots(context.Background(), "2024-06-03", "emp-1", "svc-30")
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestPublicSlotsUnknownServiceIsNotCached(t *testing.T) {
	f := newBookingFixture()

	_, err := f.slots.PublicSlots(context.Background(), dto.AvailabilityQuery{Date: "2024-06-03", EmployeeID: "emp-1", ServiceID: "svc-missing"})
	assert.ErrorIs(t, err, appErrors.ErrServiceNotFound)
	assert.False(t, f.cacheRepo.has(SlotCacheKey("emp-1", "svc-missing", "2024-06-03")))
}
