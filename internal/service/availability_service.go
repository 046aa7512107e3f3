package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/noah-isme/booking-api/internal/dto"
	"github.com/noah-isme/booking-api/internal/models"
	"github.com/noah-isme/booking-api/internal/scheduling"
	appErrors "github.com/noah-isme/booking-api/pkg/errors"
)

type availabilityStore interface {
	FindByDay(ctx context.Context, employeeID string, dayOfWeek int) (*models.WeeklyAvailability, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]models.WeeklyAvailability, error)
	Upsert(ctx context.Context, employeeID string, days []models.WeeklyAvailability) error
}

type dayAppointmentReader interface {
	ListForDay(ctx context.Context, employeeID string, from, to time.Time) ([]models.Appointment, error)
}

type catalog interface {
	Lookup(ctx context.Context, serviceID string) (*models.Service, error)
	Employee(ctx context.Context, scope models.TenantScope, employeeID string) (*models.Employee, error)
}

// AvailabilityConfig carries the business timezone and slot granularity.
type AvailabilityConfig struct {
	Location *time.Location
	Step     time.Duration
	CacheTTL time.Duration
}

// AvailabilityService turns weekly templates and booked appointments into free slots.
type AvailabilityService struct {
	availability availabilityStore
	appointments dayAppointmentReader
	catalog      catalog
	cache        *CacheService
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
	cfg          AvailabilityConfig
}

// NewAvailabilityService constructs the slot generator.
func NewAvailabilityService(availability availabilityStore, appointments dayAppointmentReader, catalog catalog, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg AvailabilityConfig) *AvailabilityService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Step <= 0 {
		cfg.Step = scheduling.DefaultStep
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		availability: availability,
		appointments: appointments,
		catalog:      catalog,
		cache:        cache,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		cfg:          cfg,
	}
}

// Location returns the business timezone.
func (s *AvailabilityService) Location() *time.Location {
	return s.cfg.Location
}

// GenerateSlots lists the free "HH:mm" start times for serviceID with employeeID on date (YYYY-MM-DD,
// business-local). Closed days, missing templates and unknown employees yield an empty list.
func (s *AvailabilityService) GenerateSlots(ctx context.Context, date, employeeID, serviceID string) ([]string, error) {
	svc, err := s.catalog.Lookup(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	day, err := scheduling.ParseDate(date, s.cfg.Location)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}
	return s.slotsFor(ctx, day, employeeID, svc.Duration(), "")
}

// PublicSlots serves the anonymous availability query through the slot cache.
func (s *AvailabilityService) PublicSlots(ctx context.Context, query dto.AvailabilityQuery) (*dto.SlotsResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability query")
	}

	key := SlotCacheKey(query.EmployeeID, query.ServiceID, query.Date)
	var cached dto.SlotsResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	slots, err := s.GenerateSlots(ctx, query.Date, query.EmployeeID, query.ServiceID)
	if err != nil {
		return nil, err
	}
	resp := &dto.SlotsResponse{
		Date:       query.Date,
		EmployeeID: query.EmployeeID,
		ServiceID:  query.ServiceID,
		Timezone:   s.cfg.Location.String(),
		Slots:      slots,
	}
	s.cache.Set(ctx, key, resp, s.cfg.CacheTTL)
	return resp, nil
}

// slotsFor computes the free slots of the business-local day containing day.
// ignoreID drops one appointment from the busy set so a reschedule does not collide with itself.
func (s *AvailabilityService) slotsFor(ctx context.Context, day time.Time, employeeID string, duration time.Duration, ignoreID string) ([]string, error) {
	ctx, span := startSpan(ctx, "availability.slots",
		attribute.String("employee.id", employeeID),
		attribute.String("date", scheduling.LocalDate(day, s.cfg.Location)))
	defer span.End()

	started := time.Now()
	dayStart, dayEnd := scheduling.DayBounds(day, s.cfg.Location)

	tmpl, err := s.availability.FindByDay(ctx, employeeID, int(dayStart.Weekday()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []string{}, nil
		}
		return nil, appErrors.Internal(err, "failed to load availability")
	}
	if !tmpl.Bookable() {
		return []string{}, nil
	}

	windowStart, err := scheduling.At(dayStart, *tmpl.WindowStart)
	if err != nil {
		s.logger.Warn("ignoring malformed availability window", zap.String("employee_id", employeeID), zap.Int("day_of_week", tmpl.DayOfWeek), zap.Error(err))
		return []string{}, nil
	}
	windowEnd, err := scheduling.At(dayStart, *tmpl.WindowEnd)
	if err != nil {
		s.logger.Warn("ignoring malformed availability window", zap.String("employee_id", employeeID), zap.Int("day_of_week", tmpl.DayOfWeek), zap.Error(err))
		return []string{}, nil
	}

	booked, err := s.appointments.ListForDay(ctx, employeeID, dayStart, dayEnd)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load appointments")
	}
	busy := make([]scheduling.Interval, 0, len(booked))
	for _, appt := range booked {
		if appt.ID == ignoreID || !scheduling.Occupies(appt.Status) {
			continue
		}
		busy = append(busy, scheduling.Interval{Start: appt.StartTime, End: appt.EndTime})
	}

	slots := scheduling.GenerateSlots(scheduling.SlotRequest{
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Duration:    duration,
		Step:        s.cfg.Step,
		Busy:        busy,
		Location:    s.cfg.Location,
	})
	s.metrics.ObserveSlotGeneration(time.Since(started), len(slots))
	return slots, nil
}

// Weekly returns all seven days of the employee's template; days never stored are reported unavailable.
func (s *AvailabilityService) Weekly(ctx context.Context, scope models.TenantScope, employeeID string) ([]models.WeeklyAvailability, error) {
	if _, err := s.catalog.Employee(ctx, scope, employeeID); err != nil {
		return nil, err
	}
	rows, err := s.availability.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load availability")
	}

	week := make([]models.WeeklyAvailability, 7)
	for i := range week {
		week[i] = models.WeeklyAvailability{EmployeeID: employeeID, DayOfWeek: i}
	}
	for _, row := range rows {
		if row.DayOfWeek >= 0 && row.DayOfWeek < 7 {
			week[row.DayOfWeek] = row
		}
	}
	return week, nil
}

// UpdateWeekly upserts the given days of the employee's template and drops cached slots.
func (s *AvailabilityService) UpdateWeekly(ctx context.Context, scope models.TenantScope, employeeID string, req dto.UpdateAvailabilityRequest) ([]models.WeeklyAvailability, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	if _, err := s.catalog.Employee(ctx, scope, employeeID); err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(req.Days))
	rows := make([]models.WeeklyAvailability, 0, len(req.Days))
	for _, day := range req.Days {
		dow := *day.DayOfWeek
		if seen[dow] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("day %d listed twice", dow))
		}
		seen[dow] = true

		row := models.WeeklyAvailability{EmployeeID: employeeID, DayOfWeek: dow, IsAvailable: day.IsAvailable}
		if day.IsAvailable {
			if err := validateWindow(day.StartTime, day.EndTime); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid window for day %d", dow))
			}
			start, end := day.StartTime, day.EndTime
			row.WindowStart = &start
			row.WindowEnd = &end
		}
		rows = append(rows, row)
	}

	if err := s.availability.Upsert(ctx, employeeID, rows); err != nil {
		return nil, appErrors.Internal(err, "failed to save availability")
	}
	s.cache.InvalidateEmployee(ctx, employeeID)
	return s.Weekly(ctx, scope, employeeID)
}

func validateWindow(start, end string) error {
	if start == "" || end == "" {
		return errors.New("start and end time are required when available")
	}
	sh, sm, err := scheduling.ParseClock(start)
	if err != nil {
		return err
	}
	eh, em, err := scheduling.ParseClock(end)
	if err != nil {
		return err
	}
	if eh*60+em <= sh*60+sm {
		return errors.New("end time must be after start time")
	}
	return nil
}
