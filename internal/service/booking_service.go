package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/noah-isme/booking-api/internal/dto"
	"github.com/noah-isme/booking-api/internal/models"
	"github.com/noah-isme/booking-api/internal/repository"
	"github.com/noah-isme/booking-api/internal/scheduling"
	appErrors "github.com/noah-isme/booking-api/pkg/errors"
)

type appointmentStore interface {
	FindByID(ctx context.Context, scope models.TenantScope, id string) (*models.Appointment, error)
	FindByCancelToken(ctx context.Context, token models.CancelToken) (*models.Appointment, error)
	List(ctx context.Context, scope models.TenantScope, filter models.AppointmentFilter) ([]models.Appointment, int, error)
	CreateIfFree(ctx context.Context, appt *models.Appointment) error
	RescheduleIfFree(ctx context.Context, scope models.TenantScope, appt *models.Appointment, expected models.AppointmentStatus) error
	TransitionStatus(ctx context.Context, scope models.TenantScope, id string, from, to models.AppointmentStatus) error
	CancelByToken(ctx context.Context, token models.CancelToken, from models.AppointmentStatus) error
	Delete(ctx context.Context, scope models.TenantScope, id string) error
}

type clientStore interface {
	FindByID(ctx context.Context, scope models.TenantScope, id string) (*models.Client, error)
	UpsertByPhone(ctx context.Context, scope models.TenantScope, client *models.Client) error
}

type appointmentEvents interface {
	Publish(ctx context.Context, event models.AppointmentEvent)
}

// Booking operations used as metric labels.
const (
	opCreate     = "create"
	opReschedule = "reschedule"
	opCancel     = "cancel"
	opStatus     = "status"
)

// BookingService runs the appointment lifecycle: booking, rescheduling, status changes and cancellation.
type BookingService struct {
	appointments appointmentStore
	clients      clientStore
	catalog      catalog
	availability *AvailabilityService
	events       appointmentEvents
	cache        *CacheService
	metrics      *MetricsService
	clock        scheduling.Clock
	validator    *validator.Validate
	logger       *zap.Logger
}

// BookingDeps groups the collaborators of BookingService.
type BookingDeps struct {
	Appointments appointmentStore
	Clients      clientStore
	Catalog      catalog
	Availability *AvailabilityService
	Events       appointmentEvents
	Cache        *CacheService
	Metrics      *MetricsService
	Clock        scheduling.Clock
	Validator    *validator.Validate
	Logger       *zap.Logger
}

// NewBookingService constructs the booking service.
func NewBookingService(deps BookingDeps) *BookingService {
	if deps.Clock == nil {
		deps.Clock = scheduling.SystemClock{}
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &BookingService{
		appointments: deps.Appointments,
		clients:      deps.Clients,
		catalog:      deps.Catalog,
		availability: deps.Availability,
		events:       deps.Events,
		cache:        deps.Cache,
		metrics:      deps.Metrics,
		clock:        deps.Clock,
		validator:    deps.Validator,
		logger:       deps.Logger,
	}
}

// Create books an appointment for the owner's employee and client.
func (s *BookingService) Create(ctx context.Context, scope models.TenantScope, req dto.CreateAppointmentRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid appointment payload")
	}
	if !scope.Valid() {
		return nil, appErrors.ErrUnauthorized
	}

	svc, err := s.ownedService(ctx, scope, req.ServiceID)
	if err != nil {
		s.metrics.RecordBooking(opCreate, OutcomeRejected)
		return nil, err
	}
	if _, err := s.catalog.Employee(ctx, scope, req.EmployeeID); err != nil {
		s.metrics.RecordBooking(opCreate, OutcomeRejected)
		return nil, err
	}
	if _, err := s.clients.FindByID(ctx, scope, req.ClientID); err != nil {
		s.metrics.RecordBooking(opCreate, OutcomeRejected)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return nil, appErrors.Internal(err, "failed to load client")
	}

	return s.book(ctx, scope, svc, req.EmployeeID, req.ClientID, req.StartTime, req.Notes)
}

// PublicBook books on behalf of an anonymous client, creating or refreshing the client by phone.
func (s *BookingService) PublicBook(ctx context.Context, req dto.PublicBookingRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	scope := models.NewTenantScope(req.OwnerID)

	svc, err := s.ownedService(ctx, scope, req.ServiceID)
	if err != nil {
		s.metrics.RecordBooking(opCreate, OutcomeRejected)
		return nil, err
	}
	if _, err := s.catalog.Employee(ctx, scope, req.EmployeeID); err != nil {
		s.metrics.RecordBooking(opCreate, OutcomeRejected)
		return nil, err
	}

	day, err := scheduling.ParseDate(req.Date, s.availability.Location())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}
	start, err := scheduling.At(day, req.Time)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time")
	}

	client := &models.Client{Name: req.ClientName, Email: req.ClientEmail, Phone: req.ClientPhone}
	if err := s.clients.UpsertByPhone(ctx, scope, client); err != nil {
		return nil, appErrors.Internal(err, "failed to save client")
	}

	return s.book(ctx, scope, svc, req.EmployeeID, client.ID, start, req.Notes)
}

func (s *BookingService) book(ctx context.Context, scope models.TenantScope, svc *models.Service, employeeID, clientID string, start time.Time, notes *string) (appt *models.Appointment, err error) {
	ctx, span := startSpan(ctx, "booking.create",
		attribute.String("employee.id", employeeID),
		attribute.String("service.id", svc.ID))
	defer func() { finishSpan(span, err) }()

	if err := s.ensureBookable(ctx, employeeID, start, svc.Duration(), ""); err != nil {
		s.metrics.RecordBooking(opCreate, outcomeOf(err))
		return nil, err
	}

	appt = &models.Appointment{
		OwnerID:     scope.OwnerID(),
		EmployeeID:  employeeID,
		ServiceID:   svc.ID,
		ClientID:    clientID,
		StartTime:   start.UTC(),
		EndTime:     start.Add(svc.Duration()).UTC(),
		Status:      models.AppointmentStatusPending,
		CancelToken: models.NewCancelToken(),
		Notes:       notes,
	}
	if err := s.appointments.CreateIfFree(ctx, appt); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			s.metrics.RecordBooking(opCreate, OutcomeConflict)
			return nil, appErrors.ErrSlotUnavailable
		}
		s.metrics.RecordBooking(opCreate, OutcomeError)
		return nil, appErrors.Internal(err, "failed to create appointment")
	}

	s.metrics.RecordBooking(opCreate, OutcomeSuccess)
	s.cache.InvalidateEmployee(ctx, employeeID)
	s.publish(ctx, models.AppointmentEventCreated, appt)
	s.logger.Info("appointment booked",
		zap.String("appointment_id", appt.ID),
		zap.String("employee_id", employeeID),
		zap.Time("start_time", appt.StartTime))
	return appt, nil
}

// ensureBookable is the pre-check shared by create and reschedule: the start must be a whole
// minute and one of the generated slots of its business-local day.
func (s *BookingService) ensureBookable(ctx context.Context, employeeID string, start time.Time, duration time.Duration, ignoreID string) error {
	if !scheduling.MinuteAligned(start) {
		return appErrors.Clone(appErrors.ErrValidation, "start time must fall on a whole minute")
	}
	slots, err := s.availability.slotsFor(ctx, start, employeeID, duration, ignoreID)
	if err != nil {
		return err
	}
	want := scheduling.LocalClock(start, s.availability.Location())
	for _, slot := range slots {
		if slot == want {
			return nil
		}
	}
	return appErrors.ErrSlotUnavailable
}

// Reschedule moves an appointment to a new start and/or service. The new interval is validated
// exactly like a new booking, ignoring the appointment's own current interval.
func (s *BookingService) Reschedule(ctx context.Context, scope models.TenantScope, id string, req dto.RescheduleAppointmentRequest) (appt *models.Appointment, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule payload")
	}
	if req.StartTime == nil && req.ServiceID == nil && req.Notes == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "nothing to update")
	}

	ctx, span := startSpan(ctx, "booking.reschedule", attribute.String("appointment.id", id))
	defer func() { finishSpan(span, err) }()

	appt, err = s.load(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if !scheduling.Reschedulable(appt.Status) {
		s.metrics.RecordBooking(opReschedule, OutcomeRejected)
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only pending or confirmed appointments can be rescheduled")
	}
	expected := appt.Status

	serviceID := appt.ServiceID
	if req.ServiceID != nil {
		serviceID = *req.ServiceID
	}
	svc, err := s.ownedService(ctx, scope, serviceID)
	if err != nil {
		s.metrics.RecordBooking(opReschedule, OutcomeRejected)
		return nil, err
	}
	start := appt.StartTime
	if req.StartTime != nil {
		start = *req.StartTime
	}

	moved := !start.Equal(appt.StartTime) || svc.ID != appt.ServiceID
	if moved {
		if err := s.ensureBookable(ctx, appt.EmployeeID, start, svc.Duration(), appt.ID); err != nil {
			s.metrics.RecordBooking(opReschedule, outcomeOf(err))
			return nil, err
		}
	}

	appt.ServiceID = svc.ID
	appt.StartTime = start.UTC()
	appt.EndTime = start.Add(svc.Duration()).UTC()
	if req.Notes != nil {
		appt.Notes = req.Notes
	}

	if err := s.appointments.RescheduleIfFree(ctx, scope, appt, expected); err != nil {
		switch {
		case errors.Is(err, repository.ErrSlotTaken):
			s.metrics.RecordBooking(opReschedule, OutcomeConflict)
			return nil, appErrors.ErrSlotUnavailable
		case errors.Is(err, repository.ErrStatusChanged):
			s.metrics.RecordBooking(opReschedule, OutcomeConflict)
			return nil, appErrors.ErrAppointmentChanged
		default:
			s.metrics.RecordBooking(opReschedule, OutcomeError)
			return nil, appErrors.Internal(err, "failed to reschedule appointment")
		}
	}

	s.metrics.RecordBooking(opReschedule, OutcomeSuccess)
	if moved {
		s.cache.InvalidateEmployee(ctx, appt.EmployeeID)
	}
	return appt, nil
}

// CancelByOwner cancels a tenant appointment. Cancelling twice fails with ErrAlreadyCancelled.
func (s *BookingService) CancelByOwner(ctx context.Context, scope models.TenantScope, id string) (*models.Appointment, error) {
	appt, err := s.load(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if err := checkCancellable(appt); err != nil {
		s.metrics.RecordBooking(opCancel, OutcomeRejected)
		return nil, err
	}

	if err := s.appointments.TransitionStatus(ctx, scope, appt.ID, appt.Status, models.AppointmentStatusCancelled); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			s.metrics.RecordBooking(opCancel, OutcomeConflict)
			return nil, appErrors.ErrAppointmentChanged
		}
		s.metrics.RecordBooking(opCancel, OutcomeError)
		return nil, appErrors.Internal(err, "failed to cancel appointment")
	}
	return s.cancelled(ctx, appt), nil
}

// CancelByToken cancels the appointment the token was issued for, provided it has not started.
func (s *BookingService) CancelByToken(ctx context.Context, token models.CancelToken) (*models.Appointment, error) {
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cancel token is required")
	}
	appt, err := s.appointments.FindByCancelToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return nil, appErrors.Internal(err, "failed to load appointment")
	}
	if appt.Status == models.AppointmentStatusCancelled {
		s.metrics.RecordBooking(opCancel, OutcomeRejected)
		return nil, appErrors.ErrAlreadyCancelled
	}
	if !appt.StartTime.After(s.clock.Now()) {
		s.metrics.RecordBooking(opCancel, OutcomeRejected)
		return nil, appErrors.ErrAppointmentInPast
	}
	if err := checkCancellable(appt); err != nil {
		s.metrics.RecordBooking(opCancel, OutcomeRejected)
		return nil, err
	}

	if err := s.appointments.CancelByToken(ctx, token, appt.Status); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			s.metrics.RecordBooking(opCancel, OutcomeConflict)
			if current, lookupErr := s.appointments.FindByCancelToken(ctx, token); lookupErr == nil && current.Status == models.AppointmentStatusCancelled {
				return nil, appErrors.ErrAlreadyCancelled
			}
			return nil, appErrors.ErrAppointmentChanged
		}
		s.metrics.RecordBooking(opCancel, OutcomeError)
		return nil, appErrors.Internal(err, "failed to cancel appointment")
	}
	return s.cancelled(ctx, appt), nil
}

func (s *BookingService) cancelled(ctx context.Context, appt *models.Appointment) *models.Appointment {
	appt.Status = models.AppointmentStatusCancelled
	appt.UpdatedAt = s.clock.Now()
	s.metrics.RecordBooking(opCancel, OutcomeSuccess)
	s.cache.InvalidateEmployee(ctx, appt.EmployeeID)
	s.publish(ctx, models.AppointmentEventCancelled, appt)
	s.logger.Info("appointment cancelled", zap.String("appointment_id", appt.ID))
	return appt
}

func checkCancellable(appt *models.Appointment) error {
	if appt.Status == models.AppointmentStatusCancelled {
		return appErrors.ErrAlreadyCancelled
	}
	if !scheduling.CanTransition(appt.Status, models.AppointmentStatusCancelled) {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "completed appointments cannot be cancelled")
	}
	return nil
}

// UpdateStatus confirms or completes an appointment.
func (s *BookingService) UpdateStatus(ctx context.Context, scope models.TenantScope, id string, req dto.UpdateAppointmentStatusRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	appt, err := s.load(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	to := models.AppointmentStatus(req.Status)
	if !scheduling.CanTransition(appt.Status, to) {
		s.metrics.RecordBooking(opStatus, OutcomeRejected)
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "cannot move appointment from "+string(appt.Status)+" to "+string(to))
	}
	if err := s.appointments.TransitionStatus(ctx, scope, appt.ID, appt.Status, to); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			s.metrics.RecordBooking(opStatus, OutcomeConflict)
			return nil, appErrors.ErrAppointmentChanged
		}
		s.metrics.RecordBooking(opStatus, OutcomeError)
		return nil, appErrors.Internal(err, "failed to update appointment status")
	}
	s.metrics.RecordBooking(opStatus, OutcomeSuccess)
	appt.Status = to
	appt.UpdatedAt = s.clock.Now()
	return appt, nil
}

// Delete hard-deletes a tenant appointment without emitting events.
func (s *BookingService) Delete(ctx context.Context, scope models.TenantScope, id string) error {
	appt, err := s.load(ctx, scope, id)
	if err != nil {
		return err
	}
	if err := s.appointments.Delete(ctx, scope, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return appErrors.Internal(err, "failed to delete appointment")
	}
	s.cache.InvalidateEmployee(ctx, appt.EmployeeID)
	return nil
}

// Get returns a tenant appointment.
func (s *BookingService) Get(ctx context.Context, scope models.TenantScope, id string) (*models.Appointment, error) {
	return s.load(ctx, scope, id)
}

// List returns the tenant's appointments. Date filters are business-local and inclusive.
func (s *BookingService) List(ctx context.Context, scope models.TenantScope, query dto.AppointmentListQuery) ([]models.Appointment, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid list query")
	}
	filter := models.AppointmentFilter{
		EmployeeID: query.EmployeeID,
		Status:     models.AppointmentStatus(query.Status),
		Page:       query.Page,
		PageSize:   query.PageSize,
	}
	loc := s.availability.Location()
	if query.StartDate != "" {
		from, err := scheduling.ParseDate(query.StartDate, loc)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid startDate")
		}
		filter.From = &from
	}
	if query.EndDate != "" {
		day, err := scheduling.ParseDate(query.EndDate, loc)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid endDate")
		}
		to := day.AddDate(0, 0, 1)
		filter.To = &to
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}

	items, total, err := s.appointments.List(ctx, scope, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list appointments")
	}
	if items == nil {
		items = []models.Appointment{}
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

func (s *BookingService) load(ctx context.Context, scope models.TenantScope, id string) (*models.Appointment, error) {
	appt, err := s.appointments.FindByID(ctx, scope, id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		case errors.Is(err, repository.ErrInvalidScope):
			return nil, appErrors.ErrUnauthorized
		default:
			return nil, appErrors.Internal(err, "failed to load appointment")
		}
	}
	return appt, nil
}

// ownedService resolves a service and rejects services of other tenants.
func (s *BookingService) ownedService(ctx context.Context, scope models.TenantScope, serviceID string) (*models.Service, error) {
	svc, err := s.catalog.Lookup(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if svc.OwnerID != scope.OwnerID() {
		return nil, appErrors.ErrForbiddenService
	}
	return svc, nil
}

func (s *BookingService) publish(ctx context.Context, eventType models.AppointmentEventType, appt *models.Appointment) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, models.AppointmentEvent{
		Type:        eventType,
		OccurredAt:  s.clock.Now(),
		Appointment: *appt,
	})
}

func outcomeOf(err error) string {
	if errors.Is(err, appErrors.ErrSlotUnavailable) {
		return OutcomeConflict
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) && appErr.Status < 500 {
		return OutcomeRejected
	}
	return OutcomeError
}
