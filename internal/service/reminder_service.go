package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/booking-api/internal/models"
	"github.com/noah-isme/booking-api/internal/scheduling"
	appErrors "github.com/noah-isme/booking-api/pkg/errors"
)

type reminderStore interface {
	ListDueReminders(ctx context.Context, from, to time.Time) ([]models.AppointmentDetail, error)
	MarkReminderSent(ctx context.Context, id string) error
}

type reminderNotifier interface {
	SendReminder(ctx context.Context, detail *models.AppointmentDetail) error
}

// ReminderService emails clients whose pending appointment falls on the next business day.
type ReminderService struct {
	store    reminderStore
	notifier reminderNotifier
	clock    scheduling.Clock
	location *time.Location
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewReminderService constructs the reminder sweep.
func NewReminderService(store reminderStore, notifier reminderNotifier, clock scheduling.Clock, location *time.Location, metrics *MetricsService, logger *zap.Logger) *ReminderService {
	if clock == nil {
		clock = scheduling.SystemClock{}
	}
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderService{store: store, notifier: notifier, clock: clock, location: location, metrics: metrics, logger: logger}
}

// RunOnce sends every due reminder and returns how many were delivered.
// A failed delivery stays unmarked and is retried by the next sweep.
func (s *ReminderService) RunOnce(ctx context.Context) (int, error) {
	_, todayEnd := scheduling.DayBounds(s.clock.Now(), s.location)
	from, to := scheduling.DayBounds(todayEnd, s.location)

	due, err := s.store.ListDueReminders(ctx, from, to)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to list due reminders")
	}

	sent := 0
	for i := range due {
		detail := &due[i]
		if err := s.notifier.SendReminder(ctx, detail); err != nil {
			s.metrics.RecordReminder(OutcomeError)
			s.logger.Warn("reminder delivery failed", zap.String("appointment_id", detail.ID), zap.Error(err))
			continue
		}
		if err := s.store.MarkReminderSent(ctx, detail.ID); err != nil {
			s.logger.Error("failed to mark reminder sent", zap.String("appointment_id", detail.ID), zap.Error(err))
		}
		s.metrics.RecordReminder(OutcomeSuccess)
		sent++
	}

	s.logger.Info("reminder sweep finished",
		zap.String("date", scheduling.LocalDate(from, s.location)),
		zap.Int("due", len(due)),
		zap.Int("sent", sent))
	return sent, nil
}

// Run sweeps immediately and then on every tick until ctx is done.
func (s *ReminderService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("reminder sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
