package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/booking-api/internal/models"
	"github.com/noah-isme/booking-api/pkg/mail"
)

type appointmentDetailReader interface {
	FindDetail(ctx context.Context, id string) (*models.AppointmentDetail, error)
}

// NotificationService emails clients about their appointments.
type NotificationService struct {
	details  appointmentDetailReader
	sender   mail.Sender
	location *time.Location
	logger   *zap.Logger
}

// NewNotificationService constructs the notifier.
func NewNotificationService(details appointmentDetailReader, sender mail.Sender, location *time.Location, logger *zap.Logger) *NotificationService {
	if sender == nil {
		sender = mail.NopSender{}
	}
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{details: details, sender: sender, location: location, logger: logger}
}

// HandleEvent sends the confirmation matching the event type.
func (s *NotificationService) HandleEvent(ctx context.Context, event models.AppointmentEvent) error {
	detail, err := s.details.FindDetail(ctx, event.Appointment.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Info("skipping notification for deleted appointment", zap.String("appointment_id", event.Appointment.ID))
			return nil
		}
		return fmt.Errorf("load appointment detail: %w", err)
	}

	var subject, body string
	switch event.Type {
	case models.AppointmentEventCreated:
		subject = fmt.Sprintf("Appointment booked: %s", detail.ServiceName)
		body = s.render(detail, "your appointment is booked")
		if detail.CancelToken != "" {
			body += fmt.Sprintf("\nIf you can no longer attend, cancel with this code: %s\n", detail.CancelToken)
		}
	case models.AppointmentEventCancelled:
		subject = fmt.Sprintf("Appointment cancelled: %s", detail.ServiceName)
		body = s.render(detail, "your appointment has been cancelled")
	default:
		return nil
	}
	return s.send(ctx, detail, subject, body)
}

// SendReminder emails the day-before reminder.
func (s *NotificationService) SendReminder(ctx context.Context, detail *models.AppointmentDetail) error {
	subject := fmt.Sprintf("Reminder: %s tomorrow", detail.ServiceName)
	return s.send(ctx, detail, subject, s.render(detail, "this is a reminder of your appointment"))
}

func (s *NotificationService) send(ctx context.Context, detail *models.AppointmentDetail, subject, body string) error {
	if detail.ClientEmail == nil || strings.TrimSpace(*detail.ClientEmail) == "" {
		s.logger.Debug("client has no email, notification skipped", zap.String("appointment_id", detail.ID))
		return nil
	}
	if err := s.sender.Send(ctx, *detail.ClientEmail, subject, body); err != nil {
		return err
	}
	s.logger.Info("notification sent", zap.String("appointment_id", detail.ID), zap.String("subject", subject))
	return nil
}

func (s *NotificationService) render(detail *models.AppointmentDetail, lead string) string {
	start := detail.StartTime.In(s.location)
	end := detail.EndTime.In(s.location)
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n%s.\n\n", detail.ClientName, lead)
	fmt.Fprintf(&b, "Service:  %s\n", detail.ServiceName)
	fmt.Fprintf(&b, "With:     %s\n", detail.EmployeeName)
	fmt.Fprintf(&b, "When:     %s, %s - %s (%s)\n", start.Format("Monday 02 Jan 2006"), start.Format("15:04"), end.Format("15:04"), s.location.String())
	return b.String()
}
