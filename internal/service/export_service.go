package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/booking-api/internal/dto"
	"github.com/noah-isme/booking-api/internal/models"
	"github.com/noah-isme/booking-api/internal/scheduling"
	appErrors "github.com/noah-isme/booking-api/pkg/errors"
	"github.com/noah-isme/booking-api/pkg/export"
)

type agendaReader interface {
	ListDetailsForDay(ctx context.Context, scope models.TenantScope, employeeID string, from, to time.Time) ([]models.AppointmentDetail, error)
}

type renderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportResult is a rendered agenda document.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

var agendaHeaders = []string{"Start", "End", "Status", "Service", "Client", "Phone", "Email", "Notes"}

// ExportService renders an employee's daily agenda as CSV or PDF.
type ExportService struct {
	appointments agendaReader
	catalog      catalog
	renderers    map[export.Format]renderer
	location     *time.Location
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewExportService constructs an ExportService with the default CSV and landscape PDF renderers.
func NewExportService(appointments agendaReader, catalog catalog, location *time.Location, validate *validator.Validate, logger *zap.Logger) *ExportService {
	if location == nil {
		location = time.UTC
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		appointments: appointments,
		catalog:      catalog,
		renderers: map[export.Format]renderer{
			export.FormatCSV: export.NewCSVExporter(),
			export.FormatPDF: export.NewPDFExporter(true),
		},
		location:  location,
		validator: validate,
		logger:    logger,
	}
}

// Agenda renders the non-cancelled appointments of the employee on the requested local date.
func (s *ExportService) Agenda(ctx context.Context, scope models.TenantScope, query dto.AgendaQuery) (*ExportResult, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid agenda query")
	}
	format := export.Format(query.Format)
	if format == "" {
		format = export.FormatCSV
	}
	render, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", query.Format))
	}

	employee, err := s.catalog.Employee(ctx, scope, query.EmployeeID)
	if err != nil {
		return nil, err
	}
	day, err := scheduling.ParseDate(query.Date, s.location)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}
	from, to := scheduling.DayBounds(day, s.location)

	items, err := s.appointments.ListDetailsForDay(ctx, scope, employee.ID, from, to)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load agenda")
	}

	data := export.Dataset{
		Title:    fmt.Sprintf("Agenda %s", employee.Name),
		Subtitle: fmt.Sprintf("%s (%s) - %d appointments", query.Date, s.location.String(), len(items)),
		Headers:  agendaHeaders,
		Rows:     make([]map[string]string, 0, len(items)),
	}
	for _, item := range items {
		data.Rows = append(data.Rows, map[string]string{
			"Start":   scheduling.LocalClock(item.StartTime, s.location),
			"End":     scheduling.LocalClock(item.EndTime, s.location),
			"Status":  string(item.Status),
			"Service": item.ServiceName,
			"Client":  item.ClientName,
			"Phone":   item.ClientPhone,
			"Email":   deref(item.ClientEmail),
			"Notes":   deref(item.Notes),
		})
	}

	payload, err := render.Render(data)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render agenda")
	}
	s.logger.Debug("agenda exported", zap.String("employee_id", employee.ID), zap.String("format", string(format)), zap.Int("rows", len(items)))
	return &ExportResult{
		Filename:    fmt.Sprintf("agenda-%s-%s.%s", employee.ID, query.Date, format),
		ContentType: format.ContentType(),
		Data:        payload,
	}, nil
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
