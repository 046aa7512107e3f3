package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/booking-api/internal/models"
	"github.com/noah-isme/booking-api/pkg/database"
)

var (
	// ErrSlotTaken means another non-cancelled appointment of the employee overlaps the interval.
	ErrSlotTaken = errors.New("employee already booked for an overlapping interval")
	// ErrStatusChanged means a conditional update found the row in a different status.
	ErrStatusChanged = errors.New("appointment status changed concurrently")
	// ErrInvalidScope is returned when a scoped method receives the zero TenantScope.
	ErrInvalidScope = errors.New("tenant scope required")
)

const appointmentColumns = `id, owner_id, employee_id, service_id, client_id, start_time, end_time, status, cancel_token, reminder_sent, notes, created_at, updated_at`

const appointmentDetailSelect = `SELECT a.id, a.owner_id, a.employee_id, a.service_id, a.client_id, a.start_time, a.end_time, a.status, a.cancel_token, a.reminder_sent, a.notes, a.created_at, a.updated_at,
	c.name AS client_name, c.email AS client_email, c.phone AS client_phone, s.name AS service_name, e.name AS employee_name
FROM appointments a
JOIN clients c ON c.id = a.client_id
JOIN services s ON s.id = a.service_id
JOIN employees e ON e.id = a.employee_id`

const (
	lockEmployeeQuery = `SELECT pg_advisory_xact_lock(hashtext($1))`

	overlapQuery = `SELECT id FROM appointments WHERE employee_id = $1 AND status <> 'CANCELLED' AND start_time < $3 AND end_time > $2 LIMIT 1 FOR UPDATE`

	overlapExcludingQuery = `SELECT id FROM appointments WHERE employee_id = $1 AND status <> 'CANCELLED' AND start_time < $3 AND end_time > $2 AND id <> $4 LIMIT 1 FOR UPDATE`

	insertAppointmentQuery = `INSERT INTO appointments (id, owner_id, employee_id, service_id, client_id, start_time, end_time, status, cancel_token, reminder_sent, notes, created_at, updated_at) VALUES (:id, :owner_id, :employee_id, :service_id, :client_id, :start_time, :end_time, :status, :cancel_token, :reminder_sent, :notes, :created_at, :updated_at)`

	rescheduleQuery = `UPDATE appointments SET service_id = $1, start_time = $2, end_time = $3, notes = $4, updated_at = $5 WHERE id = $6 AND owner_id = $7 AND status = $8`
)

// AppointmentRepository persists appointments and serialises bookings per employee.
type AppointmentRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewAppointmentRepository creates a new appointment repository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// FindByID loads an appointment owned by the scoped tenant.
func (r *AppointmentRepository) FindByID(ctx context.Context, scope models.TenantScope, id string) (*models.Appointment, error) {
	if !scope.Valid() {
		return nil, ErrInvalidScope
	}
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1 AND owner_id = $2`
	var appt models.Appointment
	if err := r.db.GetContext(ctx, &appt, query, id, scope.OwnerID()); err != nil {
		return nil, err
	}
	return &appt, nil
}

// FindByCancelToken loads the appointment a cancel token was issued for.
func (r *AppointmentRepository) FindByCancelToken(ctx context.Context, token models.CancelToken) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE cancel_token = $1`
	var appt models.Appointment
	if err := r.db.GetContext(ctx, &appt, query, token); err != nil {
		return nil, err
	}
	return &appt, nil
}

// FindDetail loads an appointment with client, service and employee names.
func (r *AppointmentRepository) FindDetail(ctx context.Context, id string) (*models.AppointmentDetail, error) {
	var detail models.AppointmentDetail
	if err := r.db.GetContext(ctx, &detail, appointmentDetailSelect+` WHERE a.id = $1`, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns the tenant's appointments with optional filtering and pagination.
func (r *AppointmentRepository) List(ctx context.Context, scope models.TenantScope, filter models.AppointmentFilter) ([]models.Appointment, int, error) {
	if !scope.Valid() {
		return nil, 0, ErrInvalidScope
	}
	base := "FROM appointments WHERE owner_id = $1"
	args := []interface{}{scope.OwnerID()}
	var conditions []string

	if filter.EmployeeID != "" {
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", len(args)+1))
		args = append(args, filter.EmployeeID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("start_time >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("start_time < $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY start_time ASC LIMIT %d OFFSET %d", appointmentColumns, base, size, offset)
	var items []models.Appointment
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}
	return items, total, nil
}

// ListForDay returns the employee's non-cancelled appointments intersecting [from, to), ordered by start.
func (r *AppointmentRepository) ListForDay(ctx context.Context, employeeID string, from, to time.Time) ([]models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE employee_id = $1 AND status <> 'CANCELLED' AND start_time < $3 AND end_time > $2 ORDER BY start_time ASC`
	var items []models.Appointment
	if err := r.db.SelectContext(ctx, &items, query, employeeID, from, to); err != nil {
		return nil, fmt.Errorf("list appointments for day: %w", err)
	}
	return items, nil
}

// ListDetailsForDay returns the tenant employee's agenda between from and to.
func (r *AppointmentRepository) ListDetailsForDay(ctx context.Context, scope models.TenantScope, employeeID string, from, to time.Time) ([]models.AppointmentDetail, error) {
	if !scope.Valid() {
		return nil, ErrInvalidScope
	}
	query := appointmentDetailSelect + ` WHERE a.owner_id = $1 AND a.employee_id = $2 AND a.status <> 'CANCELLED' AND a.start_time < $4 AND a.end_time > $3 ORDER BY a.start_time ASC`
	var items []models.AppointmentDetail
	if err := r.db.SelectContext(ctx, &items, query, scope.OwnerID(), employeeID, from, to); err != nil {
		return nil, fmt.Errorf("list agenda: %w", err)
	}
	return items, nil
}

// ListDueReminders returns pending appointments starting in [from, to) whose reminder was not sent.
func (r *AppointmentRepository) ListDueReminders(ctx context.Context, from, to time.Time) ([]models.AppointmentDetail, error) {
	query := appointmentDetailSelect + ` WHERE a.status = 'PENDING' AND a.reminder_sent = FALSE AND a.start_time >= $1 AND a.start_time < $2 ORDER BY a.start_time ASC`
	var items []models.AppointmentDetail
	if err := r.db.SelectContext(ctx, &items, query, from, to); err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	return items, nil
}

// MarkReminderSent flags the reminder as delivered.
func (r *AppointmentRepository) MarkReminderSent(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE appointments SET reminder_sent = TRUE, updated_at = $1 WHERE id = $2`, r.now(), id); err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return nil
}

// CreateIfFree inserts appt unless it overlaps a non-cancelled appointment of the same employee.
// The check and the insert run in one transaction holding the employee's advisory lock.
func (r *AppointmentRepository) CreateIfFree(ctx context.Context, appt *models.Appointment) error {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	now := r.now()
	appt.CreatedAt = now
	appt.UpdatedAt = now

	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := ensureFree(ctx, tx, appt.EmployeeID, appt.StartTime, appt.EndTime, ""); err != nil {
			return err
		}
		_, err := sqlx.NamedExecContext(ctx, tx, insertAppointmentQuery, appt)
		return err
	})
	return commitError("create appointment", err)
}

// RescheduleIfFree moves an existing appointment, re-running the overlap check against every
// other appointment of the employee. expected guards against concurrent status changes.
func (r *AppointmentRepository) RescheduleIfFree(ctx context.Context, scope models.TenantScope, appt *models.Appointment, expected models.AppointmentStatus) error {
	if !scope.Valid() {
		return ErrInvalidScope
	}
	appt.UpdatedAt = r.now()

	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := ensureFree(ctx, tx, appt.EmployeeID, appt.StartTime, appt.EndTime, appt.ID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, rescheduleQuery, appt.ServiceID, appt.StartTime, appt.EndTime, appt.Notes, appt.UpdatedAt, appt.ID, scope.OwnerID(), expected)
		if err != nil {
			return err
		}
		return expectOneRow(res, ErrStatusChanged)
	})
	return commitError("reschedule appointment", err)
}

// TransitionStatus moves a tenant appointment from one status to another if it is still in from.
func (r *AppointmentRepository) TransitionStatus(ctx context.Context, scope models.TenantScope, id string, from, to models.AppointmentStatus) error {
	if !scope.Valid() {
		return ErrInvalidScope
	}
	res, err := r.db.ExecContext(ctx, `UPDATE appointments SET status = $1, updated_at = $2 WHERE id = $3 AND owner_id = $4 AND status = $5`, to, r.now(), id, scope.OwnerID(), from)
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	return expectOneRow(res, ErrStatusChanged)
}

// CancelByToken cancels the token's appointment if it is still in from.
func (r *AppointmentRepository) CancelByToken(ctx context.Context, token models.CancelToken, from models.AppointmentStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE appointments SET status = 'CANCELLED', updated_at = $1 WHERE cancel_token = $2 AND status = $3`, r.now(), token, from)
	if err != nil {
		return fmt.Errorf("cancel appointment by token: %w", err)
	}
	return expectOneRow(res, ErrStatusChanged)
}

// Delete removes a tenant appointment.
func (r *AppointmentRepository) Delete(ctx context.Context, scope models.TenantScope, id string) error {
	if !scope.Valid() {
		return ErrInvalidScope
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1 AND owner_id = $2`, id, scope.OwnerID())
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	return expectOneRow(res, sql.ErrNoRows)
}

func ensureFree(ctx context.Context, tx *sqlx.Tx, employeeID string, start, end time.Time, ignoreID string) error {
	if _, err := tx.ExecContext(ctx, lockEmployeeQuery, employeeID); err != nil {
		return fmt.Errorf("lock employee: %w", err)
	}
	var ids []string
	var err error
	if ignoreID == "" {
		err = tx.SelectContext(ctx, &ids, overlapQuery, employeeID, start, end)
	} else {
		err = tx.SelectContext(ctx, &ids, overlapExcludingQuery, employeeID, start, end, ignoreID)
	}
	if err != nil {
		return fmt.Errorf("check overlap: %w", err)
	}
	if len(ids) > 0 {
		return ErrSlotTaken
	}
	return nil
}

func commitError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrSlotTaken), database.IsExclusionViolation(err):
		return ErrSlotTaken
	case errors.Is(err, ErrStatusChanged):
		return ErrStatusChanged
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func expectOneRow(res sql.Result, none error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return none
	}
	return nil
}
