package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/booking-api/internal/models"
	"github.com/noah-isme/booking-api/pkg/database"
)

const availabilityColumns = `id, employee_id, day_of_week, is_available, window_start, window_end, updated_at`

// AvailabilityRepository stores the weekly availability template of each employee.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository creates a new availability repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// FindByDay returns the template row for the employee and weekday, or sql.ErrNoRows.
func (r *AvailabilityRepository) FindByDay(ctx context.Context, employeeID string, dayOfWeek int) (*models.WeeklyAvailability, error) {
	query := `SELECT ` + availabilityColumns + ` FROM weekly_availability WHERE employee_id = $1 AND day_of_week = $2`
	var row models.WeeklyAvailability
	if err := r.db.GetContext(ctx, &row, query, employeeID, dayOfWeek); err != nil {
		return nil, err
	}
	return &row, nil
}

// ListByEmployee returns every stored day for the employee ordered Sunday first.
func (r *AvailabilityRepository) ListByEmployee(ctx context.Context, employeeID string) ([]models.WeeklyAvailability, error) {
	query := `SELECT ` + availabilityColumns + ` FROM weekly_availability WHERE employee_id = $1 ORDER BY day_of_week ASC`
	var rows []models.WeeklyAvailability
	if err := r.db.SelectContext(ctx, &rows, query, employeeID); err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return rows, nil
}

// Upsert writes the given days in one transaction. Days not present are left untouched.
func (r *AvailabilityRepository) Upsert(ctx context.Context, employeeID string, days []models.WeeklyAvailability) error {
	const query = `INSERT INTO weekly_availability (id, employee_id, day_of_week, is_available, window_start, window_end, updated_at)
VALUES (:id, :employee_id, :day_of_week, :is_available, :window_start, :window_end, :updated_at)
ON CONFLICT (employee_id, day_of_week) DO UPDATE SET is_available = EXCLUDED.is_available, window_start = EXCLUDED.window_start, window_end = EXCLUDED.window_end, updated_at = EXCLUDED.updated_at`

	now := time.Now().UTC()
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for i := range days {
			day := days[i]
			if day.ID == "" {
				day.ID = uuid.NewString()
			}
			day.EmployeeID = employeeID
			day.UpdatedAt = now
			if _, err := sqlx.NamedExecContext(ctx, tx, query, &day); err != nil {
				return fmt.Errorf("upsert day %d: %w", day.DayOfWeek, err)
			}
			days[i] = day
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert availability: %w", err)
	}
	return nil
}
