package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/booking-api/internal/models"
)

const employeeColumns = `id, owner_id, name, email, created_at`

// EmployeeRepository reads employees.
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository creates a new employee repository.
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// FindByID loads an employee of the scoped tenant, or sql.ErrNoRows.
func (r *EmployeeRepository) FindByID(ctx context.Context, scope models.TenantScope, id string) (*models.Employee, error) {
	if !scope.Valid() {
		return nil, ErrInvalidScope
	}
	var emp models.Employee
	if err := r.db.GetContext(ctx, &emp, `SELECT `+employeeColumns+` FROM employees WHERE id = $1 AND owner_id = $2`, id, scope.OwnerID()); err != nil {
		return nil, err
	}
	return &emp, nil
}

// ListByOwner returns the tenant's employees.
func (r *EmployeeRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Employee, error) {
	var items []models.Employee
	if err := r.db.SelectContext(ctx, &items, `SELECT `+employeeColumns+` FROM employees WHERE owner_id = $1 ORDER BY name ASC`, ownerID); err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return items, nil
}
