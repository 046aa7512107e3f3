package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/booking-api/internal/models"
)

const serviceColumns = `id, owner_id, name, duration_minutes, price, active, created_at`

// ServiceRepository reads the service catalogue.
type ServiceRepository struct {
	db *sqlx.DB
}

// NewServiceRepository creates a new service repository.
func NewServiceRepository(db *sqlx.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

// FindByID loads a service regardless of owner so the caller can enforce tenancy.
func (r *ServiceRepository) FindByID(ctx context.Context, id string) (*models.Service, error) {
	var svc models.Service
	if err := r.db.GetContext(ctx, &svc, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &svc, nil
}

// ListActiveByOwner returns the bookable services of a tenant.
func (r *ServiceRepository) ListActiveByOwner(ctx context.Context, ownerID string) ([]models.Service, error) {
	var items []models.Service
	if err := r.db.SelectContext(ctx, &items, `SELECT `+serviceColumns+` FROM services WHERE owner_id = $1 AND active = TRUE ORDER BY name ASC`, ownerID); err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return items, nil
}
