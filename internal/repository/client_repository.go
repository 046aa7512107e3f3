package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/booking-api/internal/models"
)

const clientColumns = `id, owner_id, name, email, phone, created_at, updated_at`

// ClientRepository persists the tenant's clients.
type ClientRepository struct {
	db *sqlx.DB
}

// NewClientRepository creates a new client repository.
func NewClientRepository(db *sqlx.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// FindByID loads a client of the scoped tenant, or sql.ErrNoRows.
func (r *ClientRepository) FindByID(ctx context.Context, scope models.TenantScope, id string) (*models.Client, error) {
	if !scope.Valid() {
		return nil, ErrInvalidScope
	}
	var client models.Client
	if err := r.db.GetContext(ctx, &client, `SELECT `+clientColumns+` FROM clients WHERE id = $1 AND owner_id = $2`, id, scope.OwnerID()); err != nil {
		return nil, err
	}
	return &client, nil
}

// UpsertByPhone creates the client or refreshes name and email of the tenant client with the same phone.
// client.ID is set to the stored row id.
func (r *ClientRepository) UpsertByPhone(ctx context.Context, scope models.TenantScope, client *models.Client) error {
	if !scope.Valid() {
		return ErrInvalidScope
	}
	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	client.OwnerID = scope.OwnerID()
	client.CreatedAt = now
	client.UpdatedAt = now

	const query = `INSERT INTO clients (id, owner_id, name, email, phone, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (owner_id, phone) DO UPDATE SET name = EXCLUDED.name, email = COALESCE(EXCLUDED.email, clients.email), updated_at = EXCLUDED.updated_at
RETURNING id, created_at`
	row := r.db.QueryRowxContext(ctx, query, client.ID, client.OwnerID, client.Name, client.Email, client.Phone, client.CreatedAt, client.UpdatedAt)
	if err := row.Scan(&client.ID, &client.CreatedAt); err != nil {
		return fmt.Errorf("upsert client: %w", err)
	}
	return nil
}
