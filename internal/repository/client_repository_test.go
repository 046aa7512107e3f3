package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/booking-api/internal/models"
)

func TestClientUpsertByPhoneReturnsStoredID(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewClientRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (owner_id, phone) DO UPDATE")).
		WithArgs(sqlmock.AnyArg(), "owner-1", "Luis", nil, "3001234567", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("client-existing", fixedNow))

	client := &models.Client{Name: "Luis", Phone: "3001234567"}
	require.NoError(t, repo.UpsertByPhone(context.Background(), models.NewTenantScope("owner-1"), client))
	assert.Equal(t, "client-existing", client.ID)
	assert.Equal(t, "owner-1", client.OwnerID)
	assert.Equal(t, fixedNow, client.CreatedAt)
}

func TestClientRepositoryRequiresScope(t *testing.T) {
	db, _, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewClientRepository(db)

	_, err := repo.FindByID(context.Background(), models.TenantScope{}, "client-1")
	assert.ErrorIs(t, err, ErrInvalidScope)
	assert.ErrorIs(t, repo.UpsertByPhone(context.Background(), models.TenantScope{}, &models.Client{}), ErrInvalidScope)
}

func TestServiceAndEmployeeListings(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	services := NewServiceRepository(db)
	employees := NewEmployeeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM services WHERE owner_id = $1 AND active = TRUE ORDER BY name ASC`)).
		WithArgs("owner-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "name", "duration_minutes", "price", "active", "created_at"}).
			AddRow("svc-1", "owner-1", "Corte", 30, 25000.0, true, fixedNow))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM employees WHERE id = $1 AND owner_id = $2`)).
		WithArgs("emp-1", "owner-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "name", "email", "created_at"}).
			AddRow("emp-1", "owner-1", "Ana", nil, fixedNow))

	items, err := services.ListActiveByOwner(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 30, items[0].DurationMinutes)

	emp, err := employees.FindByID(context.Background(), models.NewTenantScope("owner-1"), "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", emp.Name)
	assert.Nil(t, emp.Email)
}
