package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/noah-isme/booking-api/internal/models"
	appErrors "github.com/noah-isme/booking-api/pkg/errors"
)

type serviceReader interface {
	FindByID(ctx context.Context, id string) (*models.Service, error)
	ListActiveByOwner(ctx context.Context, ownerID string) ([]models.Service, error)
}

type employeeReader interface {
	FindByID(ctx context.Context, scope models.TenantScope, id string) (*models.Employee, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Employee, error)
}

// CatalogConfig sizes the in-process service cache.
type CatalogConfig struct {
	CacheSize int
	CacheTTL  time.Duration
}

// ServiceCatalog resolves services by id with a bounded in-process cache in front of the store.
type ServiceCatalog struct {
	services  serviceReader
	employees employeeReader
	cache     *expirable.LRU[string, models.Service]
	logger    *zap.Logger
}

// NewServiceCatalog constructs the catalog.
func NewServiceCatalog(services serviceReader, employees employeeReader, cfg CatalogConfig, logger *zap.Logger) *ServiceCatalog {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 512
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ServiceCatalog{
		services:  services,
		employees: employees,
		cache:     expirable.NewLRU[string, models.Service](cfg.CacheSize, nil, cfg.CacheTTL),
		logger:    logger,
	}
}

// Lookup returns the service with its duration and owner, or ErrServiceNotFound.
func (c *ServiceCatalog) Lookup(ctx context.Context, serviceID string) (*models.Service, error) {
	if serviceID == "" {
		return nil, appErrors.ErrServiceNotFound
	}
	if svc, ok := c.cache.Get(serviceID); ok {
		return &svc, nil
	}

	svc, err := c.services.FindByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrServiceNotFound
		}
		return nil, appErrors.Internal(err, "failed to load service")
	}
	c.cache.Add(serviceID, *svc)
	return svc, nil
}

// Forget evicts a cached service.
func (c *ServiceCatalog) Forget(serviceID string) {
	c.cache.Remove(serviceID)
}

// ListServices returns the active services of a tenant.
func (c *ServiceCatalog) ListServices(ctx context.Context, ownerID string) ([]models.Service, error) {
	items, err := c.services.ListActiveByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list services")
	}
	if items == nil {
		items = []models.Service{}
	}
	return items, nil
}

// ListEmployees returns the employees of a tenant.
func (c *ServiceCatalog) ListEmployees(ctx context.Context, ownerID string) ([]models.Employee, error) {
	items, err := c.employees.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list employees")
	}
	if items == nil {
		items = []models.Employee{}
	}
	return items, nil
}

// Employee loads an employee of the scoped tenant, or ErrNotFound.
func (c *ServiceCatalog) Employee(ctx context.Context, scope models.TenantScope, employeeID string) (*models.Employee, error) {
	emp, err := c.employees.FindByID(ctx, scope, employeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Internal(err, "failed to load employee")
	}
	return emp, nil
}
