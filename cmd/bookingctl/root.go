package main

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/booking-api/internal/repository"
	"github.com/noah-isme/booking-api/internal/service"
	"github.com/noah-isme/booking-api/pkg/config"
	"github.com/noah-isme/booking-api/pkg/database"
	"github.com/noah-isme/booking-api/pkg/logger"
)

// env holds the process dependencies a command may open.
type env struct {
	loadConfig func() (*config.Config, error)
	openDB     func(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error)
	newLogger  func(cfg *config.Config) (*zap.Logger, error)
}

func defaultEnv() env {
	return env{loadConfig: config.Load, openDB: database.NewPostgres, newLogger: logger.New}
}

func newRootCmd(e env) *cobra.Command {
	root := &cobra.Command{
		Use:   "bookingctl",
		Short: "Operator tooling for the booking API",
		Long: `bookingctl runs maintenance tasks against the booking database using the
same configuration as the API server (.env file or environment variables).`,
		Version:      version,
		SilenceUsage: true,
	}
	root.SetVersionTemplate(`{{printf "bookingctl version %s\n" .Version}}`)

	root.AddCommand(newSlotsCmd(e))
	root.AddCommand(newRemindersCmd(e))
	root.AddCommand(newTokenCmd(e))
	return root
}

// bootstrap loads configuration, the logger and the database for commands that touch storage.
func (e env) bootstrap(ctx context.Context) (*config.Config, *zap.Logger, *sqlx.DB, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := e.newLogger(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := e.openDB(ctx, cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	return cfg, logr, db, nil
}

func newAvailability(cfg *config.Config, db *sqlx.DB, logr *zap.Logger) (*service.AvailabilityService, error) {
	loc, err := cfg.Booking.Location()
	if err != nil {
		return nil, err
	}
	catalog := service.NewServiceCatalog(repository.NewServiceRepository(db), repository.NewEmployeeRepository(db), service.CatalogConfig{
		CacheSize: cfg.Booking.CatalogCacheSize,
		CacheTTL:  cfg.Booking.CatalogCacheTTL,
	}, logr)
	cache := service.NewCacheService(repository.NewCacheRepository(nil), nil, 0, logr, false)
	return service.NewAvailabilityService(
		repository.NewAvailabilityRepository(db),
		repository.NewAppointmentRepository(db),
		catalog, cache, nil, validator.New(), logr,
		service.AvailabilityConfig{Location: loc, Step: cfg.Booking.SlotStep},
	), nil
}
