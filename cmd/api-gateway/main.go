package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	_ "github.com/noah-isme/booking-api/api/swagger"
	"github.com/noah-isme/booking-api/internal/handler"
	"github.com/noah-isme/booking-api/internal/middleware"
	"github.com/noah-isme/booking-api/internal/repository"
	"github.com/noah-isme/booking-api/internal/service"
	"github.com/noah-isme/booking-api/pkg/cache"
	"github.com/noah-isme/booking-api/pkg/config"
	"github.com/noah-isme/booking-api/pkg/database"
	"github.com/noah-isme/booking-api/pkg/events"
	"github.com/noah-isme/booking-api/pkg/logger"
	"github.com/noah-isme/booking-api/pkg/mail"
	corsmiddleware "github.com/noah-isme/booking-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/booking-api/pkg/middleware/requestid"
	"github.com/noah-isme/booking-api/pkg/telemetry"
)

// @title Booking API
// @version 1.0.0
// @description Appointment scheduling for service businesses: slot availability, booking, rescheduling and cancellation.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logr.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	loc, err := cfg.Booking.Location()
	if err != nil {
		return err
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, slot cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}
	validate := validator.New()

	appointmentRepo := repository.NewAppointmentRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	clientRepo := repository.NewClientRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	serviceRepo := repository.NewServiceRepository(db)

	cacheRepo := repository.NewCacheRepository(nil)
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient)
	}
	slotCache := service.NewCacheService(cacheRepo, metrics, cfg.Booking.SlotCacheTTL, logr, redisClient != nil)

	catalog := service.NewServiceCatalog(serviceRepo, employeeRepo, service.CatalogConfig{
		CacheSize: cfg.Booking.CatalogCacheSize,
		CacheTTL:  cfg.Booking.CatalogCacheTTL,
	}, logr)
	availability := service.NewAvailabilityService(availabilityRepo, appointmentRepo, catalog, slotCache, metrics, validate, logr, service.AvailabilityConfig{
		Location: loc,
		Step:     cfg.Booking.SlotStep,
		CacheTTL: cfg.Booking.SlotCacheTTL,
	})

	var sender mail.Sender = mail.NopSender{}
	if cfg.Mail.Enabled {
		sender = mail.NewSMTPSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.From)
	}
	notifications := service.NewNotificationService(appointmentRepo, sender, loc, logr)

	publisher := events.NewKafkaPublisher(events.KafkaConfig{Brokers: cfg.Events.Brokers, TopicPrefix: cfg.Events.TopicPrefix}, logr)
	defer publisher.Close() //nolint:errcheck

	dispatcher := service.NewEventDispatcher(service.EventDispatcherConfig{
		Workers:    cfg.Events.Workers,
		BufferSize: cfg.Events.BufferSize,
		MaxRetries: cfg.Events.MaxRetries,
	}, metrics, logr)
	dispatcher.Subscribe("notifications", notifications.HandleEvent)
	if publisher.Enabled() {
		dispatcher.Subscribe("kafka", service.KafkaEventHandler(publisher))
	}
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	bookings := service.NewBookingService(service.BookingDeps{
		Appointments: appointmentRepo,
		Clients:      clientRepo,
		Catalog:      catalog,
		Availability: availability,
		Events:       dispatcher,
		Cache:        slotCache,
		Metrics:      metrics,
		Validator:    validate,
		Logger:       logr,
	})
	exports := service.NewExportService(appointmentRepo, catalog, loc, validate, logr)
	auth := service.NewAuthService(service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.Telemetry.ServiceName,
	})

	if cfg.Reminders.Enabled {
		reminders := service.NewReminderService(appointmentRepo, notifications, nil, loc, metrics, logr)
		go reminders.Run(ctx, cfg.Reminders.Interval)
	}

	checks := map[string]handler.ReadinessCheck{"postgres": pingCheck(db)}
	if redisClient != nil {
		checks["redis"] = cache.ReadyCheck(redisClient)
	}
	if publisher.Enabled() {
		checks["kafka"] = events.ReadyCheck(cfg.Events.Brokers)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	handler.Routes{
		Appointments: handler.NewAppointmentHandler(bookings, exports),
		Public:       handler.NewPublicHandler(bookings, availability, catalog),
		Availability: handler.NewAvailabilityHandler(availability),
		Metrics:      handler.NewMetricsHandler(metrics, checks, logr),
	}.Register(r, cfg.APIPrefix, auth)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           otelhttp.NewHandler(r, "booking-api"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("timezone", loc.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func pingCheck(db *sqlx.DB) handler.ReadinessCheck {
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}
