// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/barbermaster/internal/admin"
	"github.com/carterperez-dev/barbermaster/internal/appointment"
	"github.com/carterperez-dev/barbermaster/internal/audit"
	"github.com/carterperez-dev/barbermaster/internal/auth"
	"github.com/carterperez-dev/barbermaster/internal/barber"
	"github.com/carterperez-dev/barbermaster/internal/catalog"
	"github.com/carterperez-dev/barbermaster/internal/config"
	"github.com/carterperez-dev/barbermaster/internal/core"
	"github.com/carterperez-dev/barbermaster/internal/health"
	"github.com/carterperez-dev/barbermaster/internal/licensing"
	"github.com/carterperez-dev/barbermaster/internal/metrics"
	"github.com/carterperez-dev/barbermaster/internal/middleware"
	"github.com/carterperez-dev/barbermaster/internal/notify"
	"github.com/carterperez-dev/barbermaster/internal/onboarding"
	"github.com/carterperez-dev/barbermaster/internal/scheduler"
	"github.com/carterperez-dev/barbermaster/internal/server"
	"github.com/carterperez-dev/barbermaster/internal/storage"
	"github.com/carterperez-dev/barbermaster/internal/verification"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen,gocyclo // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate && cfg.IsDevelopment() {
		if err := core.Migrate(ctx, db.DB.DB, "up"); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	if cfg.JWT.AutoGenerateKeys {
		created, keyErr := auth.EnsureKeyPair(cfg.JWT)
		if keyErr != nil {
			return keyErr
		}
		if created {
			logger.Warn("generated a new signing key pair",
				"path", cfg.JWT.PrivateKeyPath,
			)
		}
	}

	sessions, err := auth.NewSessionManager(cfg.JWT, redis.Client)
	if err != nil {
		return err
	}
	logger.Info("session manager initialized",
		"algorithm", "ES256",
		"key_id", sessions.KeyID(),
	)

	notifier, err := notify.New(cfg.Mail, logger)
	if err != nil {
		return err
	}

	var (
		registry          *metrics.Registry
		httpMetrics       *metrics.HTTPMetrics
		onboardingMetrics *metrics.OnboardingMetrics
		bookingMetrics    *metrics.BookingMetrics
		jobMetrics        *metrics.JobMetrics
	)
	if cfg.Metrics.Enabled {
		registry = metrics.NewRegistry()
		httpMetrics = registry.HTTP
		onboardingMetrics = registry.Onboarding
		bookingMetrics = registry.Bookings
		jobMetrics = registry.Jobs
	}

	healthDeps := []health.Dependency{
		{Name: "database", Checker: db},
		{Name: "redis", Checker: redis},
	}

	var images barber.ImageStore
	if cfg.Storage.Enabled {
		store, storeErr := storage.NewImageStore(ctx, cfg.Storage)
		if storeErr != nil {
			return storeErr
		}
		images = store
		healthDeps = append(healthDeps, health.Dependency{
			Name:     "storage",
			Checker:  store,
			Optional: true,
		})
		logger.Info("object storage enabled", "bucket", cfg.Storage.Bucket)
	}

	location, err := cfg.Appointments.Location()
	if err != nil {
		return fmt.Errorf("load appointments timezone: %w", err)
	}

	barberRepo := barber.NewRepository(db.DB)
	auditLog := audit.NewLog(audit.NewRepository(db.DB))

	codes := verification.NewRegistry(
		verification.NewRepository(db.DB),
		barberRepo,
		notifier,
		cfg.Onboarding,
		onboardingMetrics,
	)
	ledger := licensing.NewLedger(
		licensing.NewRepository(db.DB),
		cfg.License,
		onboardingMetrics,
	)
	orchestrator := onboarding.NewOrchestrator(
		onboarding.NewStore(db.DB),
		codes,
		ledger,
		notifier,
		auditLog,
		onboardingMetrics,
	)

	barberSvc := barber.NewService(barberRepo, sessions, images)
	appointmentSvc := appointment.NewService(
		appointment.NewStore(db.DB),
		location,
		auditLog,
		bookingMetrics,
	)
	services := catalog.NewCatalog(catalog.NewRepository(db.DB), auditLog)
	adminSvc := admin.NewService(admin.NewStore(db.DB), sessions)

	authHandler := auth.NewHandler(sessions)
	barberHandler := barber.NewHandler(barberSvc, cfg.Storage.MaxUploadSize)
	verificationHandler := verification.NewHandler(codes)
	onboardingHandler := onboarding.NewHandler(orchestrator)
	auditHandler := audit.NewHandler(auditLog)
	appointmentHandler := appointment.NewHandler(appointmentSvc)
	catalogHandler := catalog.NewHandler(services)
	healthHandler := health.NewHandler(healthDeps...)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Service:   adminSvc,
		Keys:      ledger,
		Tenants:   barberSvc,
		Deliverer: orchestrator,
		Stats: admin.StatsConfig{
			DBStats:    db.Stats,
			RedisStats: redis.PoolStats,
			DBPing:     db.Ping,
			RedisPing:  redis.Ping,
		},
	})

	var jobs *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		jobs, err = scheduler.New(codes, cfg.Scheduler.CleanupInterval, jobMetrics)
		if err != nil {
			return err
		}
		jobs.Start()
	}

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing(cfg.Otel.ServiceName))
	router.Use(middleware.Logger(logger, httpMetrics))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.Window(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)
	authHandler.RegisterRoutes(router)

	if registry != nil {
		router.Handle(cfg.Metrics.Path, registry.Handler())
	}

	authLimit := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit: middleware.Window(
			cfg.RateLimit.AuthRequests,
			cfg.RateLimit.AuthBurst,
			cfg.RateLimit.Window,
		),
		KeyFunc:  middleware.KeyByIPAndEndpoint,
		FailOpen: true,
	}).Handler

	authenticator := middleware.Authenticator(sessions)
	optionalAuth := middleware.OptionalAuth(sessions)
	licensed := []func(http.Handler) http.Handler{
		authenticator,
		middleware.RequireBarber,
		middleware.RequireActiveLicense(barberSvc),
	}

	router.Route("/api", func(r chi.Router) {
		r.Use(audit.CaptureIP)

		r.Route("/barber", func(r chi.Router) {
			verificationHandler.RegisterRoutes(r, authLimit)

			r.Group(func(r chi.Router) {
				r.Use(authLimit)
				onboardingHandler.RegisterRoutes(r, optionalAuth)
			})

			barberHandler.RegisterRoutes(r, authenticator, authLimit, authHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(authenticator)
				r.Use(middleware.RequireBarber)
				auditHandler.RegisterRoutes(r)
			})
		})

		adminHandler.RegisterRoutes(r, authenticator, authLimit, authHandler.Logout)
		appointmentHandler.RegisterRoutes(r, licensed...)
		catalogHandler.RegisterRoutes(r, licensed...)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()
	healthHandler.SetReady(true)

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if jobs != nil {
		if err := jobs.Stop(); err != nil {
			logger.Error("scheduler shutdown error", "error", err)
		}
	}

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
