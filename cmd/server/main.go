package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/policy"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/storage"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/stores"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	stdout := logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Request-type policy
	policies, err := policy.LoadFromFile(cfg.RequestPolicyPath)
	if err != nil {
		slog.Error("failed to load request policy", "path", cfg.RequestPolicyPath, "error", err)
		os.Exit(1)
	}

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(db, cfg.LogFlushInterval)
	slog.SetDefault(slog.New(logging.NewMultiHandler(stdout, pgLogHandler)))

	cleanup, err := logging.StartCleanup(db, cfg.LogRetentionSchedule, cfg.LogRetentionDays)
	if err != nil {
		slog.Error("log cleanup not scheduled", "error", err)
		os.Exit(1)
	}

	// Document storage
	ctx := context.Background()
	var docs storage.Store
	switch cfg.StorageBackend {
	case "s3":
		docs, err = storage.NewS3StoreFromEnv(ctx, cfg.AWSRegion, cfg.S3Bucket)
	default:
		docs, err = storage.NewLocalStore(cfg.UploadDir)
	}
	if err != nil {
		slog.Error("document storage unavailable", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}

	// Rate-limit counters shared through Redis when configured
	var limiterStorage fiber.Storage
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			slog.Error("redis unavailable, rate limits stay in memory", "addr", cfg.RedisAddr, "error", err.Error())
			rdb.Close()
		} else {
			limiterStorage = middleware.NewRedisStorage(rdb, "welfare:limiter:")
			slog.Info("rate limiting backed by redis", "addr", cfg.RedisAddr)
		}
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Stores and services
	userStore := stores.NewUserStore(db)
	requestStore := stores.NewRequestStore(db)
	donationStore := stores.NewDonationStore(db)

	authService := services.NewAuthService(userStore, cfg, m)
	requestService := services.NewRequestService(requestStore, policies, docs, m)
	donationService := services.NewDonationService(donationStore, requestStore, m)
	analyticsService := services.NewAnalyticsService(requestStore, donationStore)

	if err := authService.EnsureAdmin(ctx, cfg); err != nil {
		slog.Error("admin bootstrap failed", "error", err)
		os.Exit(1)
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.MaxUploadBytes,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	routes.Setup(app, cfg, limiterStorage, registry, routes.Handlers{
		Auth:      handlers.NewAuthHandler(authService, cfg),
		Health:    handlers.NewHealthHandler(db),
		Requests:  handlers.NewRequestHandler(requestService),
		Donations: handlers.NewDonationHandler(donationService),
		Analytics: handlers.NewAnalyticsHandler(analyticsService),
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	<-cleanup.Stop().Done()
	if limiterStorage != nil {
		if err := limiterStorage.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}
