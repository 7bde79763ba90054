package main

import (
	"context"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"newsletterapi/docs"
	"newsletterapi/internal/config"
	"newsletterapi/internal/database"
	"newsletterapi/internal/database/migration"
	"newsletterapi/internal/email"
	handlers "newsletterapi/internal/http/handler"
	"newsletterapi/internal/http/middleware"
	"newsletterapi/internal/otel"
	"newsletterapi/internal/repository/postgres"
	"newsletterapi/internal/service"
	"newsletterapi/internal/storage"
	"newsletterapi/internal/worker"
)

// @title Newsletter API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("invalid timezone %q: %v", cfg.Timezone, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry tracing (no-op unless OTEL_TRACES_ENABLED is set)
	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Printf("failed to shut down tracing: %v", err)
		}
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Object storage for published issue archives. Optional: without an
	// endpoint publishing still works, issues just are not archived.
	var objStore storage.Storage
	if cfg.Storage.Endpoint != "" {
		objStore, err = storage.NewMinIO(cfg.Storage)
		if err != nil {
			log.Fatalf("failed to initialize object storage: %v", err)
		}
	}

	emailClient, err := email.NewClient(cfg.Email)
	if err != nil {
		log.Fatalf("failed to initialize email client: %v", err)
	}

	// Initialize repositories and services
	subscriberRepo := postgres.NewSubscriberPostgres(db)
	tokenRepo := postgres.NewTokenPostgres(db)
	issueRepo := postgres.NewIssuePostgres(db)

	subscriptionSvc := service.NewSubscriptionService(subscriberRepo, tokenRepo, emailClient, cfg.BaseURL)
	newsletterSvc := service.NewNewsletterService(issueRepo, objStore)

	// Background delivery worker shares the default prometheus registry
	// with the HTTP middleware so /metrics exposes both.
	deliveryWorker, err := worker.NewDeliveryWorker(issueRepo, emailClient, cfg.Delivery, loc, prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to initialize delivery worker: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger(loc))
	app.Use(otelfiber.Middleware())

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to initialize prometheus middleware: %v", err)
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Admin endpoints are only exposed when credentials are configured.
	var adminGuard fiber.Handler
	if cfg.Admin.Username != "" && cfg.Admin.PasswordHash != "" {
		adminGuard = middleware.BasicAuth(cfg.Admin)
	}

	// Per-IP rate limiting of the public subscribe endpoint, enabled when
	// Redis is configured. The limiter fails open if Redis is unreachable.
	var subscribeLimiter fiber.Handler
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		subscribeLimiter = middleware.RateLimit(rdb, cfg.Redis.SubscribeLimit, time.Duration(cfg.Redis.WindowSec)*time.Second)
	}

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, handlers.RouteDeps{
		DB:               db,
		Subscriptions:    subscriptionSvc,
		Newsletters:      newsletterSvc,
		AdminGuard:       adminGuard,
		SubscribeLimiter: subscribeLimiter,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := deliveryWorker.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("delivery worker stopped: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("failed to shut down server: %v", err)
		}
	}()

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}

	<-workerDone
}
