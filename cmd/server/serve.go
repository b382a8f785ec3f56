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
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ahmetcoskunkizilkaya/questlog/internal/catalog"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/config"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/logging"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/progression"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/routes"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	b, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	ctx := cmd.Context()

	// PostgreSQL log handler (ERROR+ async batch)
	stdout := logging.NewJSONHandler(os.Stdout, logging.ParseLevel(cfg.LogLevel))
	cleanupDone := make(chan struct{})
	defer close(cleanupDone)
	if b.db != nil {
		pgLogHandler := logging.NewPGHandler(b.db)
		defer pgLogHandler.Stop()
		slog.SetDefault(slog.New(logging.NewMultiHandler(stdout, pgLogHandler)))

		logging.StartCleanup(b.db, cfg.LogRetain, cleanupDone)
	} else {
		slog.SetDefault(slog.New(stdout))
	}

	// Catalog
	if cfg.SeedOnStart || cfg.StoreDriver == config.StoreDriverMemory {
		file, err := catalog.LoadFromFile(cfg.CatalogPath)
		if err != nil {
			return err
		}
		if err := catalog.Seed(ctx, b.store, file); err != nil {
			return err
		}
	}
	if !cfg.SystemAccountOff {
		if err := ensureSystemAccount(ctx, b.store, cfg.SystemEmail); err != nil {
			slog.Error("system account setup failed", "error", err)
		}
	}

	// Services
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	curve := progression.NewCurve(cfg.XPPerLevel)
	awards := progression.NewAwardPolicy(cfg.XPAwardPolicy, cfg.XPAwardFlat)
	slog.Info("progression configured", "xp_per_level", curve.XPPerLevel, "award_policy", cfg.XPAwardPolicy)

	authService := services.NewAuthService(b.store, cfg, curve, collector)
	userService := services.NewUserService(b.store, curve)
	questService := services.NewQuestService(b.store, catalog.NewCache(cfg.QuestCacheSize), curve, awards, collector)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	questHandler := handlers.NewQuestHandler(questService)
	healthHandler := handlers.NewHealthHandler(b.store, questService)
	adminHandler := handlers.NewAdminHandler(questService, cfg.CatalogPath)

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

	app := newApp(cfg, collector)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(registry)))
	routes.Setup(app, cfg, b.store, authHandler, userHandler, questHandler, healthHandler, adminHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	listenErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port)
		listenErr <- app.Listen(":" + cfg.Port)
	}()

	select {
	case <-quit:
		slog.Info("shutting down server...")
	case err := <-listenErr:
		slog.Error("server failed to start", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
	return nil
}

func newApp(cfg *config.Config, recorder metrics.Recorder) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
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
	app.Use(middleware.Metrics(recorder))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})
	return app
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			"error", err.Error(),
		)
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
