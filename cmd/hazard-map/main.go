package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/hazard-map/internal/api/http"
	"github.com/i474232898/hazard-map/internal/config"
	"github.com/i474232898/hazard-map/internal/hazard"
	"github.com/i474232898/hazard-map/internal/hazard/providers"
	applog "github.com/i474232898/hazard-map/internal/logger"
	"github.com/i474232898/hazard-map/internal/mapview"
	"github.com/i474232898/hazard-map/internal/observability"
	"github.com/i474232898/hazard-map/internal/scheduler"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := applog.New(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	metrics := observability.NewMetrics()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	backoff := providers.DefaultBackoff()
	backoff.MaxRetries = cfg.FetchMaxRetries

	heat := providers.NewGISTDAProvider(httpClient, cfg.HeatURL, backoff)
	rain := providers.NewThaiWaterProvider(httpClient, cfg.RainURL, backoff)

	defaultKind, err := hazard.ParseKind(cfg.DefaultDataset)
	if err != nil {
		zl.Warn("unknown DEFAULT_DATASET; using heat", zap.String("value", cfg.DefaultDataset))
		defaultKind = hazard.KindHeat
	}
	if cfg.APIKey == "" {
		zl.Warn("GISTDA_API_KEY is not set; heat fetches will be rejected")
	}

	layer := mapview.NewLayer(mapview.DefaultSettings())
	ctrl := hazard.NewController(heat, rain, layer, hazard.Options{
		DefaultKind: defaultKind,
		SidebarOpen: cfg.SidebarOpen,
		APIKey:      cfg.APIKey,
		Logger:      zl,
		Metrics:     metrics,
	})

	// Initial fetch for the default dataset; failures leave it empty.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.HTTPTimeout)
		defer cancel()
		ctrl.Start(ctx)
	}()

	sched := scheduler.New(ctrl, cfg.RefreshInterval, 2*cfg.HTTPTimeout, zl)
	if err := sched.Start(); err != nil {
		zl.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "hazard-map",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          2*cfg.HTTPTimeout + 5*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware.
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "hazard-map",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpapi.RegisterRoutes(app, ctrl, layer)

	go func() {
		zl.Info("http server listening", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			zl.Error("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zl.Error("error during shutdown", zap.Error(err))
	}
}
