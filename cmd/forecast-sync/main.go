package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	httpapi "github.com/i474232898/forecast-sync/internal/api/http"
	"github.com/i474232898/forecast-sync/internal/config"
	"github.com/i474232898/forecast-sync/internal/logfields"
	"github.com/i474232898/forecast-sync/internal/metrics"
	"github.com/i474232898/forecast-sync/internal/notify"
	"github.com/i474232898/forecast-sync/internal/scheduler"
	"github.com/i474232898/forecast-sync/internal/store"
	"github.com/i474232898/forecast-sync/internal/weather"
	"github.com/i474232898/forecast-sync/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", logfields.Error(err))
		os.Exit(1)
	}
	setupLogging(cfg)

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	db, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", slog.String("path", cfg.DBPath), logfields.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	prefs := db.Preferences()
	seed := store.Settings{
		Location:             cfg.Location(),
		Units:                weather.Units(cfg.Units),
		NotificationsEnabled: cfg.NotificationsEnabled,
	}
	if err := prefs.Seed(context.Background(), seed); err != nil {
		slog.Error("Failed to seed preferences", logfields.Error(err))
		os.Exit(1)
	}

	provider := providers.NewOpenWeatherProvider(httpClient, providers.OpenWeatherConfig{
		APIKey:  cfg.OpenWeatherAPIKey,
		BaseURL: cfg.OpenWeatherBaseURL,
		Days:    cfg.ForecastDays,
	})
	notifier := notify.NewLogNotifier(slog.Default())

	reg := prom.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheusRecorder(reg)

	opts := []weather.Option{weather.WithRecorder(recorder)}
	if cfg.NATSURL != "" {
		sink, err := notify.NewNATSDeviceSink(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			// The device hand-off is best effort; run without it.
			slog.Warn("NATS unavailable, device hand-off disabled", logfields.URL(cfg.NATSURL), logfields.Error(err))
		} else {
			defer sink.Close()
			opts = append(opts, weather.WithDeviceSink(sink))
		}
	}

	// Core service orchestrating provider, store and notifications.
	service := weather.NewService(db, provider, prefs, notifier, opts...)

	// Scheduler that periodically refreshes the stored forecast.
	sched := scheduler.New(cfg.SyncInterval, cfg.HTTPTimeout+30*time.Second, service)
	if err := sched.Start(); err != nil {
		slog.Error("Failed to start scheduler", logfields.Error(err))
		os.Exit(1)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "forecast-sync",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.HTTPTimeout + 30*time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "forecast-sync",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(reg)))

	httpapi.RegisterRoutes(app, service, prefs, notifier)

	go func() {
		slog.Info("HTTP server listening", slog.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("Fiber server stopped", logfields.Error(err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", logfields.Error(err))
	}
}

func setupLogging(cfg *config.AppConfig) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}
