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
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/i474232898/weather-now/internal/api/http"
	"github.com/i474232898/weather-now/internal/config"
	"github.com/i474232898/weather-now/internal/geolocation"
	"github.com/i474232898/weather-now/internal/notify"
	"github.com/i474232898/weather-now/internal/observability"
	"github.com/i474232898/weather-now/internal/scheduler"
	"github.com/i474232898/weather-now/internal/store"
	"github.com/i474232898/weather-now/internal/weather"
	"github.com/i474232898/weather-now/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Shared HTTP client for outbound calls; per-request deadlines come from
	// FETCH_TIMEOUT and LOCATE_TIMEOUT.
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	// In-memory history with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	fetcher := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherBaseURL, cfg.OpenWeatherAPIKey, cfg.FetchTimeout)
	service := weather.NewService(fetcher, memStore, clockwork.NewRealClock(), metrics, log)

	advisories := notify.NewRecorder()
	notifier := notify.Multi{notify.LogNotifier{Logger: log}, advisories}

	poller := scheduler.New(service, newLocator(cfg, httpClient), notifier, scheduler.Config{
		Interval:      cfg.PollInterval,
		LocateTimeout: cfg.LocateTimeout,
		Fallback:      cfg.Fallback,
	}, metrics, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := poller.Start(ctx); err != nil {
		log.Error("failed to start poller", "error", err)
		os.Exit(1)
	}
	defer poller.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-now",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
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
			"service": "weather-now",
			"poller":  poller.Phase().String(),
		})
	})

	httpapi.RegisterRoutes(app, httpapi.Deps{
		State:      poller,
		History:    service,
		Advisories: advisories,
		Metrics:    promhttp.Handler(),
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", "error", err)
		}
	}()
	log.Info("http server listening", "port", cfg.Port)

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
	}
}

// newLocator picks the location source. A nil Locator means the host has
// no way to determine its position.
func newLocator(cfg *config.AppConfig, client *http.Client) geolocation.Locator {
	switch cfg.LocationSource {
	case config.SourceIP:
		return geolocation.NewIPLocator(client, cfg.IPAPIURL, cfg.LocateTimeout)
	case config.SourceAddress:
		return geolocation.NewAddressLocator(cfg.GeocoderAPIKey, cfg.LocationCity, cfg.LocationCountry, cfg.LocateTimeout)
	case config.SourceStatic:
		return geolocation.StaticLocator{Coord: cfg.Static}
	default:
		return nil
	}
}
