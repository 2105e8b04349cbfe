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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/i474232898/dashboard-data-aggregation/internal/api/http"
	"github.com/i474232898/dashboard-data-aggregation/internal/config"
	"github.com/i474232898/dashboard-data-aggregation/internal/dashboard"
	"github.com/i474232898/dashboard-data-aggregation/internal/finance"
	"github.com/i474232898/dashboard-data-aggregation/internal/metrics"
	"github.com/i474232898/dashboard-data-aggregation/internal/news"
	"github.com/i474232898/dashboard-data-aggregation/internal/providers"
	"github.com/i474232898/dashboard-data-aggregation/internal/query"
	"github.com/i474232898/dashboard-data-aggregation/internal/scheduler"
	"github.com/i474232898/dashboard-data-aggregation/internal/store"
	"github.com/i474232898/dashboard-data-aggregation/internal/weather"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Metrics registry exposed on /metrics.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	observer, err := metrics.NewCacheObserver(registry)
	if err != nil {
		log.Fatalf("failed to register cache metrics: %v", err)
	}

	// Providers with resilience (backoff + circuit breaker).
	retries := providers.WithMaxRetries(cfg.UpstreamMaxRetries)
	owm := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey, providers.WithBaseURL(cfg.OpenWeatherURL), retries)
	av := providers.NewAlphaVantageProvider(httpClient, cfg.AlphaVantageAPIKey, providers.WithBaseURL(cfg.AlphaVantageURL), retries)
	newsAPI := providers.NewNewsAPIProvider(httpClient, cfg.NewsAPIKey, providers.WithBaseURL(cfg.NewsAPIURL), retries)

	// One cache namespace per upstream.
	cacheOptions := func(c config.CacheConfig) query.Options {
		opts := c.Options()
		opts.Observer = observer
		return opts
	}
	weatherSvc := weather.NewService(owm, cacheOptions(cfg.Weather))
	financeSvc := finance.NewService(av, cacheOptions(cfg.Finance))
	newsSvc := news.NewService(newsAPI, cacheOptions(cfg.News))

	dash := dashboard.New(store.New(cfg.InitialState()), weatherSvc, financeSvc, newsSvc, dashboard.Options{
		WidgetWait:     cfg.WidgetWait,
		SearchDebounce: cfg.SearchDebounce,
	})
	registry.MustRegister(metrics.NewEntriesCollector(dash.Caches()...))

	dash.Mount()
	defer dash.Close()

	// Scheduler that sweeps unused entries and refreshes mounted widgets.
	sched := scheduler.New(dash, cfg.SweepInterval, cfg.RefreshInterval)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "dashboard-data-aggregation",
		DisableStartupMessage: true,
		Immutable:             true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.WidgetWait + 10*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "dashboard-data-aggregation",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// API routes.
	httpapi.RegisterRoutes(app, dash)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()
	log.Printf("INFO: dashboard listening on :%s", cfg.Port)

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
