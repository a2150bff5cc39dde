package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/bestfriendai/NEWEVENTS-sub003/internal/adapters"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/aggregator"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/cache"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/errors"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/geo"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/monitoring"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/ratelimit"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/resilience"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/security"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/types"
)

// circuitReporter is implemented by adapters whose breaker state should show
// up on /health
type circuitReporter interface {
	CircuitState() resilience.CircuitBreakerState
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Configuration from environment with defaults
	port := getEnvOrDefault("PORT", "8080")
	rapidAPIKey := os.Getenv("RAPIDAPI_KEY")
	ticketmasterKey := os.Getenv("TICKETMASTER_API_KEY")
	eventbriteToken := os.Getenv("EVENTBRITE_TOKEN")
	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	tomtomKey := os.Getenv("TOMTOM_API_KEY")
	redisURL := os.Getenv("REDIS_URL")

	appMetrics := monitoring.NewMetrics()
	appLogger := monitoring.NewLogger()

	// Provider call budgets, rolling windows
	tracker := ratelimit.NewProviderTracker()
	tracker.SetQuota("rapidapi", ratelimit.ProviderQuota{MaxCalls: 100, Window: time.Hour})
	tracker.SetQuota("ticketmaster", ratelimit.ProviderQuota{MaxCalls: 5000, Window: 24 * time.Hour})
	tracker.SetQuota("eventbrite", ratelimit.ProviderQuota{MaxCalls: 1000, Window: time.Hour})

	providers := []adapters.EventProvider{
		adapters.NewRapidAPIAdapter(rapidAPIKey, tracker, appMetrics, appLogger),
		adapters.NewTicketmasterAdapter(ticketmasterKey, tracker, appMetrics, appLogger),
		adapters.NewEventbriteAdapter(eventbriteToken, tracker, appMetrics, appLogger),
	}

	health := resilience.NewHealthRegistry()
	for _, p := range providers {
		health.Register(p.Name(), p.Available())
		if !p.Available() {
			slog.Warn("Provider not configured, searches will run without it", "provider", p.Name())
		}
	}

	resolver := geo.NewResolver([]geo.Provider{
		geo.NewMapboxProvider(mapboxToken),
		geo.NewTomTomProvider(tomtomKey),
	}, appMetrics, appLogger)

	agg := aggregator.New(resolver, providers, health, appMetrics, appLogger)

	// Distributed IP rate limiting with in-memory fallback when Redis is
	// absent
	redisClient, err := ratelimit.NewRedisClient(redisURL, "", 0)
	if err != nil {
		slog.Warn("Redis unavailable, using in-memory rate limiting", "error", err)
	}
	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.DefaultConfig(), appMetrics)

	secMiddleware := security.NewMiddleware(security.DefaultConfig())
	responseCache := cache.New(5 * time.Minute)

	r := gin.New()
	r.Use(monitoring.MonitoringMiddleware(appMetrics, appLogger))
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())
	r.Use(secMiddleware.Headers)
	r.Use(secMiddleware.RequestTimeout)
	r.Use(secMiddleware.LimitBodySize)
	r.Use(secMiddleware.ValidateContentType)

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.Use(ratelimit.Middleware(limiter, appMetrics))
	r.Use(responseCache.Middleware("/api/events/search", appMetrics))

	r.POST("/api/events/search", func(c *gin.Context) {
		var req types.SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			appErr := errors.NewValidationError("invalid search request body", err)
			c.JSON(appErr.HTTPStatus, types.ErrorEnvelope(appErr.ErrBuilder.Msg))
			return
		}

		// The envelope contract: pipeline failures are HTTP 200 with the
		// error inside the envelope
		envelope := agg.Aggregate(c.Request.Context(), req)
		c.JSON(http.StatusOK, envelope)
	})

	r.GET("/api/events/categories", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"categories": types.Categories()})
	})

	r.GET("/health", func(c *gin.Context) {
		providerHealth := health.Snapshot()

		circuits := make(map[string]string)
		for _, p := range providers {
			if reporter, ok := p.(circuitReporter); ok {
				circuits[p.Name()] = reporter.CircuitState().String()
			}
		}

		response := gin.H{
			"status":           "ok",
			"timestamp":        time.Now().Format(time.RFC3339),
			"providers":        providerHealth,
			"circuit_breakers": circuits,
			"provider_quotas":  tracker.Stats(),
			"cache":            responseCache.Stats(),
			"rate_limiter":     limiter.GetStats(),
			"metrics":          appMetrics.GetStats(),
		}

		if health.AnyEmergency() {
			response["status"] = "degraded"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}

		c.JSON(http.StatusOK, response)
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
