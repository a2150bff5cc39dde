// Command populate runs one aggregated search and writes the surviving
// events into the local SQLite sink. Intended for seeding demo data and for
// offline inspection of provider output.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/bestfriendai/NEWEVENTS-sub003/internal/adapters"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/aggregator"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/database"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/geo"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/monitoring"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/ratelimit"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/resilience"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/types"
)

func main() {
	location := flag.String("location", "", "search location (city, address or \"lat, lng\")")
	keyword := flag.String("keyword", "", "optional search keyword")
	radius := flag.Float64("radius", 25, "search radius in miles")
	limit := flag.Int("limit", 0, "cap on events written (0 = no cap)")
	dataDir := flag.String("data-dir", getEnvOrDefault("DATA_DIR", "./data"), "directory for the SQLite database")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall run timeout")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if *location == "" {
		slog.Error("Missing required -location flag")
		flag.Usage()
		os.Exit(2)
	}

	db, err := database.NewDB(*dataDir)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := database.NewRepository(db)

	appMetrics := monitoring.NewMetrics()
	appLogger := monitoring.NewLogger()

	tracker := ratelimit.NewProviderTracker()
	providers := []adapters.EventProvider{
		adapters.NewRapidAPIAdapter(os.Getenv("RAPIDAPI_KEY"), tracker, appMetrics, appLogger),
		adapters.NewTicketmasterAdapter(os.Getenv("TICKETMASTER_API_KEY"), tracker, appMetrics, appLogger),
		adapters.NewEventbriteAdapter(os.Getenv("EVENTBRITE_TOKEN"), tracker, appMetrics, appLogger),
	}

	health := resilience.NewHealthRegistry()
	configured := 0
	for _, p := range providers {
		health.Register(p.Name(), p.Available())
		if p.Available() {
			configured++
		}
	}
	if configured == 0 {
		slog.Error("No provider API keys configured, nothing to fetch")
		os.Exit(1)
	}

	resolver := geo.NewResolver([]geo.Provider{
		geo.NewMapboxProvider(os.Getenv("MAPBOX_TOKEN")),
		geo.NewTomTomProvider(os.Getenv("TOMTOM_API_KEY")),
	}, appMetrics, appLogger)

	agg := aggregator.New(resolver, providers, health, appMetrics, appLogger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	events, err := agg.CollectAll(ctx, types.SearchRequest{
		Location:    *location,
		Keyword:     *keyword,
		RadiusMiles: *radius,
	})
	if err != nil {
		slog.Error("Aggregation failed", "error", err)
		os.Exit(1)
	}

	if *limit > 0 && len(events) > *limit {
		events = events[:*limit]
	}

	written, err := repo.UpsertEvents(events)
	if err != nil {
		slog.Error("Failed to persist events", "written", written, "error", err)
		os.Exit(1)
	}

	total, _ := repo.CountEvents()
	slog.Info("Population complete",
		"location", *location,
		"fetched", len(events),
		"written", written,
		"total_in_db", total)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
