package geo

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bestfriendai/NEWEVENTS-sub003/internal/cache"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/monitoring"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/types"
)

// Provider geocodes a free-text location. Implementations return nil
// coordinates (not an error) when they simply cannot resolve the input.
type Provider interface {
	Name() string
	Geocode(ctx context.Context, location string) (*types.Coordinates, error)
}

// coordPattern matches a raw "<lat>, <lng>" input
var coordPattern = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*$`)

// Resolver turns a free-text location into coordinates, trying providers
// in priority order with a 24-hour cache and a static city-table fallback.
type Resolver struct {
	providers []Provider
	cache     *cache.Cache
	metrics   *monitoring.Metrics
	logger    *monitoring.Logger
}

// NewResolver creates a resolver over the given provider chain. Providers
// are consulted in the order supplied; the static city table is always the
// last resort.
func NewResolver(providers []Provider, metrics *monitoring.Metrics, logger *monitoring.Logger) *Resolver {
	return &Resolver{
		providers: providers,
		cache:     cache.New(24 * time.Hour),
		metrics:   metrics,
		logger:    logger,
	}
}

// Resolve resolves a location string into coordinates. Returns nil when
// every provider fails; callers must treat nil as "cannot search".
func (r *Resolver) Resolve(ctx context.Context, location string) *types.Coordinates {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil
	}

	// Raw coordinate input needs no network call
	if coords := parseCoordinates(location); coords != nil {
		return coords
	}

	cacheKey := cache.Key(strings.ToLower(location))
	if data, found := r.cache.Get(cacheKey); found {
		var coords types.Coordinates
		if err := json.Unmarshal(data, &coords); err == nil {
			r.logger.GeocodeLogger(location, "cache", true, true)
			return &coords
		}
	}

	if r.metrics != nil {
		r.metrics.IncrementGeocodeLookup()
	}

	for _, provider := range r.providers {
		coords, err := provider.Geocode(ctx, location)
		if err != nil {
			r.logger.Warn("Geocoding provider failed",
				"provider", provider.Name(),
				"location", location,
				"error", err)
			continue
		}
		if coords == nil || !ValidCoordinates(*coords) {
			continue
		}

		if data, err := json.Marshal(coords); err == nil {
			r.cache.Set(cacheKey, data)
		}
		r.logger.GeocodeLogger(location, provider.Name(), false, true)
		return coords
	}

	// Last resort: static table of major-city coordinates
	if coords := lookupCity(location); coords != nil {
		if data, err := json.Marshal(coords); err == nil {
			r.cache.Set(cacheKey, data)
		}
		r.logger.GeocodeLogger(location, "static", false, true)
		return coords
	}

	r.logger.GeocodeLogger(location, "", false, false)
	return nil
}

// CacheStats exposes the geocode cache for health reporting
func (r *Resolver) CacheStats() map[string]interface{} {
	return r.cache.Stats()
}

// parseCoordinates parses a "<lat>, <lng>" pair, returning nil when the
// input is not a coordinate pair or is out of range.
func parseCoordinates(input string) *types.Coordinates {
	m := coordPattern.FindStringSubmatch(input)
	if m == nil {
		return nil
	}

	lat, err1 := strconv.ParseFloat(m[1], 64)
	lng, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return nil
	}

	coords := types.Coordinates{Lat: lat, Lng: lng}
	if !ValidCoordinates(coords) {
		return nil
	}
	return &coords
}
