package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/bestfriendai/NEWEVENTS-sub003/internal/resilience"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/types"
)

// mapboxResponse is the subset of the Mapbox geocoding payload we consume
type mapboxResponse struct {
	Features []struct {
		Center    []float64 `json:"center"` // [lng, lat]
		Relevance float64   `json:"relevance"`
	} `json:"features"`
}

// MapboxProvider geocodes through the Mapbox Geocoding API
type MapboxProvider struct {
	token   string
	baseURL string
	client  *resilience.HTTPClient
}

// NewMapboxProvider creates a Mapbox geocoding provider. An empty token
// yields a provider that declines every lookup.
func NewMapboxProvider(token string) *MapboxProvider {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 2,
	})

	return &MapboxProvider{
		token:   token,
		baseURL: "https://api.mapbox.com/geocoding/v5/mapbox.places",
		client:  resilience.NewHTTPClient(8*time.Second, cb),
	}
}

// Name returns the provider name
func (m *MapboxProvider) Name() string {
	return "mapbox"
}

// Geocode resolves a location through Mapbox. Returns nil coordinates when
// the query produces no feature.
func (m *MapboxProvider) Geocode(ctx context.Context, location string) (*types.Coordinates, error) {
	if m.token == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/%s.json?access_token=%s&limit=1",
		m.baseURL, url.PathEscape(location), url.QueryEscape(m.token))

	resp, err := resilience.RetryHTTP(ctx, resilience.DefaultRetryConfig(), func() (*http.Response, error) {
		return m.client.Get(ctx, endpoint, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("mapbox geocode failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, resilience.NewHTTPError(resp.StatusCode, resp.Status)
	}

	var payload mapboxResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode mapbox response: %w", err)
	}

	if len(payload.Features) == 0 || len(payload.Features[0].Center) < 2 {
		return nil, nil
	}

	return &types.Coordinates{
		Lat: payload.Features[0].Center[1],
		Lng: payload.Features[0].Center[0],
	}, nil
}
