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

// tomtomResponse is the subset of the TomTom search payload we consume
type tomtomResponse struct {
	Results []struct {
		Position struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"position"`
	} `json:"results"`
}

// TomTomProvider geocodes through the TomTom Search API. It is the
// secondary provider behind Mapbox.
type TomTomProvider struct {
	apiKey  string
	baseURL string
	client  *resilience.HTTPClient
}

// NewTomTomProvider creates a TomTom geocoding provider
func NewTomTomProvider(apiKey string) *TomTomProvider {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 2,
	})

	return &TomTomProvider{
		apiKey:  apiKey,
		baseURL: "https://api.tomtom.com/search/2/geocode",
		client:  resilience.NewHTTPClient(8*time.Second, cb),
	}
}

// Name returns the provider name
func (t *TomTomProvider) Name() string {
	return "tomtom"
}

// Geocode resolves a location through TomTom. Returns nil coordinates when
// the query produces no result.
func (t *TomTomProvider) Geocode(ctx context.Context, location string) (*types.Coordinates, error) {
	if t.apiKey == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/%s.json?key=%s&limit=1",
		t.baseURL, url.PathEscape(location), url.QueryEscape(t.apiKey))

	resp, err := resilience.RetryHTTP(ctx, resilience.DefaultRetryConfig(), func() (*http.Response, error) {
		return t.client.Get(ctx, endpoint, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("tomtom geocode failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.NewHTTPError(resp.StatusCode, resp.Status)
	}

	var payload tomtomResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode tomtom response: %w", err)
	}

	if len(payload.Results) == 0 {
		return nil, nil
	}

	return &types.Coordinates{
		Lat: payload.Results[0].Position.Lat,
		Lng: payload.Results[0].Position.Lon,
	}, nil
}
