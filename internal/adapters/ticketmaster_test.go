package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bestfriendai/NEWEVENTS-sub003/internal/monitoring"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/ratelimit"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/types"
)

const ticketmasterBody = `{
	"_embedded": {
		"events": [
			{
				"id": "tm-100",
				"name": "Championship Basketball Game",
				"url": "https://www.ticketmaster.com/event/tm-100",
				"info": "Season finale",
				"images": [
					{"url": "https://img.tm.com/small.jpg", "width": 205},
					{"url": "https://img.tm.com/large.jpg", "width": 1024}
				],
				"dates": {"start": {"dateTime": "2026-09-20T00:30:00Z"}},
				"classifications": [{"segment": {"name": "Sports"}, "genre": {"name": "Basketball"}}],
				"priceRanges": [{"currency": "USD", "min": 35, "max": 250}],
				"_embedded": {
					"venues": [
						{
							"name": "United Center",
							"address": {"line1": "1901 W Madison St"},
							"city": {"name": "Chicago"},
							"state": {"stateCode": "IL"},
							"location": {"latitude": "41.8807", "longitude": "-87.6742"}
						}
					]
				}
			}
		]
	}
}`

func newTestTicketmaster(t *testing.T, handler http.HandlerFunc) *TicketmasterAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	a := NewTicketmasterAdapter("tm-key", ratelimit.NewProviderTracker(), monitoring.NewMetrics(), monitoring.NewLogger())
	a.baseURL = server.URL
	return a
}

func TestTicketmasterSearchNormalizesEvents(t *testing.T) {
	var gotQuery map[string][]string
	a := newTestTicketmaster(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(ticketmasterBody))
	})

	events, err := a.Search(context.Background(), types.SearchRequest{
		Keyword:     "basketball",
		Coordinates: &types.Coordinates{Lat: 41.8781, Lng: -87.6298},
		RadiusMiles: 25,
	})

	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, []string{"tm-key"}, gotQuery["apikey"])
	assert.Equal(t, []string{"basketball"}, gotQuery["keyword"])
	assert.Equal(t, []string{"25"}, gotQuery["radius"])
	assert.Equal(t, []string{"miles"}, gotQuery["unit"])

	e := events[0]
	assert.Equal(t, "Championship Basketball Game", e.Title)
	assert.Equal(t, types.CategorySports, e.Category)
	assert.Equal(t, "$35 - $250", e.Price, "structured price ranges win over everything else")
	assert.Equal(t, "United Center", e.Location)
	assert.Equal(t, "1901 W Madison St, Chicago, IL", e.Address)
	require.NotNil(t, e.Coordinates)
	assert.InDelta(t, 41.8807, e.Coordinates.Lat, 0.0001)
	assert.Equal(t, "https://img.tm.com/large.jpg", e.Image, "widest image wins")
	require.Len(t, e.TicketLinks, 1)
	assert.Equal(t, "Ticketmaster", e.TicketLinks[0].Source)
	require.NotNil(t, e.Source)
	assert.InDelta(t, 0.9, e.Source.Confidence, 0.0001)
}

func TestTicketmasterSearchEmptyResult(t *testing.T) {
	a := newTestTicketmaster(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	events, err := a.Search(context.Background(), types.SearchRequest{Location: "Chicago"})

	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestTicketmasterSearchUpstreamError(t *testing.T) {
	a := newTestTicketmaster(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := a.Search(context.Background(), types.SearchRequest{Location: "Chicago"})
	assert.Error(t, err)
}

func TestTicketmasterUnavailableWithoutKey(t *testing.T) {
	a := NewTicketmasterAdapter("", ratelimit.NewProviderTracker(), monitoring.NewMetrics(), monitoring.NewLogger())

	assert.False(t, a.Available())
	_, err := a.Search(context.Background(), types.SearchRequest{Location: "Chicago"})
	assert.Error(t, err)
}
