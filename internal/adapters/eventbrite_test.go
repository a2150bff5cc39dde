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

const eventbriteBody = `{
	"events": [
		{
			"id": "eb-200",
			"name": {"text": "Community Yoga in the Park"},
			"description": {"text": "Morning flow for all levels"},
			"url": "https://www.eventbrite.com/e/eb-200",
			"start": {"utc": "2026-09-13T14:00:00Z"},
			"end": {"utc": "2026-09-13T15:00:00Z"},
			"is_free": true,
			"ticket_availability": {
				"minimum_ticket_price": {"major_value": "10.00", "currency": "USD"}
			},
			"venue": {
				"name": "Lincoln Park",
				"address": {"localized_address_display": "Lincoln Park, Chicago, IL"},
				"latitude": "41.9214",
				"longitude": "-87.6513"
			},
			"organizer": {"name": "Chicago Wellness Collective"}
		}
	]
}`

func newTestEventbrite(t *testing.T, handler http.HandlerFunc) *EventbriteAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	a := NewEventbriteAdapter("eb-token", ratelimit.NewProviderTracker(), monitoring.NewMetrics(), monitoring.NewLogger())
	a.baseURL = server.URL
	return a
}

func TestEventbriteSearchNormalizesEvents(t *testing.T) {
	var gotAuth string
	a := newTestEventbrite(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(eventbriteBody))
	})

	events, err := a.Search(context.Background(), types.SearchRequest{
		Coordinates: &types.Coordinates{Lat: 41.8781, Lng: -87.6298},
		RadiusMiles: 10,
	})

	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, "Bearer eb-token", gotAuth)

	e := events[0]
	assert.Equal(t, "Community Yoga in the Park", e.Title)
	assert.Equal(t, "Free", e.Price, "is_free beats the structured minimum price")
	assert.Equal(t, "Lincoln Park", e.Location)
	assert.Equal(t, "Chicago Wellness Collective", e.Organizer.Name)
	assert.Equal(t, "September 13, 2026", e.Date)
	assert.Equal(t, "2:00 PM - 3:00 PM", e.Time)
	require.NotNil(t, e.Coordinates)
	assert.InDelta(t, 41.9214, e.Coordinates.Lat, 0.0001)
	require.NotNil(t, e.Source)
	assert.Equal(t, "eventbrite", e.Source.Provider)
	assert.InDelta(t, 0.8, e.Source.Confidence, 0.0001)
}

func TestEventbriteSearchPaidEvent(t *testing.T) {
	body := `{
		"events": [
			{
				"id": "eb-300",
				"name": {"text": "Wine Tasting Evening"},
				"description": {"text": ""},
				"url": "https://www.eventbrite.com/e/eb-300",
				"start": {"utc": "2026-09-14T23:00:00Z"},
				"is_free": false,
				"ticket_availability": {
					"minimum_ticket_price": {"major_value": "45.00", "currency": "USD"},
					"maximum_ticket_price": {"major_value": "75.00"}
				}
			}
		]
	}`

	a := newTestEventbrite(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})

	events, err := a.Search(context.Background(), types.SearchRequest{Location: "Chicago"})

	require.NoError(t, err)
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, "$45 - $75", e.Price)
	assert.Equal(t, types.NoDescription, e.Description)
	assert.Equal(t, types.VenueTBA, e.Location)
	assert.Nil(t, e.Coordinates)
	assert.Equal(t, types.CategoryFood, e.Category)
}

func TestEventbriteSkipsMalformedEvents(t *testing.T) {
	body := `{"events": [{"id": "", "name": {"text": ""}}]}`
	a := newTestEventbrite(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})

	events, err := a.Search(context.Background(), types.SearchRequest{Location: "Chicago"})

	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEventbriteUnavailableWithoutToken(t *testing.T) {
	a := NewEventbriteAdapter("", ratelimit.NewProviderTracker(), monitoring.NewMetrics(), monitoring.NewLogger())

	assert.False(t, a.Available())
	_, err := a.Search(context.Background(), types.SearchRequest{Location: "Chicago"})
	assert.Error(t, err)
}
