package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bestfriendai/NEWEVENTS-sub003/internal/monitoring"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/ratelimit"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/types"
)

func newTestRapidAPI(t *testing.T, handler http.HandlerFunc) (*RapidAPIAdapter, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	a := NewRapidAPIAdapter("test-key", ratelimit.NewProviderTracker(), monitoring.NewMetrics(), monitoring.NewLogger())
	a.baseURL = server.URL
	a.queryDelay = time.Millisecond
	return a, server
}

const rapidAPIBody = `{
	"data": [
		{
			"event_id": "evt-1",
			"name": "Summer Jazz Festival",
			"description": "An outdoor jazz concert",
			"start_time": "2026-09-12 19:30:00",
			"end_time": "2026-09-12 23:00:00",
			"tags": ["music", "jazz"],
			"venue": {
				"name": "Grant Park",
				"full_address": "337 E Randolph St, Chicago, IL",
				"latitude": 41.8756,
				"longitude": -87.6243,
				"subtype": "park"
			},
			"ticket_links": [{"source": "Ticketmaster", "link": "https://tm.com/e/1"}]
		},
		{
			"event_id": "",
			"name": "Malformed item without id"
		}
	]
}`

func TestRapidAPISearchNormalizesEvents(t *testing.T) {
	var gotKey, gotHost string
	a, _ := newTestRapidAPI(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-RapidAPI-Key")
		gotHost = r.Header.Get("X-RapidAPI-Host")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(rapidAPIBody))
	})

	events, err := a.Search(context.Background(), types.SearchRequest{
		Keyword:  "jazz",
		Location: "Chicago, IL",
	})

	require.NoError(t, err)
	require.Len(t, events, 1, "malformed items are skipped")

	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, rapidAPIHost, gotHost)

	e := events[0]
	assert.Equal(t, "Summer Jazz Festival", e.Title)
	assert.Equal(t, types.CategoryMusic, e.Category)
	assert.Equal(t, "September 12, 2026", e.Date)
	assert.Equal(t, "7:30 PM - 11:00 PM", e.Time)
	assert.Equal(t, "Grant Park", e.Location)
	require.NotNil(t, e.Coordinates)
	assert.InDelta(t, 41.8756, e.Coordinates.Lat, 0.0001)
	require.NotNil(t, e.Source)
	assert.Equal(t, "rapidapi", e.Source.Provider)
	assert.Equal(t, "evt-1", e.Source.OriginalID)
	assert.InDelta(t, 0.7, e.Source.Confidence, 0.0001)
	assert.True(t, e.AttendanceEstimated)
	assert.GreaterOrEqual(t, e.Attendees, 50)
	assert.Less(t, e.Attendees, 500)
}

func TestRapidAPISearchFansOutSynonymQueries(t *testing.T) {
	var queries []string
	a, _ := newTestRapidAPI(t, func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Query().Get("query"))
		w.Write([]byte(rapidAPIBody))
	})

	// No keyword triggers the synonym spread; duplicate event ids across
	// queries collapse to one event
	events, err := a.Search(context.Background(), types.SearchRequest{Location: "Chicago, IL"})

	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Len(t, queries, len(querySynonyms))
	assert.Equal(t, "events in Chicago, IL", queries[0])
}

func TestRapidAPISearchSurvivesFailedQuery(t *testing.T) {
	calls := 0
	a, _ := newTestRapidAPI(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			// Non-retryable failure on the first synonym query
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(rapidAPIBody))
	})

	events, err := a.Search(context.Background(), types.SearchRequest{Location: "Chicago, IL"})

	require.NoError(t, err, "one failed synonym query must not fail the search")
	assert.Len(t, events, 1)
}

func TestRapidAPISearchUnavailableWithoutKey(t *testing.T) {
	a := NewRapidAPIAdapter("", ratelimit.NewProviderTracker(), monitoring.NewMetrics(), monitoring.NewLogger())

	assert.False(t, a.Available())
	_, err := a.Search(context.Background(), types.SearchRequest{Location: "Chicago, IL"})
	assert.Error(t, err)
}

func TestRapidAPISearchBlockedByQuota(t *testing.T) {
	tracker := ratelimit.NewProviderTracker()
	tracker.SetQuota("rapidapi", ratelimit.ProviderQuota{MaxCalls: 0, Window: time.Minute})

	a := NewRapidAPIAdapter("test-key", tracker, monitoring.NewMetrics(), monitoring.NewLogger())

	_, err := a.Search(context.Background(), types.SearchRequest{Location: "Chicago, IL"})
	assert.Error(t, err)
}
