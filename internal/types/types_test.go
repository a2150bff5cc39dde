package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventID(t *testing.T) {
	tests := []struct {
		name     string
		nativeID string
	}{
		{name: "plain id", nativeID: "tm-Z7r9jZ1AdJeZK"},
		{name: "numeric id", nativeID: "1234567890"},
		{name: "empty id", nativeID: ""},
		{name: "unicode id", nativeID: "évènement-42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := EventID(tt.nativeID)
			second := EventID(tt.nativeID)
			assert.Equal(t, first, second, "id must be stable across calls")
			assert.GreaterOrEqual(t, first, 0, "id must be a bounded non-negative integer")
		})
	}
}

func TestEventID_DistinctInputs(t *testing.T) {
	assert.NotEqual(t, EventID("event-a"), EventID("event-b"))
}

func TestStripInternal(t *testing.T) {
	events := []NormalizedEvent{
		{
			ID:    EventID("abc"),
			Title: "Jazz Night",
			Price: "Free",
			Source: &SourceInfo{
				Provider:    "ticketmaster",
				OriginalID:  "abc",
				Confidence:  0.9,
				LastUpdated: time.Now(),
			},
			RelevanceScore: 0.8,
			Distance:       3.2,
		},
	}

	stripped := StripInternal(events)

	assert.Nil(t, stripped[0].Source)
	assert.Zero(t, stripped[0].RelevanceScore)
	assert.Zero(t, stripped[0].Distance)
	assert.Equal(t, "Jazz Night", stripped[0].Title)
}

func TestSearchRequestNormalize(t *testing.T) {
	tests := []struct {
		name         string
		req          SearchRequest
		wantPage     int
		wantSize     int
		wantRadius   float64
	}{
		{name: "defaults applied", req: SearchRequest{}, wantPage: 1, wantSize: 20, wantRadius: 25},
		{name: "values preserved", req: SearchRequest{Page: 3, Size: 10, RadiusMiles: 5}, wantPage: 3, wantSize: 10, wantRadius: 5},
		{name: "size capped", req: SearchRequest{Size: 500}, wantPage: 1, wantSize: 100, wantRadius: 25},
		{name: "negative page reset", req: SearchRequest{Page: -2}, wantPage: 1, wantSize: 20, wantRadius: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Normalize()
			assert.Equal(t, tt.wantPage, tt.req.Page)
			assert.Equal(t, tt.wantSize, tt.req.Size)
			assert.Equal(t, tt.wantRadius, tt.req.RadiusMiles)
		})
	}
}

func TestErrorEnvelope(t *testing.T) {
	env := ErrorEnvelope("could not determine search location")

	assert.NotNil(t, env.Events)
	assert.Empty(t, env.Events)
	assert.Zero(t, env.TotalCount)
	assert.Zero(t, env.Page)
	assert.Zero(t, env.TotalPages)
	assert.Empty(t, env.Sources)
	assert.NotEmpty(t, env.Error)
}
