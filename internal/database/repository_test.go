package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bestfriendai/NEWEVENTS-sub003/internal/types"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db)
}

func sampleEvent(provider, externalID, title string) types.NormalizedEvent {
	return types.NormalizedEvent{
		ID:          types.EventID(externalID),
		Title:       title,
		Description: "desc",
		Category:    types.CategoryMusic,
		Date:        "September 12, 2026",
		Time:        "7:00 PM onwards",
		Location:    "Grant Park",
		Address:     "337 E Randolph St",
		Coordinates: &types.Coordinates{Lat: 41.8756, Lng: -87.6243},
		Price:       "$20",
		Organizer:   types.Organizer{Name: "org"},
		Attendees:   120,
		TicketLinks: []types.TicketLink{{Source: provider, Link: "https://x.com/e/1"}},
		Source: &types.SourceInfo{
			Provider:    provider,
			OriginalID:  externalID,
			Confidence:  0.7,
			LastUpdated: time.Now(),
		},
	}
}

func TestFlattenEvent(t *testing.T) {
	record, err := FlattenEvent(sampleEvent("rapidapi", "evt-1", "Jazz Night"))

	require.NoError(t, err)
	assert.Equal(t, "rapidapi", record.Source)
	assert.Equal(t, "evt-1", record.ExternalID)
	assert.Equal(t, "Jazz Night", record.Title)
	assert.Equal(t, "Grant Park", record.Venue)
	require.NotNil(t, record.Latitude)
	assert.InDelta(t, 41.8756, *record.Latitude, 0.0001)
	assert.Equal(t, "https://x.com/e/1", record.TicketURL)
}

func TestFlattenEventRequiresSource(t *testing.T) {
	event := sampleEvent("rapidapi", "evt-1", "Jazz Night")
	event.Source = nil

	_, err := FlattenEvent(event)
	assert.Error(t, err)
}

func TestUpsertEventsInsertAndUpdate(t *testing.T) {
	repo := newTestRepository(t)

	written, err := repo.UpsertEvents([]types.NormalizedEvent{
		sampleEvent("rapidapi", "evt-1", "Jazz Night"),
		sampleEvent("ticketmaster", "tm-1", "Big Game"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	count, err := repo.CountEvents()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Same (source, external_id) updates in place instead of inserting
	updated := sampleEvent("rapidapi", "evt-1", "Jazz Night (Rescheduled)")
	written, err = repo.UpsertEvents([]types.NormalizedEvent{updated})
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	count, err = repo.CountEvents()
	require.NoError(t, err)
	assert.Equal(t, 2, count, "upsert must not create a duplicate row")
}

func TestUpsertEventsSkipsStrippedEvents(t *testing.T) {
	repo := newTestRepository(t)

	stripped := sampleEvent("rapidapi", "evt-9", "No Provenance")
	stripped.Source = nil

	written, err := repo.UpsertEvents([]types.NormalizedEvent{stripped})
	require.NoError(t, err)
	assert.Zero(t, written)
}
