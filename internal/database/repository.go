package database

import (
	"fmt"
	"time"

	"github.com/bestfriendai/NEWEVENTS-sub003/internal/types"
)

// EventRecord is the flattened persisted form of a normalized event
type EventRecord struct {
	ID                  int
	Source              string
	ExternalID          string
	Title               string
	Description         string
	Category            string
	EventDate           string
	EventTime           string
	Venue               string
	Address             string
	Latitude            *float64
	Longitude           *float64
	Price               string
	ImageURL            string
	Organizer           string
	Attendees           int
	AttendanceEstimated bool
	TicketURL           string
	Confidence          float64
}

// Repository persists normalized events
type Repository struct {
	db *DB
}

// NewRepository creates an event repository over the database
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// FlattenEvent converts a normalized event into its persisted record form.
// The event must still carry source metadata.
func FlattenEvent(event types.NormalizedEvent) (EventRecord, error) {
	if event.Source == nil {
		return EventRecord{}, fmt.Errorf("event %q has no source metadata", event.Title)
	}

	record := EventRecord{
		ID:                  event.ID,
		Source:              event.Source.Provider,
		ExternalID:          event.Source.OriginalID,
		Title:               event.Title,
		Description:         event.Description,
		Category:            event.Category,
		EventDate:           event.Date,
		EventTime:           event.Time,
		Venue:               event.Location,
		Address:             event.Address,
		Price:               event.Price,
		ImageURL:            event.Image,
		Organizer:           event.Organizer.Name,
		Attendees:           event.Attendees,
		AttendanceEstimated: event.AttendanceEstimated,
		Confidence:          event.Source.Confidence,
	}

	if event.Coordinates != nil {
		lat, lng := event.Coordinates.Lat, event.Coordinates.Lng
		record.Latitude = &lat
		record.Longitude = &lng
	}
	if len(event.TicketLinks) > 0 {
		record.TicketURL = event.TicketLinks[0].Link
	}

	return record, nil
}

// UpsertEvent inserts or refreshes one event, keyed by (source, external_id)
func (r *Repository) UpsertEvent(record EventRecord) error {
	stmt, err := r.db.GetPreparedStatement("upsert_event")
	if err != nil {
		return err
	}

	now := time.Now()
	_, err = stmt.Exec(
		record.ID, record.Source, record.ExternalID, record.Title,
		record.Description, record.Category, record.EventDate,
		record.EventTime, record.Venue, record.Address,
		record.Latitude, record.Longitude, record.Price, record.ImageURL,
		record.Organizer, record.Attendees, record.AttendanceEstimated,
		record.TicketURL, record.Confidence, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert event %s/%s: %w", record.Source, record.ExternalID, err)
	}

	return nil
}

// UpsertEvents persists a batch, returning how many were written
func (r *Repository) UpsertEvents(events []types.NormalizedEvent) (int, error) {
	written := 0
	for _, event := range events {
		record, err := FlattenEvent(event)
		if err != nil {
			continue
		}
		if err := r.UpsertEvent(record); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// CountEvents returns the total number of persisted events
func (r *Repository) CountEvents() (int, error) {
	stmt, err := r.db.GetPreparedStatement("count_events")
	if err != nil {
		return 0, err
	}

	var count int
	if err := stmt.QueryRow().Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}
