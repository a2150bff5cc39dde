package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/bestfriendai/NEWEVENTS-sub003/internal/types"
)

// EventProvider is the common contract every provider adapter implements.
// Search is non-throwing at the orchestrator boundary in the sense that a
// returned error only ever means "this provider contributed nothing" —
// the orchestrator logs it and continues with the other providers.
type EventProvider interface {
	// Name identifies the provider in source metadata and logs
	Name() string
	// Available reports whether the adapter is configured (API key present)
	Available() bool
	// Confidence is the trust weight used to break dedup ties
	Confidence() float64
	// Search runs one normalized search against the provider
	Search(ctx context.Context, req types.SearchRequest) ([]types.NormalizedEvent, error)
}

// formatEventDate renders a start timestamp as a display date
func formatEventDate(t time.Time) string {
	if t.IsZero() {
		return "Date TBA"
	}
	return t.Format("January 2, 2006")
}

// formatEventTime renders start/end timestamps as a display time range.
// Events without an end time render open-ended.
func formatEventTime(start, end time.Time) string {
	if start.IsZero() {
		return "Time TBA"
	}
	if end.IsZero() || !end.After(start) {
		return start.Format("3:04 PM") + " onwards"
	}
	return start.Format("3:04 PM") + " - " + end.Format("3:04 PM")
}

// estimateAttendees synthesizes a plausible attendance figure for providers
// that supply none. Derived from the native id so repeated fetches agree;
// callers must mark the event AttendanceEstimated.
func estimateAttendees(nativeID string) int {
	return 50 + types.EventID(nativeID)%450
}

// defaultOrganizer falls back to the venue name, then a generic label
func defaultOrganizer(venueName, provider string) types.Organizer {
	if venueName != "" && venueName != types.VenueTBA {
		return types.Organizer{Name: venueName}
	}
	return types.Organizer{Name: fmt.Sprintf("%s Event Organizer", provider)}
}

// parseFlexibleTime tries the timestamp layouts seen across providers
func parseFlexibleTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
