package types

import (
	"hash/fnv"
	"time"
)

// Display values used when a provider omits a field. Filtering logic
// compares against these sentinels, so they must stay stable.
const (
	NoDescription = "No description available"
	VenueTBA      = "Venue TBA"
	PriceTBA      = "Price TBA"
)

// Display categories every provider response is classified into.
const (
	CategoryMusic      = "Music"
	CategoryArts       = "Arts"
	CategorySports     = "Sports"
	CategoryFood       = "Food"
	CategoryBusiness   = "Business"
	CategoryEvent      = "Event"
	CategoryClubEvents = "Club Events"
	CategoryDayParties = "Day Parties"
	CategoryParties    = "Parties"
)

// Categories returns the closed set of display categories.
func Categories() []string {
	return []string{
		CategoryMusic,
		CategoryArts,
		CategorySports,
		CategoryFood,
		CategoryBusiness,
		CategoryClubEvents,
		CategoryDayParties,
		CategoryParties,
		CategoryEvent,
	}
}

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// TicketLink points at a place to buy tickets or read more about an event.
type TicketLink struct {
	Source string `json:"source"`
	Link   string `json:"link"`
}

// Organizer describes who is putting on an event.
type Organizer struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// SourceInfo is aggregation-internal provenance for a normalized event.
// It is stripped before events leave the aggregator.
type SourceInfo struct {
	Provider    string    `json:"provider"`
	OriginalID  string    `json:"original_id"`
	Confidence  float64   `json:"confidence"`
	LastUpdated time.Time `json:"last_updated"`
}

// NormalizedEvent is the canonical event record all provider responses
// are mapped into.
type NormalizedEvent struct {
	ID                  int          `json:"id"`
	Title               string       `json:"title"`
	Description         string       `json:"description"`
	Category            string       `json:"category"`
	Date                string       `json:"date"`
	Time                string       `json:"time"`
	Location            string       `json:"location"`
	Address             string       `json:"address"`
	Coordinates         *Coordinates `json:"coordinates,omitempty"`
	Price               string       `json:"price"`
	Image               string       `json:"image,omitempty"`
	Organizer           Organizer    `json:"organizer"`
	Attendees           int          `json:"attendees"`
	AttendanceEstimated bool         `json:"attendance_estimated,omitempty"`
	TicketLinks         []TicketLink `json:"ticketLinks"`
	Tags                []string     `json:"tags,omitempty"`

	// Aggregation-internal fields, never serialized toward the UI.
	Source         *SourceInfo `json:"-"`
	RelevanceScore float64     `json:"-"`
	Distance       float64     `json:"-"` // miles from search origin, -1 when unknown
	StartTime      time.Time   `json:"-"`
}

// EventID derives a stable bounded integer id from a provider's native
// event id. Repeated fetches of the same source event always hash to the
// same value.
func EventID(nativeID string) int {
	h := fnv.New32a()
	h.Write([]byte(nativeID))
	return int(h.Sum32() & 0x7fffffff)
}

// StripInternal zeroes source metadata and scoring fields on a slice of
// events before they are handed to callers outside the aggregator.
func StripInternal(events []NormalizedEvent) []NormalizedEvent {
	for i := range events {
		events[i].Source = nil
		events[i].RelevanceScore = 0
		events[i].Distance = 0
	}
	return events
}

// Price preference values accepted in UserPreferences.
const (
	PriceAny  = "any"
	PriceFree = "free"
	PricePaid = "paid"
)

// Time-of-day preference values accepted in UserPreferences.
const (
	TimeAny       = "any"
	TimeMorning   = "morning"
	TimeAfternoon = "afternoon"
	TimeEvening   = "evening"
)

// UserPreferences tune filtering and scoring of aggregated results.
type UserPreferences struct {
	FavoriteCategories []string `json:"favoriteCategories,omitempty"`
	PricePreference    string   `json:"pricePreference,omitempty"`
	TimePreference     string   `json:"timePreference,omitempty"`
}

// PriceRange is an optional numeric filter on ticket prices.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// SearchRequest is the input to the aggregation pipeline. Radius and all
// derived distances are in miles.
type SearchRequest struct {
	Keyword     string           `json:"keyword,omitempty"`
	Location    string           `json:"location,omitempty"`
	Coordinates *Coordinates     `json:"coordinates,omitempty"`
	RadiusMiles float64          `json:"radiusMiles,omitempty"`
	Page        int              `json:"page,omitempty"`
	Size        int              `json:"size,omitempty"`
	SortBy      string           `json:"sortBy,omitempty"`
	PriceRange  *PriceRange      `json:"priceRange,omitempty"`
	Preferences *UserPreferences `json:"preferences,omitempty"`
}

// Normalize applies defaults so downstream code can rely on sane paging.
func (r *SearchRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Size < 1 {
		r.Size = 20
	}
	if r.Size > 100 {
		r.Size = 100
	}
	if r.RadiusMiles <= 0 {
		r.RadiusMiles = 25
	}
}

// ResultEnvelope is the sole output contract of the aggregator. It is
// always structurally valid; failures surface through the Error field.
type ResultEnvelope struct {
	Events     []NormalizedEvent `json:"events"`
	TotalCount int               `json:"totalCount"`
	Page       int               `json:"page"`
	TotalPages int               `json:"totalPages"`
	Sources    []string          `json:"sources"`
	Error      string            `json:"error,omitempty"`
}

// ErrorEnvelope builds the canonical empty envelope for a failed request.
func ErrorEnvelope(msg string) ResultEnvelope {
	return ResultEnvelope{
		Events:     []NormalizedEvent{},
		TotalCount: 0,
		Page:       0,
		TotalPages: 0,
		Sources:    []string{},
		Error:      msg,
	}
}
