package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bestfriendai/NEWEVENTS-sub003/internal/errors"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/monitoring"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/ratelimit"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/resilience"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/types"
)

// eventbriteResponse is the Eventbrite search payload
type eventbriteResponse struct {
	Events []eventbriteEvent `json:"events"`
}

// eventbriteEvent is one raw Eventbrite event
type eventbriteEvent struct {
	ID   string `json:"id"`
	Name struct {
		Text string `json:"text"`
	} `json:"name"`
	Description struct {
		Text string `json:"text"`
	} `json:"description"`
	URL   string `json:"url"`
	Start struct {
		UTC string `json:"utc"`
	} `json:"start"`
	End struct {
		UTC string `json:"utc"`
	} `json:"end"`
	IsFree bool `json:"is_free"`
	Logo   *struct {
		URL string `json:"url"`
	} `json:"logo"`
	Venue *struct {
		Name    string `json:"name"`
		Address struct {
			LocalizedAddressDisplay string `json:"localized_address_display"`
		} `json:"address"`
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"venue"`
	Organizer *struct {
		Name string `json:"name"`
	} `json:"organizer"`
	TicketAvailability *struct {
		MinimumTicketPrice *struct {
			MajorValue string `json:"major_value"`
			Currency   string `json:"currency"`
		} `json:"minimum_ticket_price"`
		MaximumTicketPrice *struct {
			MajorValue string `json:"major_value"`
		} `json:"maximum_ticket_price"`
	} `json:"ticket_availability"`
	Category *struct {
		Name string `json:"name"`
	} `json:"category"`
}

// EventbriteAdapter searches the Eventbrite API with bearer-token auth
type EventbriteAdapter struct {
	token   string
	baseURL string
	client  *resilience.HTTPClient
	tracker *ratelimit.ProviderTracker
	metrics *monitoring.Metrics
	logger  *monitoring.Logger
}

// NewEventbriteAdapter creates the Eventbrite adapter
func NewEventbriteAdapter(token string, tracker *ratelimit.ProviderTracker, metrics *monitoring.Metrics, logger *monitoring.Logger) *EventbriteAdapter {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 3,
	})

	return &EventbriteAdapter{
		token:   token,
		baseURL: "https://www.eventbriteapi.com/v3",
		client:  resilience.NewHTTPClient(12*time.Second, cb),
		tracker: tracker,
		metrics: metrics,
		logger:  logger,
	}
}

// Name returns the provider name
func (a *EventbriteAdapter) Name() string { return "eventbrite" }

// Available reports whether a token is configured
func (a *EventbriteAdapter) Available() bool { return a.token != "" }

// Confidence is the dedup trust weight for this source
func (a *EventbriteAdapter) Confidence() float64 { return 0.8 }

// CircuitState exposes the breaker state for health reporting
func (a *EventbriteAdapter) CircuitState() resilience.CircuitBreakerState {
	return a.client.CircuitState()
}

// Search runs one Eventbrite event search
func (a *EventbriteAdapter) Search(ctx context.Context, req types.SearchRequest) ([]types.NormalizedEvent, error) {
	if !a.Available() {
		return nil, errors.NewConfigurationError("eventbrite token not configured", nil)
	}
	if !a.tracker.Allow(a.Name()) {
		if a.metrics != nil {
			a.metrics.IncrementRateLimitProviderBlock()
		}
		return nil, errors.NewRateLimitError(a.Name(), time.Minute)
	}

	params := url.Values{}
	params.Set("expand", "venue,organizer,ticket_availability,category")
	if req.Keyword != "" {
		params.Set("q", req.Keyword)
	}
	if req.Coordinates != nil {
		params.Set("location.latitude", fmt.Sprintf("%f", req.Coordinates.Lat))
		params.Set("location.longitude", fmt.Sprintf("%f", req.Coordinates.Lng))
		params.Set("location.within", fmt.Sprintf("%dmi", int(req.RadiusMiles)))
	} else if req.Location != "" {
		params.Set("location.address", req.Location)
	}

	endpoint := a.baseURL + "/events/search/?" + params.Encode()

	headers := map[string]string{
		"Authorization": "Bearer " + a.token,
	}

	if a.metrics != nil {
		a.metrics.IncrementProviderCall(a.Name())
	}

	start := time.Now()
	resp, err := resilience.RetryHTTP(ctx, resilience.ProviderRetryConfig(), func() (*http.Response, error) {
		return a.client.Get(ctx, endpoint, headers)
	})
	if err != nil {
		if a.metrics != nil {
			a.metrics.IncrementProviderFailure(a.Name())
		}
		a.logger.ProviderLogger(a.Name(), 0, time.Since(start), err)
		return nil, errors.NewExternalAPIError(a.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if a.metrics != nil {
			a.metrics.IncrementProviderFailure(a.Name())
		}
		return nil, errors.NewExternalAPIError(a.Name(), resilience.NewHTTPError(resp.StatusCode, resp.Status))
	}

	var payload eventbriteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.NewExternalAPIError(a.Name(), fmt.Errorf("failed to decode response: %w", err))
	}

	var events []types.NormalizedEvent
	for _, item := range payload.Events {
		if item.ID == "" || item.Name.Text == "" {
			a.logger.Warn("Skipping malformed Eventbrite event")
			continue
		}
		events = append(events, a.normalize(item))
	}

	a.logger.ProviderLogger(a.Name(), len(events), time.Since(start), nil)
	return events, nil
}

// normalize maps one Eventbrite event into the canonical shape
func (a *EventbriteAdapter) normalize(item eventbriteEvent) types.NormalizedEvent {
	startTime, _ := parseFlexibleTime(item.Start.UTC)
	endTime, _ := parseFlexibleTime(item.End.UTC)

	venueName := types.VenueTBA
	address := ""
	var coords *types.Coordinates
	if item.Venue != nil {
		if item.Venue.Name != "" {
			venueName = item.Venue.Name
		}
		address = item.Venue.Address.LocalizedAddressDisplay
		lat, latErr := strconv.ParseFloat(item.Venue.Latitude, 64)
		lng, lngErr := strconv.ParseFloat(item.Venue.Longitude, 64)
		if latErr == nil && lngErr == nil && (lat != 0 || lng != 0) {
			coords = &types.Coordinates{Lat: lat, Lng: lng}
		}
	}

	description := item.Description.Text
	if description == "" {
		description = types.NoDescription
	}

	var tags []string
	if item.Category != nil && item.Category.Name != "" {
		tags = append(tags, item.Category.Name)
	}

	var ticketLinks []types.TicketLink
	if item.URL != "" {
		ticketLinks = append(ticketLinks, types.TicketLink{Source: "Eventbrite", Link: item.URL})
	}

	// The free flag beats any structured price Eventbrite also reports
	var structured *StructuredPrice
	if item.TicketAvailability != nil && item.TicketAvailability.MinimumTicketPrice != nil {
		min, _ := strconv.ParseFloat(item.TicketAvailability.MinimumTicketPrice.MajorValue, 64)
		max := 0.0
		if item.TicketAvailability.MaximumTicketPrice != nil {
			max, _ = strconv.ParseFloat(item.TicketAvailability.MaximumTicketPrice.MajorValue, 64)
		}
		structured = &StructuredPrice{
			Currency: item.TicketAvailability.MinimumTicketPrice.Currency,
			Min:      min,
			Max:      max,
		}
	}

	price := ExtractPrice(PriceInput{
		IsFree:      item.IsFree,
		Structured:  structured,
		TicketLinks: ticketLinks,
		Name:        item.Name.Text,
		Description: item.Description.Text,
		VenueTier:   VenueTier(venueName),
		SourceName:  "Eventbrite",
	})

	organizer := defaultOrganizer(venueName, "Eventbrite")
	if item.Organizer != nil && item.Organizer.Name != "" {
		organizer = types.Organizer{Name: item.Organizer.Name}
	}

	image := ""
	if item.Logo != nil {
		image = item.Logo.URL
	}

	return types.NormalizedEvent{
		ID:                  types.EventID(item.ID),
		Title:               item.Name.Text,
		Description:         description,
		Category:            Classify(tags, "", item.Name.Text, item.Description.Text, startTime),
		Date:                formatEventDate(startTime),
		Time:                formatEventTime(startTime, endTime),
		Location:            venueName,
		Address:             address,
		Coordinates:         coords,
		Price:               price,
		Image:               image,
		Organizer:           organizer,
		Attendees:           estimateAttendees(item.ID),
		AttendanceEstimated: true,
		TicketLinks:         ticketLinks,
		Tags:                tags,
		Source: &types.SourceInfo{
			Provider:    a.Name(),
			OriginalID:  item.ID,
			Confidence:  a.Confidence(),
			LastUpdated: time.Now(),
		},
		StartTime: startTime,
		Distance:  -1,
	}
}
