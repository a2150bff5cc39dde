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

// ticketmasterResponse is the Discovery API search payload
type ticketmasterResponse struct {
	Embedded *struct {
		Events []ticketmasterEvent `json:"events"`
	} `json:"_embedded"`
}

// ticketmasterEvent is one raw Discovery API event
type ticketmasterEvent struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Info   string `json:"info"`
	Images []struct {
		URL   string `json:"url"`
		Width int    `json:"width"`
	} `json:"images"`
	Dates struct {
		Start struct {
			DateTime  string `json:"dateTime"`
			LocalDate string `json:"localDate"`
		} `json:"start"`
		End struct {
			DateTime string `json:"dateTime"`
		} `json:"end"`
	} `json:"dates"`
	Classifications []struct {
		Segment struct {
			Name string `json:"name"`
		} `json:"segment"`
		Genre struct {
			Name string `json:"name"`
		} `json:"genre"`
	} `json:"classifications"`
	PriceRanges []struct {
		Currency string  `json:"currency"`
		Min      float64 `json:"min"`
		Max      float64 `json:"max"`
	} `json:"priceRanges"`
	Embedded *struct {
		Venues []struct {
			Name    string `json:"name"`
			Address struct {
				Line1 string `json:"line1"`
			} `json:"address"`
			City struct {
				Name string `json:"name"`
			} `json:"city"`
			State struct {
				StateCode string `json:"stateCode"`
			} `json:"state"`
			Location struct {
				Latitude  string `json:"latitude"`
				Longitude string `json:"longitude"`
			} `json:"location"`
		} `json:"venues"`
	} `json:"_embedded"`
}

// TicketmasterAdapter searches the Ticketmaster Discovery API. It is the
// highest-confidence source since listings come straight from the primary
// ticket seller.
type TicketmasterAdapter struct {
	apiKey  string
	baseURL string
	client  *resilience.HTTPClient
	tracker *ratelimit.ProviderTracker
	metrics *monitoring.Metrics
	logger  *monitoring.Logger
}

// NewTicketmasterAdapter creates the Ticketmaster Discovery adapter
func NewTicketmasterAdapter(apiKey string, tracker *ratelimit.ProviderTracker, metrics *monitoring.Metrics, logger *monitoring.Logger) *TicketmasterAdapter {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 3,
	})

	return &TicketmasterAdapter{
		apiKey:  apiKey,
		baseURL: "https://app.ticketmaster.com/discovery/v2",
		client:  resilience.NewHTTPClient(12*time.Second, cb),
		tracker: tracker,
		metrics: metrics,
		logger:  logger,
	}
}

// Name returns the provider name
func (a *TicketmasterAdapter) Name() string { return "ticketmaster" }

// Available reports whether an API key is configured
func (a *TicketmasterAdapter) Available() bool { return a.apiKey != "" }

// Confidence is the dedup trust weight for this first-party source
func (a *TicketmasterAdapter) Confidence() float64 { return 0.9 }

// CircuitState exposes the breaker state for health reporting
func (a *TicketmasterAdapter) CircuitState() resilience.CircuitBreakerState {
	return a.client.CircuitState()
}

// Search runs one Discovery API search
func (a *TicketmasterAdapter) Search(ctx context.Context, req types.SearchRequest) ([]types.NormalizedEvent, error) {
	if !a.Available() {
		return nil, errors.NewConfigurationError("ticketmaster key not configured", nil)
	}
	if !a.tracker.Allow(a.Name()) {
		if a.metrics != nil {
			a.metrics.IncrementRateLimitProviderBlock()
		}
		return nil, errors.NewRateLimitError(a.Name(), time.Minute)
	}

	params := url.Values{}
	params.Set("apikey", a.apiKey)
	params.Set("size", "100")
	params.Set("sort", "date,asc")
	if req.Keyword != "" {
		params.Set("keyword", req.Keyword)
	}
	if req.Coordinates != nil {
		params.Set("latlong", fmt.Sprintf("%f,%f", req.Coordinates.Lat, req.Coordinates.Lng))
		params.Set("radius", strconv.Itoa(int(req.RadiusMiles)))
		params.Set("unit", "miles")
	} else if req.Location != "" {
		params.Set("city", req.Location)
	}

	endpoint := a.baseURL + "/events.json?" + params.Encode()

	if a.metrics != nil {
		a.metrics.IncrementProviderCall(a.Name())
	}

	start := time.Now()
	resp, err := resilience.RetryHTTP(ctx, resilience.ProviderRetryConfig(), func() (*http.Response, error) {
		return a.client.Get(ctx, endpoint, nil)
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

	var payload ticketmasterResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.NewExternalAPIError(a.Name(), fmt.Errorf("failed to decode response: %w", err))
	}

	var events []types.NormalizedEvent
	if payload.Embedded != nil {
		for _, item := range payload.Embedded.Events {
			if item.ID == "" || item.Name == "" {
				a.logger.Warn("Skipping malformed Ticketmaster event")
				continue
			}
			events = append(events, a.normalize(item))
		}
	}

	a.logger.ProviderLogger(a.Name(), len(events), time.Since(start), nil)
	return events, nil
}

// normalize maps one Discovery API event into the canonical shape
func (a *TicketmasterAdapter) normalize(item ticketmasterEvent) types.NormalizedEvent {
	startTime, ok := parseFlexibleTime(item.Dates.Start.DateTime)
	if !ok {
		startTime, _ = parseFlexibleTime(item.Dates.Start.LocalDate)
	}
	endTime, _ := parseFlexibleTime(item.Dates.End.DateTime)

	venueName := types.VenueTBA
	address := ""
	var coords *types.Coordinates
	if item.Embedded != nil && len(item.Embedded.Venues) > 0 {
		venue := item.Embedded.Venues[0]
		if venue.Name != "" {
			venueName = venue.Name
		}
		address = venue.Address.Line1
		if venue.City.Name != "" {
			if address != "" {
				address += ", "
			}
			address += venue.City.Name
			if venue.State.StateCode != "" {
				address += ", " + venue.State.StateCode
			}
		}
		lat, latErr := strconv.ParseFloat(venue.Location.Latitude, 64)
		lng, lngErr := strconv.ParseFloat(venue.Location.Longitude, 64)
		if latErr == nil && lngErr == nil && (lat != 0 || lng != 0) {
			coords = &types.Coordinates{Lat: lat, Lng: lng}
		}
	}

	var tags []string
	for _, c := range item.Classifications {
		if c.Segment.Name != "" {
			tags = append(tags, c.Segment.Name)
		}
		if c.Genre.Name != "" {
			tags = append(tags, c.Genre.Name)
		}
	}

	description := item.Info
	if description == "" {
		description = types.NoDescription
	}

	var ticketLinks []types.TicketLink
	if item.URL != "" {
		ticketLinks = append(ticketLinks, types.TicketLink{Source: "Ticketmaster", Link: item.URL})
	}

	var structured *StructuredPrice
	if len(item.PriceRanges) > 0 {
		structured = &StructuredPrice{
			Currency: item.PriceRanges[0].Currency,
			Min:      item.PriceRanges[0].Min,
			Max:      item.PriceRanges[0].Max,
		}
	}

	price := ExtractPrice(PriceInput{
		Structured:  structured,
		TicketLinks: ticketLinks,
		Name:        item.Name,
		Description: item.Info,
		VenueTier:   VenueTier(venueName),
		SourceName:  "Ticketmaster",
	})

	return types.NormalizedEvent{
		ID:                  types.EventID(item.ID),
		Title:               item.Name,
		Description:         description,
		Category:            Classify(tags, "", item.Name, item.Info, startTime),
		Date:                formatEventDate(startTime),
		Time:                formatEventTime(startTime, endTime),
		Location:            venueName,
		Address:             address,
		Coordinates:         coords,
		Price:               price,
		Image:               a.bestImage(item),
		Organizer:           defaultOrganizer(venueName, "Ticketmaster"),
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

// bestImage picks the widest image the listing offers
func (a *TicketmasterAdapter) bestImage(item ticketmasterEvent) string {
	best := ""
	bestWidth := 0
	for _, img := range item.Images {
		if img.Width > bestWidth {
			best = img.URL
			bestWidth = img.Width
		}
	}
	return best
}
