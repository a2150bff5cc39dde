package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/bestfriendai/NEWEVENTS-sub003/internal/errors"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/monitoring"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/ratelimit"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/resilience"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/types"
)

const rapidAPIHost = "real-time-events-search.p.rapidapi.com"

// querySynonyms widen coverage for the RapidAPI search, which only accepts
// coarse free-text queries.
var querySynonyms = []string{"events", "concerts", "shows", "festivals", "sports"}

// rapidAPIResponse is the raw search payload from the real-time events API
type rapidAPIResponse struct {
	Data []rapidAPIEvent `json:"data"`
}

// rapidAPIEvent is one raw item from the real-time events API
type rapidAPIEvent struct {
	EventID     string   `json:"event_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`
	Thumbnail   string   `json:"thumbnail"`
	Tags        []string `json:"tags"`
	Venue       *struct {
		Name        string  `json:"name"`
		FullAddress string  `json:"full_address"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
		Subtype     string  `json:"subtype"`
	} `json:"venue"`
	TicketLinks []struct {
		Source string `json:"source"`
		Link   string `json:"link"`
	} `json:"ticket_links"`
	InfoLinks []struct {
		Source string `json:"source"`
		Link   string `json:"link"`
	} `json:"info_links"`
}

// RapidAPIAdapter searches the RapidAPI real-time events API. Its search is
// coarse, so one request fans out into several synonym queries issued
// sequentially with a small delay to respect the provider's rate limits.
type RapidAPIAdapter struct {
	apiKey     string
	baseURL    string
	client     *resilience.HTTPClient
	tracker    *ratelimit.ProviderTracker
	metrics    *monitoring.Metrics
	logger     *monitoring.Logger
	queryDelay time.Duration
}

// NewRapidAPIAdapter creates the RapidAPI events adapter
func NewRapidAPIAdapter(apiKey string, tracker *ratelimit.ProviderTracker, metrics *monitoring.Metrics, logger *monitoring.Logger) *RapidAPIAdapter {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 3,
	})

	return &RapidAPIAdapter{
		apiKey:     apiKey,
		baseURL:    "https://" + rapidAPIHost,
		client:     resilience.NewHTTPClient(12*time.Second, cb),
		tracker:    tracker,
		metrics:    metrics,
		logger:     logger,
		queryDelay: 250 * time.Millisecond,
	}
}

// Name returns the provider name
func (a *RapidAPIAdapter) Name() string { return "rapidapi" }

// Available reports whether an API key is configured
func (a *RapidAPIAdapter) Available() bool { return a.apiKey != "" }

// Confidence is the dedup trust weight for this general-purpose source
func (a *RapidAPIAdapter) Confidence() float64 { return 0.7 }

// CircuitState exposes the breaker state for health reporting
func (a *RapidAPIAdapter) CircuitState() resilience.CircuitBreakerState {
	return a.client.CircuitState()
}

// Search fans the request out into deduplicated synonym queries and merges
// the results, keyed by native event id.
func (a *RapidAPIAdapter) Search(ctx context.Context, req types.SearchRequest) ([]types.NormalizedEvent, error) {
	if !a.Available() {
		return nil, errors.NewConfigurationError("rapidapi key not configured", nil)
	}
	if !a.tracker.Allow(a.Name()) {
		if a.metrics != nil {
			a.metrics.IncrementRateLimitProviderBlock()
		}
		return nil, errors.NewRateLimitError(a.Name(), time.Minute)
	}

	queries := a.buildQueries(req)

	seen := make(map[string]bool)
	var events []types.NormalizedEvent

	for i, query := range queries {
		if i > 0 {
			// Sequential throttle between synonym queries
			select {
			case <-ctx.Done():
				return events, nil
			case <-time.After(a.queryDelay):
			}
		}

		items, err := a.fetch(ctx, query)
		if err != nil {
			a.logger.Warn("RapidAPI query failed", "query", query, "error", err)
			continue
		}

		for _, item := range items {
			if item.EventID == "" || item.Name == "" {
				a.logger.Warn("Skipping malformed RapidAPI event", "query", query)
				continue
			}
			if seen[item.EventID] {
				continue
			}
			seen[item.EventID] = true
			events = append(events, a.normalize(item))
		}
	}

	return events, nil
}

// buildQueries produces the deduplicated query list for one request
func (a *RapidAPIAdapter) buildQueries(req types.SearchRequest) []string {
	location := req.Location
	if location == "" && req.Coordinates != nil {
		location = fmt.Sprintf("%f,%f", req.Coordinates.Lat, req.Coordinates.Lng)
	}

	if req.Keyword != "" {
		return []string{fmt.Sprintf("%s in %s", req.Keyword, location)}
	}

	seen := make(map[string]bool)
	var queries []string
	for _, synonym := range querySynonyms {
		q := fmt.Sprintf("%s in %s", synonym, location)
		if !seen[q] {
			seen[q] = true
			queries = append(queries, q)
		}
	}
	return queries
}

// fetch issues one search query with retry
func (a *RapidAPIAdapter) fetch(ctx context.Context, query string) ([]rapidAPIEvent, error) {
	endpoint := fmt.Sprintf("%s/search-events?query=%s&start=0", a.baseURL, url.QueryEscape(query))

	headers := map[string]string{
		"X-RapidAPI-Key":  a.apiKey,
		"X-RapidAPI-Host": rapidAPIHost,
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
		return nil, errors.NewExternalAPIError(a.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if a.metrics != nil {
			a.metrics.IncrementProviderFailure(a.Name())
		}
		return nil, errors.NewExternalAPIError(a.Name(), resilience.NewHTTPError(resp.StatusCode, resp.Status))
	}

	var payload rapidAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.NewExternalAPIError(a.Name(), fmt.Errorf("failed to decode response: %w", err))
	}

	a.logger.ProviderLogger(a.Name(), len(payload.Data), time.Since(start), nil)
	return payload.Data, nil
}

// normalize maps one raw item into the canonical event shape
func (a *RapidAPIAdapter) normalize(item rapidAPIEvent) types.NormalizedEvent {
	startTime, _ := parseFlexibleTime(item.StartTime)
	endTime, _ := parseFlexibleTime(item.EndTime)

	venueName := types.VenueTBA
	address := ""
	var coords *types.Coordinates
	subtype := ""
	if item.Venue != nil {
		if item.Venue.Name != "" {
			venueName = item.Venue.Name
		}
		address = item.Venue.FullAddress
		subtype = item.Venue.Subtype
		if item.Venue.Latitude != 0 || item.Venue.Longitude != 0 {
			coords = &types.Coordinates{Lat: item.Venue.Latitude, Lng: item.Venue.Longitude}
		}
	}

	description := item.Description
	if description == "" {
		description = types.NoDescription
	}

	var ticketLinks []types.TicketLink
	for _, link := range item.TicketLinks {
		ticketLinks = append(ticketLinks, types.TicketLink{Source: link.Source, Link: link.Link})
	}
	var infoLinks []types.TicketLink
	for _, link := range item.InfoLinks {
		infoLinks = append(infoLinks, types.TicketLink{Source: link.Source, Link: link.Link})
	}
	if len(ticketLinks) == 0 {
		// Fall back to informational links so the UI always has somewhere
		// to send the user
		ticketLinks = infoLinks
	}

	price := ExtractPrice(PriceInput{
		TicketLinks: ticketLinks,
		InfoLinks:   infoLinks,
		Name:        item.Name,
		Description: item.Description,
		VenueTier:   VenueTier(venueName),
		SourceName:  a.Name(),
	})

	return types.NormalizedEvent{
		ID:                  types.EventID(item.EventID),
		Title:               item.Name,
		Description:         description,
		Category:            Classify(item.Tags, subtype, item.Name, item.Description, startTime),
		Date:                formatEventDate(startTime),
		Time:                formatEventTime(startTime, endTime),
		Location:            venueName,
		Address:             address,
		Coordinates:         coords,
		Price:               price,
		Image:               item.Thumbnail,
		Organizer:           defaultOrganizer(venueName, "RapidAPI"),
		Attendees:           estimateAttendees(item.EventID),
		AttendanceEstimated: true,
		TicketLinks:         ticketLinks,
		Tags:                item.Tags,
		Source: &types.SourceInfo{
			Provider:    a.Name(),
			OriginalID:  item.EventID,
			Confidence:  a.Confidence(),
			LastUpdated: time.Now(),
		},
		StartTime: startTime,
		Distance:  -1,
	}
}
