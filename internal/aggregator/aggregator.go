package aggregator

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bestfriendai/NEWEVENTS-sub003/internal/adapters"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/dedup"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/geo"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/monitoring"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/resilience"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/scoring"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/types"
)

const defaultAdapterTimeout = 20 * time.Second

// Aggregator orchestrates the full search pipeline: geocode the origin, fan
// out to every configured provider, then dedupe, filter, score, sort and
// paginate the combined results.
type Aggregator struct {
	resolver  *geo.Resolver
	providers []adapters.EventProvider
	deduper   *dedup.Engine
	scorer    *scoring.Scorer
	health    *resilience.HealthRegistry
	metrics   *monitoring.Metrics
	logger    *monitoring.Logger

	adapterTimeout time.Duration
}

// New creates an aggregator over the given provider set
func New(resolver *geo.Resolver, providers []adapters.EventProvider, health *resilience.HealthRegistry, metrics *monitoring.Metrics, logger *monitoring.Logger) *Aggregator {
	return &Aggregator{
		resolver:       resolver,
		providers:      providers,
		deduper:        dedup.NewEngine(metrics, logger),
		scorer:         scoring.NewScorer(),
		health:         health,
		metrics:        metrics,
		logger:         logger,
		adapterTimeout: defaultAdapterTimeout,
	}
}

// Aggregate runs one search through the pipeline. It never returns an
// error: failures surface inside the envelope, which is always structurally
// valid.
func (a *Aggregator) Aggregate(ctx context.Context, req types.SearchRequest) types.ResultEnvelope {
	events, sources, envelope := a.collect(ctx, &req)
	if envelope != nil {
		return *envelope
	}

	total := len(events)
	totalPages := 0
	if total > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(req.Size)))
	}

	page := paginate(events, req.Page, req.Size)

	return types.ResultEnvelope{
		Events:     types.StripInternal(page),
		TotalCount: total,
		Page:       req.Page,
		TotalPages: totalPages,
		Sources:    sources,
	}
}

// collect runs the pipeline up to (but not including) pagination and
// stripping, returning the full scored and sorted result set with source
// metadata intact. The population tool uses it directly. A non-nil envelope
// means the pipeline failed fast.
func (a *Aggregator) collect(ctx context.Context, req *types.SearchRequest) ([]types.NormalizedEvent, []string, *types.ResultEnvelope) {
	req.Normalize()

	origin := req.Coordinates
	if origin == nil && req.Location != "" {
		origin = a.resolver.Resolve(ctx, req.Location)
		if origin == nil {
			env := types.ErrorEnvelope("could not determine search location")
			return nil, nil, &env
		}
	}
	req.Coordinates = origin

	if a.metrics != nil {
		a.metrics.IncrementSearch()
	}

	start := time.Now()
	results := a.fanOut(ctx, *req)

	var combined []types.NormalizedEvent
	for _, events := range results {
		combined = append(combined, events...)
	}

	if origin != nil {
		tagDistances(combined, *origin)
	}

	combined = a.deduper.Deduplicate(combined)
	combined = applyFilters(combined, req)

	a.scorer.ScoreAll(combined, req.Preferences)
	sortEvents(combined)

	sources := contributingSources(combined)
	if a.logger != nil {
		a.logger.SearchLogger(req.Location, req.Keyword, len(combined), sources, time.Since(start))
	}

	return combined, sources, nil
}

// CollectAll runs the pipeline and returns every surviving event with its
// source metadata still attached, ignoring pagination. Used by offline
// tooling that needs provenance for persistence.
func (a *Aggregator) CollectAll(ctx context.Context, req types.SearchRequest) ([]types.NormalizedEvent, error) {
	events, _, envelope := a.collect(ctx, &req)
	if envelope != nil && envelope.Error != "" {
		return nil, &PipelineError{Message: envelope.Error}
	}
	return events, nil
}

// PipelineError reports a fail-fast pipeline failure to offline callers
type PipelineError struct {
	Message string
}

func (e *PipelineError) Error() string { return e.Message }

// fanOut queries every available adapter concurrently and waits for all of
// them to settle. Each adapter writes into its own slot; a panicking or
// failing adapter contributes an empty slot and never takes the search down.
func (a *Aggregator) fanOut(ctx context.Context, req types.SearchRequest) [][]types.NormalizedEvent {
	results := make([][]types.NormalizedEvent, len(a.providers))

	var wg sync.WaitGroup
	for i, provider := range a.providers {
		if !provider.Available() {
			continue
		}

		wg.Add(1)
		go func(slot int, p adapters.EventProvider) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					if a.logger != nil {
						a.logger.Error("Provider adapter panicked", "provider", p.Name(), "panic", r)
					}
					if a.health != nil {
						a.health.RecordFailure(p.Name())
					}
				}
			}()

			callCtx, cancel := context.WithTimeout(ctx, a.adapterTimeout)
			defer cancel()

			events, err := p.Search(callCtx, req)
			if err != nil {
				if a.logger != nil {
					a.logger.Warn("Provider search failed", "provider", p.Name(), "error", err)
				}
				if a.health != nil {
					a.health.RecordFailure(p.Name())
				}
				return
			}

			if a.health != nil {
				a.health.RecordSuccess(p.Name())
			}
			results[slot] = events
		}(i, provider)
	}
	wg.Wait()

	return results
}

// tagDistances computes each event's distance from the search origin.
// Events without coordinates keep the unknown marker and sort last.
func tagDistances(events []types.NormalizedEvent, origin types.Coordinates) {
	for i := range events {
		if events[i].Coordinates == nil {
			events[i].Distance = -1
			continue
		}
		events[i].Distance = geo.HaversineMiles(origin, *events[i].Coordinates)
	}
}

// applyFilters drops events the request's hard filters exclude
func applyFilters(events []types.NormalizedEvent, req *types.SearchRequest) []types.NormalizedEvent {
	filtered := events[:0]
	for _, event := range events {
		if !matchesPricePreference(event, req) {
			continue
		}
		if !matchesTimePreference(event, req.Preferences) {
			continue
		}
		if req.RadiusMiles > 0 && event.Distance > req.RadiusMiles {
			continue
		}
		filtered = append(filtered, event)
	}
	return filtered
}

// matchesPricePreference applies the free/paid preference and any numeric
// price range against the display price string
func matchesPricePreference(event types.NormalizedEvent, req *types.SearchRequest) bool {
	isFree := event.Price == "Free"

	if req.Preferences != nil {
		switch req.Preferences.PricePreference {
		case types.PriceFree:
			if !isFree {
				return false
			}
		case types.PricePaid:
			if isFree {
				return false
			}
		}
	}

	if req.PriceRange != nil {
		min, ok := parseMinPrice(event.Price)
		if ok {
			if req.PriceRange.Max > 0 && min > req.PriceRange.Max {
				return false
			}
			if min < req.PriceRange.Min {
				return false
			}
		}
	}

	return true
}

// parseMinPrice pulls the leading dollar amount out of a display price.
// Non-numeric prices ("Price TBA", "Tickets Available") are unfilterable.
func parseMinPrice(price string) (float64, bool) {
	if price == "Free" {
		return 0, true
	}
	if !strings.HasPrefix(price, "$") {
		return 0, false
	}
	amount := price[1:]
	if idx := strings.Index(amount, " "); idx > 0 {
		amount = amount[:idx]
	}
	v, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// matchesTimePreference applies the morning/afternoon/evening preference to
// the event's start hour. Events with unknown start times always pass.
func matchesTimePreference(event types.NormalizedEvent, prefs *types.UserPreferences) bool {
	if prefs == nil || prefs.TimePreference == "" || prefs.TimePreference == types.TimeAny {
		return true
	}
	if event.StartTime.IsZero() {
		return true
	}

	hour := event.StartTime.Hour()
	switch prefs.TimePreference {
	case types.TimeMorning:
		return hour >= 5 && hour < 12
	case types.TimeAfternoon:
		return hour >= 12 && hour < 17
	case types.TimeEvening:
		return hour >= 17 || hour < 5
	default:
		return true
	}
}

// sortEvents orders by relevance score descending, then distance ascending
// with unknown distances last, then source confidence descending
func sortEvents(events []types.NormalizedEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].RelevanceScore != events[j].RelevanceScore {
			return events[i].RelevanceScore > events[j].RelevanceScore
		}
		di, dj := sortDistance(events[i]), sortDistance(events[j])
		if di != dj {
			return di < dj
		}
		return sourceConfidence(events[i]) > sourceConfidence(events[j])
	})
}

func sortDistance(e types.NormalizedEvent) float64 {
	if e.Distance < 0 {
		return math.Inf(1)
	}
	return e.Distance
}

func sourceConfidence(e types.NormalizedEvent) float64 {
	if e.Source == nil {
		return 0
	}
	return e.Source.Confidence
}

// contributingSources lists the providers with at least one surviving event
func contributingSources(events []types.NormalizedEvent) []string {
	seen := make(map[string]bool)
	var sources []string
	for _, event := range events {
		if event.Source == nil || seen[event.Source.Provider] {
			continue
		}
		seen[event.Source.Provider] = true
		sources = append(sources, event.Source.Provider)
	}
	sort.Strings(sources)
	if sources == nil {
		sources = []string{}
	}
	return sources
}

// paginate slices one page out of the sorted result set
func paginate(events []types.NormalizedEvent, page, size int) []types.NormalizedEvent {
	start := (page - 1) * size
	if start >= len(events) {
		return []types.NormalizedEvent{}
	}
	end := start + size
	if end > len(events) {
		end = len(events)
	}

	out := make([]types.NormalizedEvent, end-start)
	copy(out, events[start:end])
	return out
}
