package dedup

import (
	"strings"

	"github.com/xrash/smetrics"

	"github.com/bestfriendai/NEWEVENTS-sub003/internal/monitoring"
	"github.com/bestfriendai/NEWEVENTS-sub003/internal/types"
)

// Similarity thresholds. Two events are duplicates when their titles are
// close and either their display dates agree or their venues are close.
const (
	titleThreshold    = 0.8
	locationThreshold = 0.7
)

// Engine merges duplicate listings of the same real-world event that arrive
// from different providers.
type Engine struct {
	metrics *monitoring.Metrics
	logger  *monitoring.Logger
}

// NewEngine creates a dedup engine
func NewEngine(metrics *monitoring.Metrics, logger *monitoring.Logger) *Engine {
	return &Engine{metrics: metrics, logger: logger}
}

// Deduplicate collapses duplicate events. For each duplicate pair the record
// from the higher-confidence source wins; the winner absorbs any fields the
// loser has that it is missing. Input order does not affect which record
// survives.
func (e *Engine) Deduplicate(events []types.NormalizedEvent) []types.NormalizedEvent {
	if len(events) < 2 {
		return events
	}

	var result []types.NormalizedEvent
	merges := 0

	for _, candidate := range events {
		merged := false
		for i := range result {
			if !isDuplicate(result[i], candidate) {
				continue
			}
			result[i] = merge(result[i], candidate)
			merged = true
			merges++
			break
		}
		if !merged {
			result = append(result, candidate)
		}
	}

	if merges > 0 {
		if e.metrics != nil {
			e.metrics.AddDedupMerges(merges)
		}
		if e.logger != nil {
			e.logger.DedupLogger(len(events), len(result))
		}
	}

	return result
}

// isDuplicate reports whether two normalized events describe the same
// real-world event
func isDuplicate(a, b types.NormalizedEvent) bool {
	if similarity(a.Title, b.Title) <= titleThreshold {
		return false
	}
	if a.Date != "" && a.Date == b.Date {
		return true
	}
	return similarity(a.Location, b.Location) > locationThreshold
}

// merge keeps the higher-confidence record and fills its gaps from the
// other. Ticketmaster wins confidence ties since its listings come from the
// primary seller.
func merge(a, b types.NormalizedEvent) types.NormalizedEvent {
	winner, loser := a, b
	if confidence(b) > confidence(a) {
		winner, loser = b, a
	} else if confidence(b) == confidence(a) && provider(b) == "ticketmaster" && provider(a) != "ticketmaster" {
		winner, loser = b, a
	}

	if winner.Coordinates == nil {
		winner.Coordinates = loser.Coordinates
	}
	if winner.Description == "" || winner.Description == types.NoDescription {
		if loser.Description != "" && loser.Description != types.NoDescription {
			winner.Description = loser.Description
		}
	}
	if len(winner.TicketLinks) == 0 {
		winner.TicketLinks = loser.TicketLinks
	}
	if winner.Image == "" {
		winner.Image = loser.Image
	}
	if winner.Address == "" {
		winner.Address = loser.Address
	}
	if winner.StartTime.IsZero() {
		winner.StartTime = loser.StartTime
	}

	return winner
}

func confidence(e types.NormalizedEvent) float64 {
	if e.Source == nil {
		return 0
	}
	return e.Source.Confidence
}

func provider(e types.NormalizedEvent) string {
	if e.Source == nil {
		return ""
	}
	return e.Source.Provider
}

// normalize lowercases, strips non-alphanumerics and collapses runs of
// spaces so punctuation and casing differences between providers do not
// defeat the comparison
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// similarity is a normalized Levenshtein ratio in [0, 1] over normalized
// strings
func similarity(a, b string) float64 {
	a = normalize(a)
	b = normalize(b)
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}

	dist := smetrics.WagnerFischer(a, b, 1, 1, 1)
	return 1 - float64(dist)/float64(longest)
}
