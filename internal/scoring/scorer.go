package scoring

import (
	"strings"
	"time"

	"github.com/bestfriendai/NEWEVENTS-sub003/internal/types"
)

// Score bonuses. Distance and recency tiers are mutually exclusive within
// their group; only the tightest matching tier applies.
const (
	baseScore = 0.5

	nearBonus = 0.3 // within 5 miles
	midBonus  = 0.2 // within 15 miles
	farBonus  = 0.1 // within 30 miles

	soonBonus     = 0.2 // within 7 days
	upcomingBonus = 0.1 // within 30 days

	favoriteCategoryBonus = 0.2
)

// Scorer assigns relevance scores to normalized events
type Scorer struct {
	now func() time.Time
}

// NewScorer creates a scorer using wall-clock time
func NewScorer() *Scorer {
	return &Scorer{now: time.Now}
}

// Score computes the relevance score for one event. Every event starts at
// 0.5 and earns bonuses for proximity, imminence and preference match. The
// result is clamped to [0, 1].
func (s *Scorer) Score(event types.NormalizedEvent, prefs *types.UserPreferences) float64 {
	score := baseScore

	score += distanceBonus(event.Distance)
	score += recencyBonus(event.StartTime, s.now())
	score = clamp(score)

	if prefs != nil && matchesFavoriteCategory(event.Category, prefs.FavoriteCategories) {
		score = clamp(score + favoriteCategoryBonus)
	}

	return score
}

// ScoreAll scores a slice in place
func (s *Scorer) ScoreAll(events []types.NormalizedEvent, prefs *types.UserPreferences) {
	for i := range events {
		events[i].RelevanceScore = s.Score(events[i], prefs)
	}
}

// distanceBonus rewards proximity to the search origin. Events with unknown
// distance (negative) earn nothing.
func distanceBonus(miles float64) float64 {
	switch {
	case miles < 0:
		return 0
	case miles <= 5:
		return nearBonus
	case miles <= 15:
		return midBonus
	case miles <= 30:
		return farBonus
	default:
		return 0
	}
}

// recencyBonus rewards events starting soon. Past events and events with
// unknown start times earn nothing.
func recencyBonus(start time.Time, now time.Time) float64 {
	if start.IsZero() || start.Before(now) {
		return 0
	}
	until := start.Sub(now)
	switch {
	case until <= 7*24*time.Hour:
		return soonBonus
	case until <= 30*24*time.Hour:
		return upcomingBonus
	default:
		return 0
	}
}

func matchesFavoriteCategory(category string, favorites []string) bool {
	for _, fav := range favorites {
		if strings.EqualFold(category, fav) {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
