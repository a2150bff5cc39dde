package adapters

import (
	"strings"
	"time"

	"github.com/bestfriendai/NEWEVENTS-sub003/internal/types"
)

// categoryKeywords maps free-text signals to display categories. Checked in
// order; the first category with a matching keyword wins.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{types.CategoryMusic, []string{
		"concert", "music", "band", "dj", "festival", "live music",
		"hip hop", "hip-hop", "rap", "jazz", "rock", "edm", "orchestra",
		"symphony", "singer", "tour",
	}},
	{types.CategorySports, []string{
		"sports", "game", "match", "basketball", "football", "soccer",
		"baseball", "hockey", "tennis", "golf", "boxing", "mma", "race",
		"marathon", "wrestling",
	}},
	{types.CategoryArts, []string{
		"art", "theatre", "theater", "gallery", "museum", "exhibit",
		"comedy", "film", "movie", "dance", "ballet", "opera", "poetry",
		"improv",
	}},
	{types.CategoryFood, []string{
		"food", "dining", "tasting", "wine", "beer", "brunch", "culinary",
		"restaurant", "cooking", "bbq", "brewery", "cocktail",
	}},
	{types.CategoryBusiness, []string{
		"business", "networking", "conference", "seminar", "workshop",
		"expo", "summit", "tech", "startup", "entrepreneur", "career",
	}},
}

var nightlifeKeywords = []string{"nightlife", "club", "nightclub", "rave"}
var partyKeywords = []string{"party", "parties", "social", "mixer"}

// Classify derives a display category from provider tags, venue subtype and
// free-text name/description, in that order. A time-of-day heuristic splits
// nightlife and party events into Club Events, Day Parties and Parties.
func Classify(tags []string, venueSubtype, name, description string, start time.Time) string {
	joinedTags := strings.ToLower(strings.Join(tags, " "))
	subtype := strings.ToLower(venueSubtype)
	text := strings.ToLower(name + " " + description)

	hour := -1
	if !start.IsZero() {
		hour = start.Hour()
	}

	// Nightlife and party events are classified by start hour before the
	// general keyword table is consulted.
	if containsAny(joinedTags, nightlifeKeywords) || containsAny(subtype, nightlifeKeywords) {
		if hour >= 18 || (hour >= 0 && hour <= 6) {
			return types.CategoryClubEvents
		}
	}
	if containsAny(joinedTags, partyKeywords) || containsAny(text, partyKeywords) {
		if hour >= 12 && hour < 18 {
			return types.CategoryDayParties
		}
		return types.CategoryParties
	}

	for _, haystack := range []string{joinedTags, subtype, text} {
		if haystack == "" {
			continue
		}
		for _, entry := range categoryKeywords {
			if containsAny(haystack, entry.keywords) {
				return entry.category
			}
		}
	}

	return types.CategoryEvent
}

// containsAny reports whether the haystack contains any of the keywords
func containsAny(haystack string, keywords []string) bool {
	if haystack == "" {
		return false
	}
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}
