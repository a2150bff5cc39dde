package adapters

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bestfriendai/NEWEVENTS-sub003/internal/types"
)

func at(hour int) time.Time {
	return time.Date(2026, 9, 12, hour, 0, 0, 0, time.UTC)
}

func TestClassifyKeywordTable(t *testing.T) {
	tests := []struct {
		name        string
		tags        []string
		subtype     string
		eventName   string
		description string
		want        string
	}{
		{
			name:      "music from tags",
			tags:      []string{"live music", "indie"},
			eventName: "Saturday Sessions",
			want:      types.CategoryMusic,
		},
		{
			name:      "sports from name",
			eventName: "Bulls vs Lakers Basketball Game",
			want:      types.CategorySports,
		},
		{
			name:        "arts from description",
			eventName:   "Opening Night",
			description: "A new gallery exhibit featuring local painters",
			want:        types.CategoryArts,
		},
		{
			name:      "food from subtype",
			subtype:   "restaurant",
			eventName: "Summer Pop-Up",
			want:      types.CategoryFood,
		},
		{
			name:      "business from name",
			eventName: "Startup Networking Summit",
			want:      types.CategoryBusiness,
		},
		{
			name:      "tags beat free text",
			tags:      []string{"concert"},
			eventName: "Championship game watch gathering",
			want:      types.CategoryMusic,
		},
		{
			name:      "no signal falls back to generic",
			eventName: "Community Gathering",
			want:      types.CategoryEvent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.tags, tt.subtype, tt.eventName, tt.description, at(14))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyNightlifeByHour(t *testing.T) {
	tags := []string{"nightlife"}

	assert.Equal(t, types.CategoryClubEvents, Classify(tags, "", "Friday Night", "", at(22)))
	assert.Equal(t, types.CategoryClubEvents, Classify(tags, "", "After Hours", "", at(2)))

	// A nightlife tag at midday carries no club signal; venue subtype still
	// routes through the keyword table
	got := Classify(tags, "", "Rooftop Lounge", "", at(13))
	assert.NotEqual(t, types.CategoryClubEvents, got)
}

func TestClassifyPartiesByHour(t *testing.T) {
	assert.Equal(t, types.CategoryDayParties, Classify(nil, "", "Summer Pool Party", "", at(14)))
	assert.Equal(t, types.CategoryParties, Classify(nil, "", "Summer Pool Party", "", at(21)))
	assert.Equal(t, types.CategoryParties, Classify(nil, "", "New Year Party", "", time.Time{}))
}

func TestClassifyEmptyInputs(t *testing.T) {
	assert.Equal(t, types.CategoryEvent, Classify(nil, "", "", "", time.Time{}))
}
