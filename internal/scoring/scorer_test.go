package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bestfriendai/NEWEVENTS-sub003/internal/types"
)

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func newTestScorer() *Scorer {
	s := NewScorer()
	s.now = func() time.Time { return testNow }
	return s
}

func TestScoreBase(t *testing.T) {
	s := newTestScorer()

	// No distance, no start time, no preferences
	event := types.NormalizedEvent{Distance: -1}
	assert.InDelta(t, 0.5, s.Score(event, nil), 0.0001)
}

func TestScoreDistanceTiers(t *testing.T) {
	s := newTestScorer()

	tests := []struct {
		name     string
		distance float64
		want     float64
	}{
		{"within 5 miles", 3, 0.8},
		{"exactly 5 miles", 5, 0.8},
		{"within 15 miles", 10, 0.7},
		{"within 30 miles", 22, 0.6},
		{"beyond 30 miles", 45, 0.5},
		{"unknown distance", -1, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := types.NormalizedEvent{Distance: tt.distance}
			assert.InDelta(t, tt.want, s.Score(event, nil), 0.0001)
		})
	}
}

func TestScoreRecencyTiers(t *testing.T) {
	s := newTestScorer()

	tests := []struct {
		name  string
		start time.Time
		want  float64
	}{
		{"within 7 days", testNow.Add(3 * 24 * time.Hour), 0.7},
		{"within 30 days", testNow.Add(20 * 24 * time.Hour), 0.6},
		{"beyond 30 days", testNow.Add(60 * 24 * time.Hour), 0.5},
		{"in the past", testNow.Add(-24 * time.Hour), 0.5},
		{"unknown start", time.Time{}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := types.NormalizedEvent{Distance: -1, StartTime: tt.start}
			assert.InDelta(t, tt.want, s.Score(event, nil), 0.0001)
		})
	}
}

func TestScoreFavoriteCategoryBoost(t *testing.T) {
	s := newTestScorer()
	prefs := &types.UserPreferences{FavoriteCategories: []string{"music", "Sports"}}

	event := types.NormalizedEvent{Distance: -1, Category: types.CategoryMusic}
	assert.InDelta(t, 0.7, s.Score(event, prefs), 0.0001, "category match is case-insensitive")

	other := types.NormalizedEvent{Distance: -1, Category: types.CategoryFood}
	assert.InDelta(t, 0.5, s.Score(other, prefs), 0.0001)
}

func TestScoreClampsToOne(t *testing.T) {
	s := newTestScorer()
	prefs := &types.UserPreferences{FavoriteCategories: []string{types.CategoryMusic}}

	// 0.5 base + 0.3 near + 0.2 soon = 1.0, the boost cannot push past it
	event := types.NormalizedEvent{
		Distance:  2,
		StartTime: testNow.Add(24 * time.Hour),
		Category:  types.CategoryMusic,
	}
	assert.InDelta(t, 1.0, s.Score(event, prefs), 0.0001)
}

func TestScoreAll(t *testing.T) {
	s := newTestScorer()

	events := []types.NormalizedEvent{
		{Distance: 3},
		{Distance: -1},
	}
	s.ScoreAll(events, nil)

	assert.InDelta(t, 0.8, events[0].RelevanceScore, 0.0001)
	assert.InDelta(t, 0.5, events[1].RelevanceScore, 0.0001)
}
