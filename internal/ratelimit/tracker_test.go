package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProviderTrackerEnforcesQuota(t *testing.T) {
	tracker := NewProviderTracker()
	tracker.SetQuota("rapidapi", ProviderQuota{MaxCalls: 3, Window: time.Minute})

	for i := 0; i < 3; i++ {
		assert.True(t, tracker.Allow("rapidapi"), "call %d should be within quota", i+1)
	}

	assert.False(t, tracker.Allow("rapidapi"), "fourth call must be rejected")
	assert.Equal(t, 0, tracker.Remaining("rapidapi"))
}

func TestProviderTrackerWindowSlides(t *testing.T) {
	tracker := NewProviderTracker()
	tracker.SetQuota("ticketmaster", ProviderQuota{MaxCalls: 1, Window: time.Minute})

	current := time.Now()
	tracker.now = func() time.Time { return current }

	assert.True(t, tracker.Allow("ticketmaster"))
	assert.False(t, tracker.Allow("ticketmaster"))

	// Advance past the window; the old call must fall out
	current = current.Add(61 * time.Second)
	assert.True(t, tracker.Allow("ticketmaster"))
}

func TestProviderTrackerUnregisteredProviderAlwaysAllowed(t *testing.T) {
	tracker := NewProviderTracker()

	for i := 0; i < 100; i++ {
		assert.True(t, tracker.Allow("unknown"))
	}
	assert.Equal(t, -1, tracker.Remaining("unknown"))
}

func TestProviderTrackerIndependentQuotas(t *testing.T) {
	tracker := NewProviderTracker()
	tracker.SetQuota("rapidapi", ProviderQuota{MaxCalls: 1, Window: time.Minute})
	tracker.SetQuota("eventbrite", ProviderQuota{MaxCalls: 2, Window: time.Minute})

	assert.True(t, tracker.Allow("rapidapi"))
	assert.False(t, tracker.Allow("rapidapi"))

	assert.True(t, tracker.Allow("eventbrite"))
	assert.True(t, tracker.Allow("eventbrite"))
	assert.False(t, tracker.Allow("eventbrite"))
}
