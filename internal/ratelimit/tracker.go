package ratelimit

import (
	"sync"
	"time"
)

// ProviderQuota configures a rolling-window call budget for one provider.
type ProviderQuota struct {
	MaxCalls int
	Window   time.Duration
}

// ProviderTracker enforces per-provider rolling-window quotas so adapters
// can reject a search locally before burning a call against an exhausted
// external API budget. All access is mutex-guarded; one tracker instance
// is shared by every adapter.
type ProviderTracker struct {
	mu     sync.Mutex
	quotas map[string]ProviderQuota
	calls  map[string][]time.Time
	now    func() time.Time
}

// NewProviderTracker creates a tracker with no registered quotas
func NewProviderTracker() *ProviderTracker {
	return &ProviderTracker{
		quotas: make(map[string]ProviderQuota),
		calls:  make(map[string][]time.Time),
		now:    time.Now,
	}
}

// SetQuota registers the rolling-window quota for a provider
func (t *ProviderTracker) SetQuota(provider string, quota ProviderQuota) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.quotas[provider] = quota
}

// Allow reports whether the provider has budget left in its rolling window
// and, if so, consumes one call. Providers without a registered quota are
// always allowed.
func (t *ProviderTracker) Allow(provider string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	quota, ok := t.quotas[provider]
	if !ok {
		return true
	}

	now := t.now()
	recent := t.prune(provider, now, quota.Window)

	if len(recent) >= quota.MaxCalls {
		return false
	}

	t.calls[provider] = append(recent, now)
	return true
}

// Remaining returns how many calls the provider has left in its window
func (t *ProviderTracker) Remaining(provider string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	quota, ok := t.quotas[provider]
	if !ok {
		return -1
	}

	recent := t.prune(provider, t.now(), quota.Window)
	remaining := quota.MaxCalls - len(recent)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// prune drops call timestamps older than the window. Caller holds the lock.
func (t *ProviderTracker) prune(provider string, now time.Time, window time.Duration) []time.Time {
	cutoff := now.Add(-window)
	recent := t.calls[provider][:0]
	for _, ts := range t.calls[provider] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}
	t.calls[provider] = recent
	return recent
}

// Stats returns per-provider usage for health reporting
func (t *ProviderTracker) Stats() map[string]interface{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := make(map[string]interface{}, len(t.quotas))
	now := t.now()
	for provider, quota := range t.quotas {
		used := len(t.prune(provider, now, quota.Window))
		stats[provider] = map[string]interface{}{
			"used":           used,
			"max_calls":      quota.MaxCalls,
			"window_seconds": quota.Window.Seconds(),
		}
	}
	return stats
}
