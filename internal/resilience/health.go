package resilience

import (
	"sync"
	"time"
)

// DegradationLevel describes how healthy a provider currently is
type DegradationLevel int

const (
	LevelHealthy DegradationLevel = iota
	LevelDegraded
	LevelEmergency
)

// String returns a readable level name for health reporting
func (l DegradationLevel) String() string {
	switch l {
	case LevelHealthy:
		return "healthy"
	case LevelDegraded:
		return "degraded"
	case LevelEmergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// ProviderHealth is one provider's current health snapshot
type ProviderHealth struct {
	Name         string           `json:"name"`
	Level        DegradationLevel `json:"level"`
	LevelName    string           `json:"level_name"`
	Configured   bool             `json:"configured"`
	CircuitState string           `json:"circuit_state"`
	LastSuccess  time.Time        `json:"last_success,omitempty"`
	LastFailure  time.Time        `json:"last_failure,omitempty"`
	Failures     int64            `json:"consecutive_failures"`
}

// HealthRegistry tracks per-provider health so the service can report
// degradation instead of hard failure when providers misbehave.
type HealthRegistry struct {
	mu        sync.RWMutex
	providers map[string]*ProviderHealth
}

// NewHealthRegistry creates an empty health registry
func NewHealthRegistry() *HealthRegistry {
	return &HealthRegistry{
		providers: make(map[string]*ProviderHealth),
	}
}

// Register adds a provider to the registry
func (r *HealthRegistry) Register(name string, configured bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	level := LevelHealthy
	if !configured {
		level = LevelDegraded
	}

	r.providers[name] = &ProviderHealth{
		Name:       name,
		Level:      level,
		LevelName:  level.String(),
		Configured: configured,
	}
}

// RecordSuccess marks a provider call as successful
func (r *HealthRegistry) RecordSuccess(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.providers[name]
	if !ok {
		return
	}

	h.LastSuccess = time.Now()
	h.Failures = 0
	h.Level = LevelHealthy
	h.LevelName = h.Level.String()
}

// RecordFailure marks a provider call as failed. Three consecutive
// failures degrade the provider, ten escalate to emergency.
func (r *HealthRegistry) RecordFailure(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.providers[name]
	if !ok {
		return
	}

	h.LastFailure = time.Now()
	h.Failures++

	switch {
	case h.Failures >= 10:
		h.Level = LevelEmergency
	case h.Failures >= 3:
		h.Level = LevelDegraded
	}
	h.LevelName = h.Level.String()
}

// SetCircuitState records the provider's circuit breaker state for reporting
func (r *HealthRegistry) SetCircuitState(name string, state CircuitBreakerState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.providers[name]; ok {
		h.CircuitState = state.String()
	}
}

// Snapshot returns a copy of all provider health records
func (r *HealthRegistry) Snapshot() map[string]ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]ProviderHealth, len(r.providers))
	for name, h := range r.providers {
		out[name] = *h
	}
	return out
}

// AnyEmergency reports whether any provider is in emergency state
func (r *HealthRegistry) AnyEmergency() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, h := range r.providers {
		if h.Level == LevelEmergency {
			return true
		}
	}
	return false
}
