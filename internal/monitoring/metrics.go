package monitoring

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds application metrics for the aggregation pipeline
type Metrics struct {
	RequestCount  int64
	ErrorCount    int64
	SearchCount   int64
	CacheHits     int64
	CacheMisses   int64
	GeocodeLookups int64
	DedupMerges   int64
	StartTime     time.Time

	// Per-provider call and failure counts
	ProviderCalls    map[string]int64
	ProviderFailures map[string]int64
	providerMutex    sync.RWMutex

	// Rate limit metrics
	RateLimitIPBlocks       int64
	RateLimitProviderBlocks int64
	RateLimitRedisErrors    int64
	RateLimitFallbackCount  int64
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:        time.Now(),
		ProviderCalls:    make(map[string]int64),
		ProviderFailures: make(map[string]int64),
	}
}

// IncrementRequest increments the HTTP request count
func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

// IncrementError increments the error count
func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

// IncrementSearch increments the aggregate search count
func (m *Metrics) IncrementSearch() {
	atomic.AddInt64(&m.SearchCount, 1)
}

// IncrementCacheHit increments cache hit count
func (m *Metrics) IncrementCacheHit() {
	atomic.AddInt64(&m.CacheHits, 1)
}

// IncrementCacheMiss increments cache miss count
func (m *Metrics) IncrementCacheMiss() {
	atomic.AddInt64(&m.CacheMisses, 1)
}

// IncrementGeocodeLookup increments the geocode lookup count
func (m *Metrics) IncrementGeocodeLookup() {
	atomic.AddInt64(&m.GeocodeLookups, 1)
}

// AddDedupMerges records duplicate events collapsed in one pass
func (m *Metrics) AddDedupMerges(n int) {
	atomic.AddInt64(&m.DedupMerges, int64(n))
}

// IncrementProviderCall records a call to an external event provider
func (m *Metrics) IncrementProviderCall(provider string) {
	m.providerMutex.Lock()
	defer m.providerMutex.Unlock()
	m.ProviderCalls[provider]++
}

// IncrementProviderFailure records a failed call to an external provider
func (m *Metrics) IncrementProviderFailure(provider string) {
	m.providerMutex.Lock()
	defer m.providerMutex.Unlock()
	m.ProviderFailures[provider]++
}

// IncrementRateLimitIPBlock records a blocked client request
func (m *Metrics) IncrementRateLimitIPBlock() {
	atomic.AddInt64(&m.RateLimitIPBlocks, 1)
}

// IncrementRateLimitProviderBlock records a provider call rejected by quota
func (m *Metrics) IncrementRateLimitProviderBlock() {
	atomic.AddInt64(&m.RateLimitProviderBlocks, 1)
}

// IncrementRateLimitRedisError records a Redis rate-limit backend error
func (m *Metrics) IncrementRateLimitRedisError() {
	atomic.AddInt64(&m.RateLimitRedisErrors, 1)
}

// IncrementRateLimitFallback records use of the in-memory limiter fallback
func (m *Metrics) IncrementRateLimitFallback() {
	atomic.AddInt64(&m.RateLimitFallbackCount, 1)
}

// GetStats returns a snapshot of all metrics
func (m *Metrics) GetStats() map[string]interface{} {
	m.providerMutex.RLock()
	providerCalls := make(map[string]int64, len(m.ProviderCalls))
	for k, v := range m.ProviderCalls {
		providerCalls[k] = v
	}
	providerFailures := make(map[string]int64, len(m.ProviderFailures))
	for k, v := range m.ProviderFailures {
		providerFailures[k] = v
	}
	m.providerMutex.RUnlock()

	return map[string]interface{}{
		"uptime_seconds":             time.Since(m.StartTime).Seconds(),
		"request_count":              atomic.LoadInt64(&m.RequestCount),
		"error_count":                atomic.LoadInt64(&m.ErrorCount),
		"search_count":               atomic.LoadInt64(&m.SearchCount),
		"cache_hits":                 atomic.LoadInt64(&m.CacheHits),
		"cache_misses":               atomic.LoadInt64(&m.CacheMisses),
		"geocode_lookups":            atomic.LoadInt64(&m.GeocodeLookups),
		"dedup_merges":               atomic.LoadInt64(&m.DedupMerges),
		"provider_calls":             providerCalls,
		"provider_failures":          providerFailures,
		"rate_limit_ip_blocks":       atomic.LoadInt64(&m.RateLimitIPBlocks),
		"rate_limit_provider_blocks": atomic.LoadInt64(&m.RateLimitProviderBlocks),
		"rate_limit_redis_errors":    atomic.LoadInt64(&m.RateLimitRedisErrors),
		"rate_limit_fallbacks":       atomic.LoadInt64(&m.RateLimitFallbackCount),
	}
}
