package monitoring

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger provides structured logging with domain-specific helpers. Logging
// is fire-and-forget: nothing here may affect aggregation control flow.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new JSON logger writing to stdout
func NewLogger() *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{Logger: slog.New(handler)}
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(method, path, ip string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// SearchLogger logs the outcome of one aggregate search
func (l *Logger) SearchLogger(location, keyword string, totalCount int, sources []string, duration time.Duration) {
	l.Info("Search Completed",
		"location", location,
		"keyword", keyword,
		"total_count", totalCount,
		"sources", sources,
		"duration_ms", duration.Milliseconds(),
	)
}

// ProviderLogger logs one external provider call
func (l *Logger) ProviderLogger(provider string, eventCount int, duration time.Duration, err error) {
	level := slog.LevelInfo
	attrs := []any{
		"provider", provider,
		"event_count", eventCount,
		"duration_ms", duration.Milliseconds(),
	}
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, "error", err.Error())
	}

	l.Log(context.Background(), level, "Provider Search", attrs...)
}

// GeocodeLogger logs a geocoding resolution
func (l *Logger) GeocodeLogger(input, provider string, cacheHit bool, ok bool) {
	l.Info("Geocode Resolution",
		"input", input,
		"provider", provider,
		"cache_hit", cacheHit,
		"resolved", ok,
	)
}

// CacheLogger logs cache operations
func (l *Logger) CacheLogger(operation, key string, hit bool) {
	short := key
	if len(short) > 8 {
		short = short[:8] + "..."
	}
	l.Debug("Cache Operation",
		"operation", operation,
		"key", short,
		"hit", hit,
	)
}

// DedupLogger logs the outcome of a deduplication pass
func (l *Logger) DedupLogger(before, after int) {
	l.Info("Deduplication Completed",
		"input_events", before,
		"unique_events", after,
		"merged", before-after,
	)
}
