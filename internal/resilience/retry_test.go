package resilience

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     3,
		InitialDelay:    1 * time.Millisecond,
		MaxDelay:        5 * time.Millisecond,
		BackoffFactor:   2.0,
		RetryableErrors: func(error) bool { return true },
	}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	var calls int32

	err := Retry(context.Background(), fastConfig(), func() error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, int32(3), calls)
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	cfg := fastConfig()
	cfg.RetryableErrors = func(error) bool { return false }

	var calls int32
	err := Retry(context.Background(), cfg, func() error {
		atomic.AddInt32(&calls, 1)
		return errors.New("permanent")
	})

	assert.Error(t, err)
	assert.Equal(t, int32(1), calls, "non-retryable errors must not be retried")
}

func TestRetryRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, fastConfig(), func() error {
		return errors.New("never succeeds")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryHTTPRetriesTransientStatuses(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resp, err := RetryHTTP(context.Background(), fastConfig(), func() (*http.Response, error) {
		return http.Get(server.URL)
	})

	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), calls)
}

func TestRetryHTTPReturnsPermanentStatusWithoutRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	resp, err := RetryHTTP(context.Background(), fastConfig(), func() (*http.Response, error) {
		return http.Get(server.URL)
	})

	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int32(1), calls, "4xx other than 408/429 must not be retried")
}

func TestIsRetryableHTTPStatus(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusRequestTimeout, true},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusGatewayTimeout, true},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusNotFound, false},
		{http.StatusOK, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.retryable, IsRetryableHTTPStatus(tt.status), "status %d", tt.status)
	}
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		RecoveryTimeout:  1 * time.Hour,
		SuccessThreshold: 1,
	})

	failing := func() error { return errors.New("boom") }

	assert.Error(t, cb.Call(failing))
	assert.Equal(t, StateClosed, cb.State())

	assert.Error(t, cb.Call(failing))
	assert.Equal(t, StateOpen, cb.State())

	// Open circuit short-circuits without invoking the function
	err := cb.Call(func() error {
		t.Fatal("must not be called while circuit is open")
		return nil
	})
	var cbErr *CircuitBreakerError
	assert.ErrorAs(t, err, &cbErr)
}

func TestCircuitBreakerRecovers(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		RecoveryTimeout:  5 * time.Millisecond,
		SuccessThreshold: 1,
	})

	assert.Error(t, cb.Call(func() error { return errors.New("boom") }))
	assert.Equal(t, StateOpen, cb.State())

	time.Sleep(10 * time.Millisecond)

	assert.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestHealthRegistryDegradation(t *testing.T) {
	reg := NewHealthRegistry()
	reg.Register("ticketmaster", true)
	reg.Register("eventbrite", false)

	snapshot := reg.Snapshot()
	assert.Equal(t, LevelHealthy, snapshot["ticketmaster"].Level)
	assert.Equal(t, LevelDegraded, snapshot["eventbrite"].Level, "unconfigured providers start degraded")

	for i := 0; i < 3; i++ {
		reg.RecordFailure("ticketmaster")
	}
	assert.Equal(t, LevelDegraded, reg.Snapshot()["ticketmaster"].Level)

	for i := 0; i < 7; i++ {
		reg.RecordFailure("ticketmaster")
	}
	assert.Equal(t, LevelEmergency, reg.Snapshot()["ticketmaster"].Level)
	assert.True(t, reg.AnyEmergency())

	reg.RecordSuccess("ticketmaster")
	assert.Equal(t, LevelHealthy, reg.Snapshot()["ticketmaster"].Level)
	assert.False(t, reg.AnyEmergency())
}
