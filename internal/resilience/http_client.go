package resilience

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// HTTPClient is a circuit-breaker-protected HTTP client shared by one
// provider adapter. The underlying transport pools connections per host.
type HTTPClient struct {
	client         *http.Client
	circuitBreaker *CircuitBreaker
}

// NewHTTPClient creates a pooled HTTP client with circuit breaker protection
func NewHTTPClient(timeout time.Duration, cb *CircuitBreaker) *HTTPClient {
	transport := &http.Transport{
		MaxIdleConns:          20,
		MaxConnsPerHost:       10,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		circuitBreaker: cb,
	}
}

// Get issues a GET request with the given headers under circuit breaker
// protection. Timeouts count as failures toward opening the circuit.
func (h *HTTPClient) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	var resp *http.Response

	err := h.circuitBreaker.Call(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		for key, value := range headers {
			req.Header.Set(key, value)
		}

		start := time.Now()
		resp, err = h.client.Do(req)
		duration := time.Since(start)

		if err != nil {
			slog.Warn("Request failed", "url", url, "error", err, "duration_ms", duration.Milliseconds())
			return err
		}

		slog.Debug("Request completed", "url", url, "status", resp.StatusCode, "duration_ms", duration.Milliseconds())
		return nil
	})

	if err != nil {
		return nil, err
	}

	return resp, nil
}

// CircuitState returns the state of the client's circuit breaker
func (h *HTTPClient) CircuitState() CircuitBreakerState {
	return h.circuitBreaker.State()
}

// Close releases idle connections held by the transport
func (h *HTTPClient) Close() error {
	if transport, ok := h.client.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
	return nil
}
