package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoRequestWithResilience_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := HTTPClientConfig{
		Client:  srv.Client(),
		Backoff: BackoffConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond},
	}
	build := func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	}

	resp, err := doRequestWithResilience(context.Background(), cfg, newCircuitBreaker("test"), build)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDoRequestWithResilience_NoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cfg := HTTPClientConfig{Client: srv.Client(), Backoff: DefaultBackoff()}
	build := func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	}

	_, err := doRequestWithResilience(context.Background(), cfg, newCircuitBreaker("test"), build)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.ErrorIs(t, err, errRateLimited)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDoRequestWithResilience_InvalidConfig(t *testing.T) {
	build := func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, "http://example.invalid", nil)
	}

	_, err := doRequestWithResilience(context.Background(), HTTPClientConfig{}, newCircuitBreaker("test"), build)
	assert.ErrorIs(t, err, errNoHTTPClient)

	cfg := HTTPClientConfig{Client: http.DefaultClient, Backoff: BackoffConfig{MaxRetries: -1}}
	_, err = doRequestWithResilience(context.Background(), cfg, newCircuitBreaker("test"), build)
	assert.ErrorIs(t, err, errInvalidConfig)
}

func TestDoRequestWithResilience_CircuitOpens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := HTTPClientConfig{Client: srv.Client(), Backoff: DefaultBackoff()}
	build := func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	}
	cb := newCircuitBreaker("test")

	// The default breaker trips after more than five consecutive failures.
	for i := 0; i < 6; i++ {
		_, err := doRequestWithResilience(context.Background(), cfg, cb, build)
		require.ErrorIs(t, err, ErrUnexpectedStatus)
	}
	_, err := doRequestWithResilience(context.Background(), cfg, cb, build)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestDoRequestWithResilience_ClientErrorsKeepCircuitClosed(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := HTTPClientConfig{
		Client:  srv.Client(),
		Backoff: BackoffConfig{MaxRetries: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond},
	}
	build := func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	}
	cb := newCircuitBreaker("test")

	for i := 0; i < 10; i++ {
		_, err := doRequestWithResilience(context.Background(), cfg, cb, build)
		require.ErrorIs(t, err, ErrUnexpectedStatus)
		require.NotErrorIs(t, err, ErrCircuitOpen)
	}
	// Rejected requests are not retried.
	assert.Equal(t, int32(10), calls.Load())
}
