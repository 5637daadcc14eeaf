package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/momentum/pkg/config"
	"github.com/wonny/momentum/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:      "test",
		LogLevel: "error",
		HTTP: config.HTTPConfig{
			Timeout:   5 * time.Second,
			UserAgent: "momentum-test",
		},
	}
}

func TestNew(t *testing.T) {
	cfg := testConfig()
	client := New(cfg, logger.Nop())

	require.NotNil(t, client)
	assert.NotNil(t, client.httpClient)
	assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
	assert.Nil(t, client.limiter)
}

func TestNewDefaultsTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.Timeout = 0

	client := New(cfg, logger.Nop())
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
}

func TestNewWithRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.RateLimit = 2

	client := New(cfg, logger.Nop())
	require.NotNil(t, client.limiter)
	assert.Equal(t, 2.0, float64(client.limiter.Limit()))
}

func TestGetBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "momentum-test", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := New(testConfig(), logger.Nop())

	body, err := client.GetBody(context.Background(), server.URL)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestGetBodyNonSuccessStatus(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(testConfig(), logger.Nop())

	_, err := client.GetBody(context.Background(), server.URL+"/feed")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.StatusServiceUnavailable, transportErr.StatusCode)
	assert.Equal(t, server.URL+"/feed", transportErr.URL)
	assert.Contains(t, err.Error(), "503")

	// no retry
	assert.Equal(t, 1, attempts)
}

func TestGetBodyNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	client := New(testConfig(), logger.Nop())

	_, err := client.GetBody(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestGetBodyConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := New(testConfig(), logger.Nop())

	_, err := client.GetBody(context.Background(), url)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrTransport))
}

func TestDoKeepsExplicitUserAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "custom", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := New(testConfig(), logger.Nop())

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "custom")

	resp, err := client.Do(context.Background(), req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestRateLimitHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(testConfig(), logger.Nop()).WithRateLimit(0.001)

	// first request consumes the single burst token
	_, err := client.GetBody(context.Background(), server.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.GetBody(ctx, server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait failed")
}
