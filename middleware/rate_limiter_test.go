package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doRequest(handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = remoteAddr
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestFixedWindowLimiter_BlocksAfterBudget(t *testing.T) {
	limiter := NewFixedWindowLimiter(15*time.Minute, 3)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		rr := doRequest(handler, "10.0.0.1:5000")
		assert.Equal(t, http.StatusOK, rr.Code, "request %d within budget", i+1)
	}

	rr := doRequest(handler, "10.0.0.1:5000")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "RATE_LIMITED", body["code"])
	assert.Equal(t, float64(900), body["retryAfter"])
}

func TestFixedWindowLimiter_TracksClientsSeparately(t *testing.T) {
	limiter := NewFixedWindowLimiter(15*time.Minute, 1)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	assert.Equal(t, http.StatusOK, doRequest(handler, "10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(handler, "10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusOK, doRequest(handler, "10.0.0.2:5000").Code)
}

func TestFixedWindowLimiter_ResetsAfterWindow(t *testing.T) {
	current := time.Now()
	limiter := NewFixedWindowLimiter(15*time.Minute, 1)
	limiter.now = func() time.Time { return current }

	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	assert.Equal(t, http.StatusOK, doRequest(handler, "10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(handler, "10.0.0.1:5000").Code)

	current = current.Add(15*time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, doRequest(handler, "10.0.0.1:5000").Code)
}

func TestFixedWindowLimiter_UsesForwardedForHeader(t *testing.T) {
	limiter := NewFixedWindowLimiter(15*time.Minute, 1)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	// Same proxy address but a different end client gets its own window.
	other := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	other.RemoteAddr = "10.0.0.1:5000"
	other.Header.Set("X-Forwarded-For", "203.0.113.10")

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, other)
	assert.Equal(t, http.StatusOK, rr.Code)
}
