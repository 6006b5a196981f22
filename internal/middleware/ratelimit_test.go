package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grantscope/backend/internal/ratelimit"
)

// counterStore is an in-memory fixed-window store for middleware tests
type counterStore struct {
	mu     sync.Mutex
	counts map[string]int
	starts map[string]time.Time
}

func newCounterStore() *counterStore {
	return &counterStore{
		counts: make(map[string]int),
		starts: make(map[string]time.Time),
	}
}

func (s *counterStore) Increment(ctx context.Context, identity, operation string, window time.Duration, now time.Time) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := identity + "/" + operation
	start, ok := s.starts[key]
	if !ok || !start.Add(window).After(now) {
		s.starts[key] = now
		s.counts[key] = 1
	} else {
		s.counts[key]++
	}
	return s.counts[key], s.starts[key], nil
}

func (s *counterStore) Peek(ctx context.Context, identity, operation string, window time.Duration, now time.Time) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := identity + "/" + operation
	start, ok := s.starts[key]
	if !ok || !start.Add(window).After(now) {
		return 0, now, nil
	}
	return s.counts[key], start, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware_HeadersOnAllowedRequests(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(newCounterStore(), true)
	handler := RateLimit(limiter, ratelimit.OpSearch, 5, time.Minute)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	req.RemoteAddr = "203.0.113.9:51234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))

	reset, err := strconv.ParseInt(rec.Header().Get("X-RateLimit-Reset"), 10, 64)
	require.NoError(t, err)
	assert.Greater(t, reset, time.Now().Unix())
}

func TestRateLimitMiddleware_DeniesOverLimit(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(newCounterStore(), true)
	handler := RateLimit(limiter, ratelimit.OpSearch, 2, time.Minute)(okHandler())

	var rec *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/search", nil)
		req.RemoteAddr = "203.0.113.9:51234"
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
	}

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var body struct {
		Success   bool            `json:"success"`
		Code      string          `json:"code"`
		RateLimit RateLimitDetail `json:"rate_limit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", body.Code)
	assert.Equal(t, 2, body.RateLimit.Limit)
	assert.Equal(t, 3, body.RateLimit.Current)
	assert.Greater(t, body.RateLimit.RetryAfter, int64(0))

	resetTime, err := time.Parse(time.RFC3339, body.RateLimit.ResetTime)
	require.NoError(t, err)
	assert.True(t, resetTime.After(time.Now()))
}

func TestRateLimitMiddleware_IdentitiesIndependent(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(newCounterStore(), true)
	handler := RateLimit(limiter, ratelimit.OpSearch, 1, time.Minute)(okHandler())

	first := httptest.NewRequest(http.MethodGet, "/search", nil)
	first.RemoteAddr = "203.0.113.9:51234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)

	again := httptest.NewRequest(http.MethodGet, "/search", nil)
	again.RemoteAddr = "203.0.113.9:51234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, again)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	other := httptest.NewRequest(http.MethodGet, "/search", nil)
	other.RemoteAddr = "198.51.100.7:40000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr with port", "203.0.113.9:51234", nil, "203.0.113.9"},
		{"x-forwarded-for single", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "198.51.100.7"}, "198.51.100.7"},
		{"x-forwarded-for list", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.2"}, "198.51.100.7"},
		{"x-real-ip", "10.0.0.1:1", map[string]string{"X-Real-IP": "192.0.2.44"}, "192.0.2.44"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, GetClientIP(req))
		})
	}
}
