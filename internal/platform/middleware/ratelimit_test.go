package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journey/internal/audit"
	"journey/internal/ratelimit"
)

func newLimitedHandler(limiter *ratelimit.Limiter, sink SecurityEventSink) http.Handler {
	mw := RateLimit(limiter, sink, nil, nil)
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func limitedRequest(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	return req
}

func Test_RateLimit_AllowsAndSetsHeaders(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.NewInMemoryWindowStore(), time.Minute, 5, 5)
	handler := newLimitedHandler(limiter, nil)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, limitedRequest("/api/data"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "5", rr.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", rr.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rr.Header().Get("X-RateLimit-Reset"))
}

func Test_RateLimit_RejectsOverBudget(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.NewInMemoryWindowStore(), time.Minute, 1, 1)
	sink := &recordingSink{}
	handler := newLimitedHandler(limiter, sink)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, limitedRequest("/api/data"))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, limitedRequest("/api/data"))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	calls := sink.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, audit.EventRateLimitExceeded, calls[0].EventType)
	assert.Equal(t, "unknown", calls[0].ActorID)
	assert.Equal(t, "203.0.113.9", calls[0].ClientIP)
	assert.Equal(t, "/api/data", calls[0].Path)
}

func Test_RateLimit_HealthAndMetricsExcluded(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.NewInMemoryWindowStore(), time.Minute, 1, 1)
	handler := newLimitedHandler(limiter, nil)

	for _, path := range []string{"/health", "/metrics"} {
		for i := 0; i < 5; i++ {
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, limitedRequest(path))
			assert.Equal(t, http.StatusOK, rr.Code, path)
		}
	}
}
