package httptransport

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journey/internal/audit"
	jwttoken "journey/internal/jwt_token"
	"journey/internal/platform/metrics"
	"journey/internal/ratelimit"
	"journey/pkg/testutil"
)

func newTestRouter(t *testing.T, limiter *ratelimit.Limiter) (http.Handler, *audit.Service) {
	t.Helper()
	auditSvc := audit.NewService(64, nil, audit.NewMetricsWith(prometheus.NewRegistry()))
	router := NewRouter(Deps{
		Metrics: metrics.NewWith(prometheus.NewRegistry()),
		Tokens:  tokens,
		Audit:   auditSvc,
		Limiter: limiter,
	})
	return router, auditSvc
}

func drainEvents(svc *audit.Service) []audit.Event {
	var events []audit.Event
	for {
		batch := svc.Buffer().DequeueBatch(64)
		if len(batch) == 0 {
			return events
		}
		events = append(events, batch...)
	}
}

func Test_Router_AuthenticatedProfileAccess(t *testing.T) {
	router, auditSvc := newTestRouter(t, nil)

	token, err := tokens.Encode("user-1", []string{"USER"}, jwttoken.Profile{}, time.Hour)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	req := testutil.WithBearer(httptest.NewRequest(http.MethodGet, "/api/users/profile/user-1", nil), token)
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	testutil.AssertJSONContains(t, rr, "uid", "user-1")

	events := drainEvents(auditSvc)
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventAuthSuccess, events[0].EventType)
	assert.Equal(t, "user-1", events[0].ActorID)
	assert.NotEmpty(t, events[0].RequestID)
}

func Test_Router_AnonymousRequestReachesHandler(t *testing.T) {
	router, auditSvc := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/users/profile/user-1", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Empty(t, drainEvents(auditSvc))
}

func Test_Router_ExpiredTokenContinuesAnonymous(t *testing.T) {
	router, auditSvc := newTestRouter(t, nil)

	token, err := tokens.Encode("user-1", []string{"USER"}, jwttoken.Profile{}, -time.Minute)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	req := testutil.WithBearer(httptest.NewRequest(http.MethodGet, "/api/users/profile/user-1", nil), token)
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	events := drainEvents(auditSvc)
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventTokenExpired, events[0].EventType)
	assert.Equal(t, "unknown", events[0].ActorID)
}

func Test_Router_HealthBypassesAuthAndRateLimit(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.NewInMemoryWindowStore(), time.Minute, 1, 1)
	router, auditSvc := newTestRouter(t, limiter)

	for i := 0; i < 5; i++ {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		testutil.AssertJSONContains(t, rr, "status", "UP")
	}
	assert.Empty(t, drainEvents(auditSvc))
}

func Test_Router_RateLimitRejectsAndAudits(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.NewInMemoryWindowStore(), time.Minute, 1, 1)
	router, auditSvc := newTestRouter(t, limiter)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/users/profile/user-1", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/users/profile/user-1", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	events := drainEvents(auditSvc)
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventRateLimitExceeded, events[0].EventType)
}

func Test_Router_RefreshThroughFullChain(t *testing.T) {
	router, auditSvc := newTestRouter(t, nil)

	expired, err := tokens.Encode("user-1", []string{"USER"}, jwttoken.Profile{}, -time.Minute)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/refresh", map[string]string{"token": expired})
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	events := drainEvents(auditSvc)
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventTokenRefreshed, events[0].EventType)
	assert.Equal(t, "user-1", events[0].ActorID)
}

func Test_Router_MetricsEndpointExposed(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}
