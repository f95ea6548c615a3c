package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"journey/internal/audit"
	"journey/internal/platform/metrics"
	"journey/internal/ratelimit"
	"journey/pkg/requestcontext"
)

// Health and scrape endpoints must stay reachable regardless of budget.
var unlimitedPaths = map[string]struct{}{
	"/health":     {},
	"/ping":       {},
	"/api/health": {},
	"/api/ping":   {},
	"/metrics":    {},
}

// RateLimit enforces the per-client request budget. Health and metrics
// endpoints are never limited; limiter store failures fail open.
func RateLimit(limiter *ratelimit.Limiter, sink SecurityEventSink, m *metrics.Metrics, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := unlimitedPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)
			if ip == "" {
				ip = ClientIPFromRequest(r)
			}

			result, err := limiter.Allow(ctx, ip, r.URL.Path)
			if err != nil {
				logger.ErrorContext(ctx, "rate limit check failed",
					"error", err,
					"path", r.URL.Path,
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			if !result.ResetAt.IsZero() {
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
			}

			if !result.Allowed {
				if m != nil {
					m.IncRateLimited()
				}
				if sink != nil {
					sink.LogSecurityEvent(ctx, unknownActor, audit.EventRateLimitExceeded, ip, r.URL.Path)
				}
				logger.WarnContext(ctx, "rate limit exceeded",
					"ip", ip,
					"path", r.URL.Path,
				)
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate_limit_exceeded","error_description":"Too many requests. Please try again later."}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
