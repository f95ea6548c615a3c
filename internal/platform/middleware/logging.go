package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"journey/internal/platform/metrics"
	"journey/pkg/requestcontext"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs one line per completed request and feeds the latency
// histogram. Runs inside the authentication pipeline so the correlation id
// is available.
func RequestLogger(logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			elapsed := time.Since(start)
			if m != nil {
				m.ObserveRequest(r.Method, strconv.Itoa(rec.status), elapsed.Seconds())
			}
			logger.InfoContext(r.Context(), "request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", elapsed.Milliseconds(),
				"request_id", requestcontext.CorrelationID(r.Context()),
			)
		})
	}
}
