package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the request-level Prometheus metrics for the application.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	AuthOutcomes    *prometheus.CounterVec
	RateLimited     prometheus.Counter
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates the metrics against a specific registerer.
// Tests use a fresh prometheus.NewRegistry() to avoid duplicate registration.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "journey_http_request_duration_seconds",
			Help:    "HTTP request latency by method and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
		AuthOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "journey_auth_outcomes_total",
			Help: "Authentication pipeline outcomes by event type.",
		}, []string{"outcome"}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "journey_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}),
	}
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(method, status string, seconds float64) {
	m.RequestDuration.WithLabelValues(method, status).Observe(seconds)
}

// IncAuthOutcome counts one authentication pipeline outcome.
func (m *Metrics) IncAuthOutcome(outcome string) {
	m.AuthOutcomes.WithLabelValues(outcome).Inc()
}

// IncRateLimited counts one rate-limited request.
func (m *Metrics) IncRateLimited() {
	m.RateLimited.Inc()
}
