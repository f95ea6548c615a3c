package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the audit pipeline.
type Metrics struct {
	Enqueued              prometheus.Counter
	BufferDropped         prometheus.Counter
	Persisted             prometheus.Counter
	PersistFailures       prometheus.Counter
	CircuitBreakerDropped prometheus.Counter
	CircuitBreakerState   prometheus.Gauge
}

// NewMetrics registers the audit metrics on the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers against a specific registerer; tests pass a fresh
// prometheus.NewRegistry().
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Enqueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "journey_audit_enqueued_total",
			Help: "Total number of audit events accepted into the buffer",
		}),
		BufferDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "journey_audit_buffer_dropped_total",
			Help: "Total number of audit events dropped by the full buffer",
		}),
		Persisted: factory.NewCounter(prometheus.CounterOpts{
			Name: "journey_audit_persisted_total",
			Help: "Total number of audit events successfully persisted",
		}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "journey_audit_persist_failures_total",
			Help: "Total number of audit event persistence failures",
		}),
		CircuitBreakerDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "journey_audit_circuit_breaker_dropped_total",
			Help: "Total number of audit events dropped due to circuit breaker",
		}),
		CircuitBreakerState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "journey_audit_circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed/healthy, 1=open/unhealthy)",
		}),
	}
}

// IncEnqueued increments the enqueued counter.
func (m *Metrics) IncEnqueued() {
	m.Enqueued.Inc()
}

// IncPersisted increments the persisted counter.
func (m *Metrics) IncPersisted() {
	m.Persisted.Inc()
}

// IncPersistFailures increments the persist failures counter.
func (m *Metrics) IncPersistFailures() {
	m.PersistFailures.Inc()
}

// IncCircuitBreakerDropped increments the circuit breaker dropped counter.
func (m *Metrics) IncCircuitBreakerDropped() {
	m.CircuitBreakerDropped.Inc()
}

// AddBufferDropped adds to the buffer-dropped counter.
func (m *Metrics) AddBufferDropped(n float64) {
	m.BufferDropped.Add(n)
}

// SetCircuitBreakerState sets the circuit breaker state gauge.
func (m *Metrics) SetCircuitBreakerState(open bool) {
	if open {
		m.CircuitBreakerState.Set(1)
	} else {
		m.CircuitBreakerState.Set(0)
	}
}
