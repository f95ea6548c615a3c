// Package httptransport wires the HTTP surface: the middleware chain that
// establishes request identity and the handlers that consume it.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"journey/internal/audit"
	jwttoken "journey/internal/jwt_token"
	"journey/internal/platform/metrics"
	"journey/internal/platform/middleware"
	"journey/internal/ratelimit"
)

// Deps carries everything the router needs. Audit and Limiter are optional;
// nil disables the corresponding concern.
type Deps struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Tokens  *jwttoken.Service
	Audit   *audit.Service
	Limiter *ratelimit.Limiter
}

// NewRouter assembles the middleware chain and mounts all routes. Order
// matters: client metadata and rate limiting run before authentication so
// audit events carry the resolved client address, and request logging runs
// after authentication so log lines carry the correlation id.
func NewRouter(deps Deps) http.Handler {
	var sink middleware.SecurityEventSink
	if deps.Audit != nil {
		sink = deps.Audit
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	if deps.Limiter != nil {
		r.Use(middleware.RateLimit(deps.Limiter, sink, deps.Metrics, deps.Logger))
	}
	r.Use(middleware.Authenticate(middleware.NewClassifier(), deps.Tokens, sink, deps.Metrics, deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger, deps.Metrics))

	NewHealthHandler().Register(r)

	var handlerSink SecurityEventSink
	if deps.Audit != nil {
		handlerSink = deps.Audit
	}
	NewAuthHandler(deps.Tokens, handlerSink, deps.Logger).Register(r)
	NewUserHandler(deps.Logger).Register(r)

	r.Handle("/metrics", promhttp.Handler())

	return r
}
