// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// This package defines context keys and getter/setter functions for values that are
// set by middleware but consumed by services and handlers. Everything stored here
// lives and dies with a single request context, so nothing can bleed between
// concurrently processed requests.
//
// Usage in services (read values):
//
//	actorID := requestcontext.ActorID(ctx)
//	correlationID := requestcontext.CorrelationID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithSecurity(ctx, sc)
//	ctx = requestcontext.WithCorrelationID(ctx, correlationID)
package requestcontext

import (
	"context"
	"time"
)

// Context key types (unexported for encapsulation).
type (
	securityKey      struct{}
	correlationIDKey struct{}
	clientIPKey      struct{}
	userAgentKey     struct{}
	requestTimeKey   struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeySecurity      = securityKey{}
	ContextKeyCorrelationID = correlationIDKey{}
	ContextKeyClientIP      = clientIPKey{}
	ContextKeyUserAgent     = userAgentKey{}
	ContextKeyRequestTime   = requestTimeKey{}
)

// -----------------------------------------------------------------------------
// Security context
// -----------------------------------------------------------------------------

// SecurityContext identifies the authenticated caller of the current request.
// Absence from the context means the request is anonymous.
type SecurityContext struct {
	Principal   string
	Authorities []string
}

// HasAuthority reports whether the caller holds the given authority.
func (sc SecurityContext) HasAuthority(authority string) bool {
	for _, a := range sc.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

// Security retrieves the caller identity established by authentication.
// ok is false for anonymous requests.
func Security(ctx context.Context) (SecurityContext, bool) {
	sc, ok := ctx.Value(ContextKeySecurity).(SecurityContext)
	return sc, ok
}

// WithSecurity injects an authenticated caller identity into the context.
func WithSecurity(ctx context.Context, sc SecurityContext) context.Context {
	return context.WithValue(ctx, ContextKeySecurity, sc)
}

// ActorID retrieves the authenticated principal from the context.
// Returns "" for anonymous requests.
func ActorID(ctx context.Context) string {
	sc, _ := Security(ctx)
	return sc.Principal
}

// -----------------------------------------------------------------------------
// Client metadata (IP, User-Agent)
// -----------------------------------------------------------------------------

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
// Useful for service unit tests that don't run the full HTTP middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClientIP, clientIP)
	ctx = context.WithValue(ctx, ContextKeyUserAgent, userAgent)
	return ctx
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// CorrelationID retrieves the request correlation ID from the context.
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyCorrelationID).(string); ok {
		return id
	}
	return ""
}

// WithCorrelationID injects a correlation ID into the context.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, ContextKeyCorrelationID, correlationID)
}

// -----------------------------------------------------------------------------
// Request time
// -----------------------------------------------------------------------------

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (for non-HTTP contexts like workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
// Useful for:
//   - Service unit tests that don't run the full HTTP middleware chain
//   - Workers that need consistent time within a batch operation
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
