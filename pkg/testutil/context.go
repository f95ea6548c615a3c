package testutil

import (
	"net/http"

	"journey/pkg/requestcontext"
)

// WithAuth adds an authenticated caller to the request context.
// This simulates what the authentication middleware does on decode success.
func WithAuth(req *http.Request, principal string, authorities ...string) *http.Request {
	ctx := requestcontext.WithSecurity(req.Context(), requestcontext.SecurityContext{
		Principal:   principal,
		Authorities: authorities,
	})
	return req.WithContext(ctx)
}

// WithClientMetadata adds client IP and User-Agent to the request context.
func WithClientMetadata(req *http.Request, clientIP, userAgent string) *http.Request {
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), clientIP, userAgent))
}

// WithCorrelationID adds a correlation ID to the request context.
func WithCorrelationID(req *http.Request, correlationID string) *http.Request {
	return req.WithContext(requestcontext.WithCorrelationID(req.Context(), correlationID))
}
