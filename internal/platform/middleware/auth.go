package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"journey/internal/audit"
	jwttoken "journey/internal/jwt_token"
	"journey/internal/platform/metrics"
	"journey/pkg/requestcontext"
)

// TokenDecoder validates a compact token string and returns its claims.
type TokenDecoder interface {
	Decode(tokenString string) (*jwttoken.Claims, error)
}

// SecurityEventSink receives fire-and-forget security events.
type SecurityEventSink interface {
	LogSecurityEvent(ctx context.Context, actorID string, eventType audit.EventType, clientIP, resourcePath string)
}

const (
	bearerPrefix = "Bearer "
	unknownActor = "unknown"
	rolePrefix   = "ROLE_"
)

type pipeline struct {
	classifier *Classifier
	decoder    TokenDecoder
	sink       SecurityEventSink
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
}

// Authenticate builds the per-request authentication pipeline. The pipeline
// decorates requests with caller identity; it never rejects. Enforcement is
// the handlers' job, via requestcontext.Security.
func Authenticate(classifier *Classifier, decoder TokenDecoder, sink SecurityEventSink, m *metrics.Metrics, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := &pipeline{
		classifier: classifier,
		decoder:    decoder,
		sink:       sink,
		metrics:    m,
		logger:     logger,
		tracer:     otel.Tracer("journey/internal/platform/middleware"),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Minted before the exemption check so exempt requests stay
			// traceable in downstream logs.
			ctx := requestcontext.WithCorrelationID(r.Context(), uuid.NewString())

			if p.classifier.ShouldSkip(r.URL.Path) {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			p.logger.InfoContext(ctx, "authenticating request",
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", requestcontext.CorrelationID(ctx),
			)

			ctx = p.authenticate(ctx, r)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authenticate runs credential extraction and decode dispatch, returning a
// context that carries the caller identity on success and is otherwise
// unchanged beyond the correlation id.
func (p *pipeline) authenticate(ctx context.Context, r *http.Request) context.Context {
	token, ok := bearerToken(r)
	if !ok {
		// Absent or non-bearer credentials are not a security event.
		return ctx
	}

	ctx, span := p.tracer.Start(ctx, "authenticate")
	defer span.End()

	requestID := requestcontext.CorrelationID(ctx)
	clientIP := ClientIPFromRequest(r)
	path := r.URL.Path

	claims, err := p.decoder.Decode(token)
	switch {
	case err == nil:
		ctx = requestcontext.WithSecurity(ctx, requestcontext.SecurityContext{
			Principal:   claims.Subject,
			Authorities: toAuthorities(claims.Roles),
		})
		span.SetAttributes(attribute.String("enduser.id", claims.Subject))
		p.logger.InfoContext(ctx, "authenticated user",
			"user_id", claims.Subject,
			"path", path,
			"request_id", requestID,
		)
		p.emit(ctx, claims.Subject, audit.EventAuthSuccess, clientIP, path)
	case errors.Is(err, jwttoken.ErrExpired):
		p.logger.WarnContext(ctx, "token expired",
			"path", path,
			"request_id", requestID,
		)
		p.emit(ctx, unknownActor, audit.EventTokenExpired, clientIP, path)
	case errors.Is(err, jwttoken.ErrInvalidSignature):
		p.logger.WarnContext(ctx, "token signature rejected",
			"path", path,
			"request_id", requestID,
		)
		p.emit(ctx, unknownActor, audit.EventInvalidSignature, clientIP, path)
	default:
		p.logger.WarnContext(ctx, "authentication failed",
			"error", err,
			"path", path,
			"request_id", requestID,
		)
		p.emit(ctx, unknownActor, audit.EventAuthFailure, clientIP, path)
	}
	return ctx
}

// emit forwards a security event without letting a misbehaving sink disturb
// the request.
func (p *pipeline) emit(ctx context.Context, actorID string, eventType audit.EventType, clientIP, path string) {
	if p.metrics != nil {
		p.metrics.IncAuthOutcome(string(eventType))
	}
	if p.sink == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.ErrorContext(ctx, "audit sink panicked",
				"panic", rec,
				"event", string(eventType),
				"request_id", requestcontext.CorrelationID(ctx),
			)
		}
	}()
	p.sink.LogSecurityEvent(ctx, actorID, eventType, clientIP, path)
}

// bearerToken extracts the token from the Authorization header. A bearer
// header with nothing after the scheme counts as absent credentials.
func bearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
	if !ok || strings.TrimSpace(token) == "" {
		return "", false
	}
	return token, true
}

func toAuthorities(roles []string) []string {
	authorities := make([]string, len(roles))
	for i, role := range roles {
		authorities[i] = rolePrefix + role
	}
	return authorities
}
