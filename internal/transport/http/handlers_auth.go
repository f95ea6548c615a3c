package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"journey/internal/audit"
	jwttoken "journey/internal/jwt_token"
	"journey/internal/transport/http/shared"
	dErrors "journey/pkg/domain-errors"
	"journey/pkg/requestcontext"
)

// TokenService is the slice of the token codec the auth endpoints need.
type TokenService interface {
	Decode(tokenString string) (*jwttoken.Claims, error)
	Refresh(tokenString string) (string, error)
}

// SecurityEventSink receives fire-and-forget security events.
type SecurityEventSink interface {
	LogSecurityEvent(ctx context.Context, actorID string, eventType audit.EventType, clientIP, resourcePath string)
}

// AuthHandler serves the token lifecycle endpoints. The service is stateless:
// logout is client-side token disposal, recorded for the audit trail only.
type AuthHandler struct {
	tokens TokenService
	sink   SecurityEventSink
	logger *slog.Logger
}

func NewAuthHandler(tokens TokenService, sink SecurityEventSink, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AuthHandler{tokens: tokens, sink: sink, logger: logger}
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/api/auth/refresh", h.handleRefresh)
	r.Post("/api/auth/logout", h.handleLogout)
	r.Get("/api/auth/me", h.handleMe)
	r.Get("/api/auth/verify", h.handleVerify)
}

func (h *AuthHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "token is required"))
		return
	}

	newToken, err := h.tokens.Refresh(req.Token)
	if err != nil {
		h.logger.WarnContext(ctx, "token refresh rejected",
			"error", err,
			"request_id", requestcontext.CorrelationID(ctx),
		)
		if errors.Is(err, jwttoken.ErrExpired) {
			shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "token is beyond the refresh window"))
			return
		}
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
		return
	}

	claims, err := h.tokens.Decode(newToken)
	if err != nil {
		h.logger.ErrorContext(ctx, "freshly issued token failed to decode",
			"error", err,
			"request_id", requestcontext.CorrelationID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "token issuance failed"))
		return
	}

	h.emit(ctx, claims.Subject, audit.EventTokenRefreshed, r.URL.Path)
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"token":     newToken,
		"expiresAt": claims.ExpiresAt.Time.UTC().Format(time.RFC3339),
	})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Best-effort actor extraction; logout succeeds regardless.
	if token, ok := bearerToken(r); ok {
		if claims, err := h.tokens.Decode(token); err == nil {
			h.emit(ctx, claims.Subject, audit.EventUserLogout, r.URL.Path)
		}
	}

	shared.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
		return
	}

	claims, err := h.tokens.Decode(token)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"uid":         claims.Subject,
			"email":       claims.Email,
			"displayName": claims.DisplayName,
			"roles":       claims.Roles,
		},
	})
}

func (h *AuthHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		shared.WriteJSON(w, http.StatusUnauthorized, map[string]any{"valid": false})
		return
	}

	claims, err := h.tokens.Decode(token)
	if err != nil {
		shared.WriteJSON(w, http.StatusUnauthorized, map[string]any{"valid": false})
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"valid": true,
		"uid":   claims.Subject,
		"roles": claims.Roles,
	})
}

func (h *AuthHandler) emit(ctx context.Context, actorID string, eventType audit.EventType, path string) {
	if h.sink == nil {
		return
	}
	h.sink.LogSecurityEvent(ctx, actorID, eventType, requestcontext.ClientIP(ctx), path)
}

// bearerToken extracts the token from the Authorization header. A bearer
// header with nothing after the scheme counts as absent credentials.
func bearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", false
	}
	return token, true
}
