package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"journey/internal/transport/http/shared"
	dErrors "journey/pkg/domain-errors"
	"journey/pkg/requestcontext"
)

// UserHandler serves user profile endpoints. Authorization decisions happen
// here, against the security context the middleware established.
type UserHandler struct {
	logger *slog.Logger
}

func NewUserHandler(logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &UserHandler{logger: logger}
}

func (h *UserHandler) Register(r chi.Router) {
	r.Get("/api/users/profile/{userID}", h.handleProfile)
}

func (h *UserHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "userID")

	sec, ok := requestcontext.Security(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	if sec.Principal != userID && !sec.HasAuthority("ROLE_ADMIN") {
		h.logger.WarnContext(ctx, "profile access denied",
			"principal", sec.Principal,
			"target", userID,
			"request_id", requestcontext.CorrelationID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "insufficient permissions"))
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"uid":         userID,
		"authorities": sec.Authorities,
		"requestedBy": sec.Principal,
	})
}
