package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"journey/internal/transport/http/shared"
)

// HealthHandler serves the liveness endpoints. These paths are exempt from
// authentication and rate limiting.
type HealthHandler struct {
	startedAt time.Time
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{startedAt: time.Now()}
}

func (h *HealthHandler) Register(r chi.Router) {
	for _, path := range []string{"/health", "/ping", "/api/health", "/api/ping"} {
		r.Get(path, h.handleStatus)
	}
}

func (h *HealthHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"status":         "UP",
		"service":        "journey",
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
	})
}
