// AngelaMos | 2026
// handler.go

package auth

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/barbermaster/internal/core"
	"github.com/carterperez-dev/barbermaster/internal/middleware"
)

type Revoker interface {
	Revoke(ctx context.Context, s *middleware.Session) error
}

type Handler struct {
	sessions *SessionManager
	revoker  Revoker
}

func NewHandler(sessions *SessionManager) *Handler {
	return &Handler{sessions: sessions, revoker: sessions}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/.well-known/jwks.json", h.sessions.JWKSHandler())
}

// Logout revokes the session that authenticated the request. It is mounted
// under both the admin and barber route groups.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	if session == nil {
		core.JSONError(w, core.UnauthorizedError("authentication required"))
		return
	}

	if err := h.revoker.Revoke(r.Context(), session); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}
