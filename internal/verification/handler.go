// AngelaMos | 2026
// handler.go

package verification

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/barbermaster/internal/core"
)

type EmailRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type Handler struct {
	registry  *Registry
	validator *validator.Validate
}

func NewHandler(registry *Registry) *Handler {
	return &Handler{
		registry:  registry,
		validator: core.NewValidator(),
	}
}

// RegisterRoutes mounts the code and password reset request endpoints.
// limit wraps both with the stricter credential rate limiter.
func (h *Handler) RegisterRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.With(limit).Post("/send-code", h.SendCode)
	r.With(limit).Post("/forgot-password", h.ForgotPassword)
}

func (h *Handler) SendCode(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	if err := h.registry.RequestCode(r.Context(), req.Email); err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, map[string]string{"message": "verification code sent"})
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	if err := h.registry.RequestPasswordReset(r.Context(), req.Email); err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, map[string]string{"message": "password reset email sent"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (EmailRequest, bool) {
	var req EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return req, false
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return req, false
	}

	return req, true
}
