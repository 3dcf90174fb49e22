// AngelaMos | 2026
// handler.go

package barber

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/barbermaster/internal/core"
	"github.com/carterperez-dev/barbermaster/internal/middleware"
	"github.com/carterperez-dev/barbermaster/internal/storage"
)

const profileImageField = "image"

type Handler struct {
	service       *Service
	validator     *validator.Validate
	maxUploadSize int64
}

func NewHandler(service *Service, maxUploadSize int64) *Handler {
	return &Handler{
		service:       service,
		validator:     core.NewValidator(),
		maxUploadSize: maxUploadSize,
	}
}

// RegisterRoutes mounts tenant account routes on the /barber router. limit
// guards login.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, limit func(http.Handler) http.Handler,
	logout http.HandlerFunc,
) {
	r.With(limit).Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Use(middleware.RequireBarber)

		r.Post("/logout", logout)
		r.Get("/me", h.GetMe)
		r.Post("/me/profile-image", h.UploadProfileImage)
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	barberID := middleware.GetUserID(r.Context())

	resp, err := h.service.Profile(r.Context(), barberID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "barber")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) UploadProfileImage(w http.ResponseWriter, r *http.Request) {
	barberID := middleware.GetUserID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+(1<<20))
	file, _, err := r.FormFile(profileImageField)
	if err != nil {
		core.BadRequest(w, "multipart field \"image\" is required")
		return
	}
	defer file.Close() //nolint:errcheck // read-only upload

	data, err := storage.ReadLimited(file, h.maxUploadSize)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	_, ext, err := storage.DetectImage(data)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	resp, err := h.service.UpdateProfileImage(r.Context(), barberID, data, ext)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, resp)
}
