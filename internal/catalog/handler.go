// AngelaMos | 2026
// handler.go

package catalog

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/barbermaster/internal/core"
	"github.com/carterperez-dev/barbermaster/internal/middleware"
)

type CreateServiceRequest struct {
	Name            string          `json:"name"            validate:"required,min=2,max=100"`
	Price           decimal.Decimal `json:"price"`
	DurationMinutes int             `json:"durationMinutes" validate:"required,min=5,max=480"`
}

type Handler struct {
	catalog   *Catalog
	validator *validator.Validate
}

func NewHandler(catalog *Catalog) *Handler {
	return &Handler{
		catalog:   catalog,
		validator: core.NewValidator(),
	}
}

// RegisterRoutes mounts the owner endpoints behind protected and the public
// listing used by the booking page.
func (h *Handler) RegisterRoutes(r chi.Router, protected ...func(http.Handler) http.Handler) {
	r.Get("/barbers/{barberID}/services", h.PublicList)

	r.Route("/services", func(r chi.Router) {
		r.Use(protected...)

		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Delete("/{serviceID}", h.Delete)
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	s, err := h.catalog.Create(r.Context(), middleware.GetUserID(r.Context()), CreateInput{
		Name:            req.Name,
		Price:           req.Price,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, s)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	services, err := h.catalog.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, services)
}

func (h *Handler) PublicList(w http.ResponseWriter, r *http.Request) {
	services, err := h.catalog.List(r.Context(), chi.URLParam(r, "barberID"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, services)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.catalog.Delete(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "serviceID"),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.NoContent(w)
}
