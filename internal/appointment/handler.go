// AngelaMos | 2026
// handler.go

package appointment

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/barbermaster/internal/core"
	"github.com/carterperez-dev/barbermaster/internal/middleware"
)

type BookRequest struct {
	BarberID    string    `json:"barberId"    validate:"required,uuid"`
	ServiceID   string    `json:"serviceId"   validate:"required,uuid"`
	ClientName  string    `json:"clientName"  validate:"required,min=2,max=100"`
	ClientPhone string    `json:"clientPhone" validate:"required,min=8,max=20"`
	StartTime   time.Time `json:"startTime"   validate:"required"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type OpeningHoursRequest struct {
	Hours []OpeningHours `json:"hours" validate:"max=7,dive"`
}

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

// RegisterRoutes mounts booking on r and the agenda endpoints behind the
// given middleware chain.
func (h *Handler) RegisterRoutes(r chi.Router, protected ...func(http.Handler) http.Handler) {
	r.Route("/appointments", func(r chi.Router) {
		r.Post("/book", h.Book)

		r.Group(func(r chi.Router) {
			r.Use(protected...)

			r.Get("/my-agenda", h.Agenda)
			r.Get("/dashboard", h.Dashboard)
			r.Get("/opening-hours", h.GetOpeningHours)
			r.Put("/opening-hours", h.PutOpeningHours)
			r.Patch("/{appointmentID}/status", h.UpdateStatus)
		})
	})
}

func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	if !h.decode(w, r, &req) {
		return
	}

	a, err := h.service.Book(r.Context(), BookingInput{
		BarberID:    req.BarberID,
		ServiceID:   req.ServiceID,
		ClientName:  req.ClientName,
		ClientPhone: req.ClientPhone,
		StartTime:   req.StartTime,
	})
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, a)
}

func (h *Handler) Agenda(w http.ResponseWriter, r *http.Request) {
	from, err := parseTimeQuery(r, "from", h.service.location)
	if err != nil {
		core.BadRequest(w, "from must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
		return
	}
	to, err := parseTimeQuery(r, "to", h.service.location)
	if err != nil {
		core.BadRequest(w, "to must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
		return
	}

	entries, err := h.service.Agenda(r.Context(), middleware.GetUserID(r.Context()), from, to)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, entries)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Dashboard(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, summary)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	a, err := h.service.UpdateStatus(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "appointmentID"),
		req.Status,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, a)
}

func (h *Handler) GetOpeningHours(w http.ResponseWriter, r *http.Request) {
	hours, err := h.service.OpeningHours(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, hours)
}

func (h *Handler) PutOpeningHours(w http.ResponseWriter, r *http.Request) {
	var req OpeningHoursRequest
	if !h.decode(w, r, &req) {
		return
	}

	barberID := middleware.GetUserID(r.Context())
	if err := h.service.SetOpeningHours(r.Context(), barberID, req.Hours); err != nil {
		core.JSONError(w, err)
		return
	}

	hours, err := h.service.OpeningHours(r.Context(), barberID)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, hours)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}

	return true
}

func parseTimeQuery(r *http.Request, key string, loc *time.Location) (time.Time, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return time.Time{}, nil
	}

	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t, nil
	}

	return time.ParseInLocation(time.DateOnly, val, loc)
}
