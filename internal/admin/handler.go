// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carterperez-dev/barbermaster/internal/barber"
	"github.com/carterperez-dev/barbermaster/internal/core"
	"github.com/carterperez-dev/barbermaster/internal/licensing"
	"github.com/carterperez-dev/barbermaster/internal/middleware"
)

type KeyLedger interface {
	Generate(ctx context.Context) (*licensing.LicenseKey, error)
	List(ctx context.Context, params licensing.ListParams) ([]licensing.KeyListing, error)
	Delete(ctx context.Context, id string) error
	Counts(ctx context.Context) (map[string]int, error)
}

type TenantDirectory interface {
	ListPending(ctx context.Context) ([]barber.Barber, error)
	Counts(ctx context.Context) (*barber.Counts, error)
}

type KeyDeliverer interface {
	AdminIssueAndDeliver(ctx context.Context, tenantEmail, tenantID string) (*licensing.LicenseKey, error)
}

type Handler struct {
	service   *Service
	keys      KeyLedger
	tenants   TenantDirectory
	deliverer KeyDeliverer
	stats     StatsConfig
	validator *validator.Validate
}

type HandlerConfig struct {
	Service   *Service
	Keys      KeyLedger
	Tenants   TenantDirectory
	Deliverer KeyDeliverer
	Stats     StatsConfig
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		service:   cfg.Service,
		keys:      cfg.Keys,
		tenants:   cfg.Tenants,
		deliverer: cfg.Deliverer,
		stats:     cfg.Stats,
		validator: core.NewValidator(),
	}
}

// RegisterRoutes mounts the admin console. limit guards the unauthenticated
// endpoints.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, limit func(http.Handler) http.Handler,
	logout http.HandlerFunc,
) {
	r.Route("/admin", func(r chi.Router) {
		r.With(limit).Post("/setup-master", h.SetupMaster)
		r.With(limit).Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Use(middleware.RequireAdmin)

			r.Post("/logout", logout)
			r.Put("/password", h.ChangePassword)

			r.Post("/generate-key", h.GenerateKey)
			r.Get("/keys", h.ListKeys)
			r.Delete("/keys/{keyID}", h.DeleteKey)
			r.Get("/pendentes", h.ListPending)
			r.Post("/enviar-chave", h.DeliverKey)

			r.Get("/stats", h.GetSystemStats)
			r.Get("/stats/db", h.GetDatabaseStats)
			r.Get("/stats/redis", h.GetRedisStats)
			r.Get("/stats/runtime", h.GetRuntimeStats)
		})
	})
}

func (h *Handler) SetupMaster(w http.ResponseWriter, r *http.Request) {
	var req SetupMasterRequest
	if !h.decode(w, r, &req) {
		return
	}

	a, err := h.service.SetupMaster(r.Context(), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, map[string]string{"id": a.ID})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.ChangePassword(r.Context(), middleware.GetUserID(r.Context()), req); err != nil {
		core.JSONError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) GenerateKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.keys.Generate(r.Context())
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, KeyResponse{Chave: key.Code})
}

func (h *Handler) ListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.keys.List(r.Context(), licensing.ListParams{
		Status: r.URL.Query().Get("status"),
	})
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, keys)
}

func (h *Handler) DeleteKey(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "keyID")
	if _, err := uuid.Parse(keyID); err != nil {
		core.JSONError(w, licensing.ErrKeyNotFound)
		return
	}

	if err := h.keys.Delete(r.Context(), keyID); err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, map[string]string{"id": keyID})
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.tenants.ListPending(r.Context())
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, barber.ToPendingResponseList(pending))
}

func (h *Handler) DeliverKey(w http.ResponseWriter, r *http.Request) {
	var req DeliverKeyRequest
	if !h.decode(w, r, &req) {
		return
	}

	key, err := h.deliverer.AdminIssueAndDeliver(r.Context(), req.Email, req.TenantID)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, KeyResponse{Chave: key.Code})
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
