// AngelaMos | 2026
// handler.go

package onboarding

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/barbermaster/internal/core"
	"github.com/carterperez-dev/barbermaster/internal/middleware"
)

type RegisterRequest struct {
	OwnerName    string `json:"ownerName"    validate:"required,min=2,max=100"`
	Email        string `json:"email"        validate:"required,email,max=255"`
	Password     string `json:"password"     validate:"required,min=8,max=128"`
	BusinessName string `json:"businessName" validate:"required,min=2,max=150"`
	TaxID        string `json:"taxId"        validate:"required,max=20"`
	Phone        string `json:"phone"        validate:"omitempty,max=20"`
	PostalCode   string `json:"postalCode"   validate:"omitempty,max=10"`
	Street       string `json:"street"       validate:"omitempty,max=200"`
	StreetNumber string `json:"streetNumber" validate:"omitempty,max=20"`
	District     string `json:"district"     validate:"omitempty,max=100"`
	City         string `json:"city"         validate:"omitempty,max=100"`
	State        string `json:"state"        validate:"omitempty,len=2"`
	Code         string `json:"code"         validate:"required,len=6,numeric"`
}

type RedeemRequest struct {
	Key    string `json:"chave"  validate:"required,max=32"`
	UserID string `json:"userId" validate:"omitempty,uuid"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"       validate:"required,email,max=255"`
	Token       string `json:"token"       validate:"required,hexadecimal,len=64"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=128"`
}

type Handler struct {
	orchestrator *Orchestrator
	validator    *validator.Validate
}

func NewHandler(orchestrator *Orchestrator) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		validator:    core.NewValidator(),
	}
}

// RegisterRoutes mounts the tenant onboarding endpoints on the /barber
// router. optionalAuth lets a logged in barber redeem without sending an id.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	optionalAuth func(http.Handler) http.Handler,
) {
	r.Post("/register", h.Register)
	r.With(optionalAuth).Post("/validar-licenca", h.RedeemLicense)
	r.Post("/reset-password", h.ResetPassword)
	r.Get("/onboarding-status", h.Status)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.orchestrator.CompleteRegistration(r.Context(), RegistrationInput{
		OwnerName:    req.OwnerName,
		Email:        req.Email,
		Password:     req.Password,
		BusinessName: req.BusinessName,
		TaxID:        req.TaxID,
		Phone:        req.Phone,
		PostalCode:   req.PostalCode,
		Street:       req.Street,
		StreetNumber: req.StreetNumber,
		District:     req.District,
		City:         req.City,
		State:        req.State,
		Code:         req.Code,
	})
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, map[string]string{"userId": id})
}

func (h *Handler) RedeemLicense(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if !h.decode(w, r, &req) {
		return
	}

	tenantID := req.UserID
	if s := middleware.GetSession(r.Context()); s != nil && s.Role == roleBarber {
		tenantID = s.SubjectID
	}
	if tenantID == "" {
		core.BadRequest(w, "userId is required")
		return
	}

	if err := h.orchestrator.RedeemLicense(r.Context(), req.Key, tenantID); err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, map[string]string{"message": "license activated"})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.orchestrator.ResetPassword(r.Context(), req.Email, req.Token, req.NewPassword); err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, map[string]string{"message": "password updated"})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if err := h.validator.Var(email, "required,email"); err != nil {
		core.BadRequest(w, "a valid email query parameter is required")
		return
	}

	state, err := h.orchestrator.Status(r.Context(), email)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, map[string]State{"state": state})
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
