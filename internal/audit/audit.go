// AngelaMos | 2026
// audit.go

package audit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/barbermaster/internal/core"
	"github.com/carterperez-dev/barbermaster/internal/middleware"
)

const (
	ActionLicenseActivated    = "license.activated"
	ActionServiceCreated      = "service.created"
	ActionServiceDeleted      = "service.deleted"
	ActionAppointmentStatus   = "appointment.status_changed"
	ActionOpeningHoursUpdated = "opening_hours.updated"
	ActionPasswordReset       = "password.reset"
	ActionProfileImageUpdated = "profile_image.updated"

	recentLimit = 100
)

type ctxKey string

const ipContextKey ctxKey = "client_ip"

type Entry struct {
	ID        int64     `db:"id"         json:"id"`
	BarberID  string    `db:"barber_id"  json:"barberId"`
	Action    string    `db:"action"     json:"action"`
	Details   string    `db:"details"    json:"details"`
	IPAddress string    `db:"ip_address" json:"ipAddress"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	ListRecent(ctx context.Context, barberID string, limit int) ([]Entry, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, e *Entry) error {
	query := `
		INSERT INTO audit_logs (barber_id, action, details, ip_address)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	row := r.db.QueryRowxContext(ctx, query, e.BarberID, e.Action, e.Details, e.IPAddress)
	if err := row.Scan(&e.ID, &e.CreatedAt); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}

func (r *repository) ListRecent(ctx context.Context, barberID string, limit int) ([]Entry, error) {
	query := `
		SELECT id, barber_id, action, details, ip_address, created_at
		FROM audit_logs
		WHERE barber_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	entries := []Entry{}
	if err := r.db.SelectContext(ctx, &entries, query, barberID, limit); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}

	return entries, nil
}

// Log records tenant actions. Recording never fails the operation that
// triggered it.
type Log struct {
	repo Repository
}

func NewLog(repo Repository) *Log {
	return &Log{repo: repo}
}

func (l *Log) Record(ctx context.Context, barberID, action, details string) {
	if l == nil {
		return
	}

	e := &Entry{
		BarberID:  barberID,
		Action:    action,
		Details:   details,
		IPAddress: ClientIP(ctx),
	}

	if err := l.repo.Insert(ctx, e); err != nil {
		slog.WarnContext(ctx, "audit entry not recorded",
			"barber_id", barberID,
			"action", action,
			"error", err,
		)
	}
}

func (l *Log) Recent(ctx context.Context, barberID string) ([]Entry, error) {
	return l.repo.ListRecent(ctx, barberID, recentLimit)
}

// CaptureIP stores the caller address on the request context so services
// can attribute entries without seeing the request.
func CaptureIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ipContextKey, middleware.ClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ipContextKey).(string); ok {
		return ip
	}
	return ""
}

type Handler struct {
	log *Log
}

func NewHandler(log *Log) *Handler {
	return &Handler{log: log}
}

// RegisterRoutes expects r to already require a barber session.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/logs", h.List)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.log.Recent(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, entries)
}
