// AngelaMos | 2026
// catalog.go

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/barbermaster/internal/audit"
	"github.com/carterperez-dev/barbermaster/internal/core"
)

// Service is something a barbershop sells, such as a haircut.
type Service struct {
	ID              string          `db:"id"               json:"id"`
	BarberID        string          `db:"barber_id"        json:"barberId"`
	Name            string          `db:"name"             json:"name"`
	Price           decimal.Decimal `db:"price"            json:"price"`
	DurationMinutes int             `db:"duration_minutes" json:"durationMinutes"`
	CreatedAt       time.Time       `db:"created_at"       json:"createdAt"`
}

var (
	ErrServiceNotFound = core.NotFoundError("service")
	ErrServiceInUse    = core.ConflictError(
		"SERVICE_IN_USE",
		"service has appointments and cannot be deleted",
		http.StatusConflict,
	)
)

type Repository interface {
	Create(ctx context.Context, s *Service) error
	ListByBarber(ctx context.Context, barberID string) ([]Service, error)
	Delete(ctx context.Context, barberID, id string) (*Service, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, s *Service) error {
	query := `
		INSERT INTO services (id, barber_id, name, price, duration_minutes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query,
		s.ID, s.BarberID, s.Name, s.Price, s.DurationMinutes,
	).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	return nil
}

func (r *repository) ListByBarber(ctx context.Context, barberID string) ([]Service, error) {
	query := `
		SELECT id, barber_id, name, price, duration_minutes, created_at
		FROM services
		WHERE barber_id = $1
		ORDER BY name ASC`

	services := []Service{}
	if err := r.db.SelectContext(ctx, &services, query, barberID); err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}

	return services, nil
}

// Delete removes a service owned by barberID and returns what was removed.
func (r *repository) Delete(ctx context.Context, barberID, id string) (*Service, error) {
	query := `
		DELETE FROM services
		WHERE id = $1 AND barber_id = $2
		RETURNING id, barber_id, name, price, duration_minutes, created_at`

	services := []Service{}
	if err := r.db.SelectContext(ctx, &services, query, id, barberID); err != nil {
		if core.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("delete service: %w", ErrServiceInUse)
		}
		return nil, fmt.Errorf("delete service: %w", err)
	}
	if len(services) == 0 {
		return nil, fmt.Errorf("delete service: %w", ErrServiceNotFound)
	}

	return &services[0], nil
}

type Catalog struct {
	repo  Repository
	audit *audit.Log
}

func NewCatalog(repo Repository, auditLog *audit.Log) *Catalog {
	return &Catalog{repo: repo, audit: auditLog}
}

type CreateInput struct {
	Name            string
	Price           decimal.Decimal
	DurationMinutes int
}

func (c *Catalog) Create(ctx context.Context, barberID string, in CreateInput) (*Service, error) {
	if in.Price.IsNegative() {
		return nil, core.ValidationError("price must not be negative")
	}

	s := &Service{
		ID:              uuid.New().String(),
		BarberID:        barberID,
		Name:            in.Name,
		Price:           in.Price.Round(2),
		DurationMinutes: in.DurationMinutes,
	}
	if err := c.repo.Create(ctx, s); err != nil {
		return nil, err
	}

	c.audit.Record(ctx, barberID, audit.ActionServiceCreated, s.Name)
	return s, nil
}

func (c *Catalog) List(ctx context.Context, barberID string) ([]Service, error) {
	if _, err := uuid.Parse(barberID); err != nil {
		return []Service{}, nil
	}
	return c.repo.ListByBarber(ctx, barberID)
}

func (c *Catalog) Delete(ctx context.Context, barberID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrServiceNotFound
	}

	removed, err := c.repo.Delete(ctx, barberID, id)
	if err != nil {
		return err
	}

	c.audit.Record(ctx, barberID, audit.ActionServiceDeleted, removed.Name)
	slog.InfoContext(ctx, "service deleted", "barber_id", barberID, "service_id", id)
	return nil
}
