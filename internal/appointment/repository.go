// AngelaMos | 2026
// repository.go

package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/barbermaster/internal/core"
)

type Repository interface {
	LockSlot(ctx context.Context, barberID string, start time.Time) error
	GetOpeningHours(ctx context.Context, barberID string, day int) (*OpeningHours, error)
	ListOpeningHours(ctx context.Context, barberID string) ([]OpeningHours, error)
	ReplaceOpeningHours(ctx context.Context, barberID string, hours []OpeningHours) error
	ServiceBelongsTo(ctx context.Context, serviceID, barberID string) (bool, error)
	SlotTaken(ctx context.Context, barberID string, start time.Time) (bool, error)
	Insert(ctx context.Context, a *Appointment) error
	GetForBarber(ctx context.Context, barberID, id string) (*Appointment, error)
	UpdateStatus(ctx context.Context, id, status string) (*Appointment, error)
	ListForBarber(ctx context.Context, barberID string, from, to time.Time) ([]AgendaEntry, error)
	Summarize(ctx context.Context, barberID string, from, to time.Time) (int, decimal.Decimal, error)
}

// Store runs repository calls against the pool or inside one transaction.
type Store interface {
	Repository
	InTx(ctx context.Context, fn func(repo Repository) error) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

type sqlStore struct {
	Repository
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) Store {
	return &sqlStore{Repository: NewRepository(db), db: db}
}

func (s *sqlStore) InTx(ctx context.Context, fn func(repo Repository) error) error {
	return core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(NewRepository(tx))
	})
}

const appointmentColumns = `id, barber_id, service_id, client_name, client_phone,
		       start_time, status, created_at, updated_at`

// LockSlot serializes bookings of one barber slot until the transaction ends.
func (r *repository) LockSlot(ctx context.Context, barberID string, start time.Time) error {
	query := `SELECT pg_advisory_xact_lock(hashtextextended($1::text || '|' || $2::text, 0))`

	if _, err := r.db.ExecContext(ctx, query, barberID, start.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("lock slot: %w", err)
	}

	return nil
}

func (r *repository) GetOpeningHours(
	ctx context.Context,
	barberID string,
	day int,
) (*OpeningHours, error) {
	query := `
		SELECT day_of_week, is_open,
		       COALESCE(to_char(opens_at, 'HH24:MI'), '') AS opens_at,
		       COALESCE(to_char(closes_at, 'HH24:MI'), '') AS closes_at
		FROM opening_hours
		WHERE barber_id = $1 AND day_of_week = $2`

	var h OpeningHours
	err := r.db.GetContext(ctx, &h, query, barberID, day)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get opening hours: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get opening hours: %w", err)
	}

	return &h, nil
}

func (r *repository) ListOpeningHours(ctx context.Context, barberID string) ([]OpeningHours, error) {
	query := `
		SELECT day_of_week, is_open,
		       COALESCE(to_char(opens_at, 'HH24:MI'), '') AS opens_at,
		       COALESCE(to_char(closes_at, 'HH24:MI'), '') AS closes_at
		FROM opening_hours
		WHERE barber_id = $1
		ORDER BY day_of_week`

	hours := []OpeningHours{}
	if err := r.db.SelectContext(ctx, &hours, query, barberID); err != nil {
		return nil, fmt.Errorf("list opening hours: %w", err)
	}

	return hours, nil
}

func (r *repository) ReplaceOpeningHours(
	ctx context.Context,
	barberID string,
	hours []OpeningHours,
) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM opening_hours WHERE barber_id = $1`, barberID); err != nil {
		return fmt.Errorf("clear opening hours: %w", err)
	}

	query := `
		INSERT INTO opening_hours (barber_id, day_of_week, is_open, opens_at, closes_at)
		VALUES ($1, $2, $3, NULLIF($4, '')::time, NULLIF($5, '')::time)`

	for _, h := range hours {
		if _, err := r.db.ExecContext(ctx, query,
			barberID, h.DayOfWeek, h.IsOpen, h.OpensAt, h.ClosesAt); err != nil {
			return fmt.Errorf("insert opening hours: %w", err)
		}
	}

	return nil
}

func (r *repository) ServiceBelongsTo(ctx context.Context, serviceID, barberID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM services WHERE id = $1 AND barber_id = $2)`

	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, serviceID, barberID); err != nil {
		return false, fmt.Errorf("check service: %w", err)
	}

	return ok, nil
}

func (r *repository) SlotTaken(ctx context.Context, barberID string, start time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM appointments
			WHERE barber_id = $1 AND start_time = $2 AND status <> 'cancelled'
		)`

	var taken bool
	if err := r.db.GetContext(ctx, &taken, query, barberID, start); err != nil {
		return false, fmt.Errorf("check slot: %w", err)
	}

	return taken, nil
}

func (r *repository) Insert(ctx context.Context, a *Appointment) error {
	query := `
		INSERT INTO appointments (
			id, barber_id, service_id, client_name, client_phone, start_time, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, a, query,
		a.ID,
		a.BarberID,
		a.ServiceID,
		a.ClientName,
		a.ClientPhone,
		a.StartTime,
		a.Status,
	)
	if err != nil {
		if core.IsUniqueViolation(err, "appointments_active_slot_key") {
			return fmt.Errorf("insert appointment: %w", ErrSlotUnavailable)
		}
		return fmt.Errorf("insert appointment: %w", err)
	}

	return nil
}

func (r *repository) GetForBarber(ctx context.Context, barberID, id string) (*Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE id = $1 AND barber_id = $2`

	var a Appointment
	err := r.db.GetContext(ctx, &a, query, id, barberID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get appointment: %w", ErrAppointmentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}

	return &a, nil
}

// UpdateStatus changes the status of an open appointment. A closed one is
// reported as ErrAppointmentClosed.
func (r *repository) UpdateStatus(ctx context.Context, id, status string) (*Appointment, error) {
	query := `
		UPDATE appointments
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('completed', 'cancelled')
		RETURNING ` + appointmentColumns

	var a Appointment
	err := r.db.GetContext(ctx, &a, query, id, status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update appointment status: %w", ErrAppointmentClosed)
	}
	if err != nil {
		if core.IsUniqueViolation(err, "appointments_active_slot_key") {
			return nil, fmt.Errorf("update appointment status: %w", ErrSlotUnavailable)
		}
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	return &a, nil
}

func (r *repository) ListForBarber(
	ctx context.Context,
	barberID string,
	from, to time.Time,
) ([]AgendaEntry, error) {
	query := `
		SELECT a.id, a.barber_id, a.service_id, a.client_name, a.client_phone,
		       a.start_time, a.status, a.created_at, a.updated_at,
		       s.name AS service_name, s.price
		FROM appointments a
		JOIN services s ON s.id = a.service_id
		WHERE a.barber_id = $1 AND a.start_time >= $2 AND a.start_time < $3
		ORDER BY a.start_time ASC`

	entries := []AgendaEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, barberID, from, to); err != nil {
		return nil, fmt.Errorf("list agenda: %w", err)
	}

	return entries, nil
}

func (r *repository) Summarize(
	ctx context.Context,
	barberID string,
	from, to time.Time,
) (int, decimal.Decimal, error) {
	query := `
		SELECT COUNT(*) AS appointments,
		       COALESCE(SUM(s.price), 0) AS revenue
		FROM appointments a
		JOIN services s ON s.id = a.service_id
		WHERE a.barber_id = $1
		  AND a.start_time >= $2 AND a.start_time < $3
		  AND a.status <> 'cancelled'`

	var row struct {
		Appointments int             `db:"appointments"`
		Revenue      decimal.Decimal `db:"revenue"`
	}
	if err := r.db.GetContext(ctx, &row, query, barberID, from, to); err != nil {
		return 0, decimal.Zero, fmt.Errorf("summarize agenda: %w", err)
	}

	return row.Appointments, row.Revenue, nil
}
