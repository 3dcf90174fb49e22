// AngelaMos | 2026
// service.go

package appointment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/barbermaster/internal/audit"
	"github.com/carterperez-dev/barbermaster/internal/core"
	"github.com/carterperez-dev/barbermaster/internal/metrics"
)

const (
	resultSlotTaken    = "slot_taken"
	resultOutsideHours = "outside_hours"
	defaultAgendaDays  = 30
)

type BookingInput struct {
	BarberID    string
	ServiceID   string
	ClientName  string
	ClientPhone string
	StartTime   time.Time
}

// Service books appointments for a barber and lets the barber manage them.
type Service struct {
	store    Store
	location *time.Location
	audit    *audit.Log
	metrics  *metrics.BookingMetrics
	now      func() time.Time
}

func NewService(
	store Store,
	location *time.Location,
	auditLog *audit.Log,
	m *metrics.BookingMetrics,
) *Service {
	if location == nil {
		location = time.UTC
	}
	return &Service{
		store:    store,
		location: location,
		audit:    auditLog,
		metrics:  m,
		now:      time.Now,
	}
}

// Book reserves a slot. The slot lock, the opening hours check, the
// occupancy check and the insert share one transaction.
func (s *Service) Book(ctx context.Context, in BookingInput) (*Appointment, error) {
	start := in.StartTime.Truncate(time.Minute)
	local := start.In(s.location)

	a := &Appointment{
		ID:          uuid.New().String(),
		BarberID:    in.BarberID,
		ServiceID:   in.ServiceID,
		ClientName:  strings.TrimSpace(in.ClientName),
		ClientPhone: strings.TrimSpace(in.ClientPhone),
		StartTime:   start,
		Status:      StatusScheduled,
	}

	err := s.store.InTx(ctx, func(repo Repository) error {
		if err := repo.LockSlot(ctx, in.BarberID, start); err != nil {
			return err
		}

		hours, err := repo.GetOpeningHours(ctx, in.BarberID, int(local.Weekday()))
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return ErrOutsideBusinessHours
			}
			return err
		}
		if !hours.IsOpen {
			return ErrOutsideBusinessHours
		}

		open, err := hours.Contains(local.Hour()*60 + local.Minute())
		if err != nil {
			return err
		}
		if !open {
			return ErrOutsideBusinessHours
		}

		offered, err := repo.ServiceBelongsTo(ctx, in.ServiceID, in.BarberID)
		if err != nil {
			return err
		}
		if !offered {
			return ErrUnknownService
		}

		taken, err := repo.SlotTaken(ctx, in.BarberID, start)
		if err != nil {
			return err
		}
		if taken {
			return ErrSlotUnavailable
		}

		return repo.Insert(ctx, a)
	})
	if err != nil {
		s.metrics.Booking(bookingResult(err))
		return nil, err
	}

	s.metrics.Booking(metrics.ResultSuccess)
	slog.InfoContext(ctx, "appointment booked",
		"barber_id", a.BarberID,
		"appointment_id", a.ID,
		"start_time", a.StartTime,
	)

	return a, nil
}

// Agenda lists a barber's appointments in [from, to). Zero bounds default to
// the start of today and thirty days after from.
func (s *Service) Agenda(ctx context.Context, barberID string, from, to time.Time) ([]AgendaEntry, error) {
	if from.IsZero() {
		from = s.startOfDay(s.now())
	}
	if to.IsZero() {
		to = from.AddDate(0, 0, defaultAgendaDays)
	}
	if !to.After(from) {
		return nil, core.ValidationError("to must be after from")
	}

	return s.store.ListForBarber(ctx, barberID, from, to)
}

// Dashboard summarizes today's non-cancelled appointments in shop time.
func (s *Service) Dashboard(ctx context.Context, barberID string) (*Summary, error) {
	from := s.startOfDay(s.now())
	to := from.AddDate(0, 0, 1)

	count, revenue, err := s.store.Summarize(ctx, barberID, from, to)
	if err != nil {
		return nil, err
	}

	return &Summary{
		Date:             from.Format(time.DateOnly),
		Appointments:     count,
		EstimatedRevenue: revenue,
	}, nil
}

// UpdateStatus changes the status of an appointment owned by barberID.
func (s *Service) UpdateStatus(ctx context.Context, barberID, id, status string) (*Appointment, error) {
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrAppointmentNotFound
	}

	current, err := s.store.GetForBarber(ctx, barberID, id)
	if err != nil {
		return nil, err
	}
	if current.IsClosed() {
		return nil, ErrAppointmentClosed
	}

	updated, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, barberID, audit.ActionAppointmentStatus,
		fmt.Sprintf("%s: %s -> %s", id, current.Status, status))

	return updated, nil
}

func (s *Service) OpeningHours(ctx context.Context, barberID string) ([]OpeningHours, error) {
	return s.store.ListOpeningHours(ctx, barberID)
}

// SetOpeningHours replaces the weekly schedule. Days left out are closed,
// and closed days drop any times sent with them.
func (s *Service) SetOpeningHours(ctx context.Context, barberID string, hours []OpeningHours) error {
	hours = slices.Clone(hours)
	seen := map[int]bool{}
	for i, h := range hours {
		if seen[h.DayOfWeek] {
			return core.ValidationError(fmt.Sprintf("day %d listed twice", h.DayOfWeek))
		}
		seen[h.DayOfWeek] = true

		if !h.IsOpen {
			hours[i].OpensAt, hours[i].ClosesAt = "", ""
			continue
		}

		opens, err := minuteOfDay(h.OpensAt)
		if err != nil {
			return core.ValidationError("opensAt must be HH:MM")
		}
		closes, err := minuteOfDay(h.ClosesAt)
		if err != nil {
			return core.ValidationError("closesAt must be HH:MM")
		}
		if opens >= closes {
			return ErrInvalidSchedule
		}
	}

	err := s.store.InTx(ctx, func(repo Repository) error {
		return repo.ReplaceOpeningHours(ctx, barberID, hours)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, barberID, audit.ActionOpeningHoursUpdated, fmt.Sprintf("%d days", len(hours)))
	return nil
}

func (s *Service) startOfDay(t time.Time) time.Time {
	local := t.In(s.location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.location)
}

func bookingResult(err error) string {
	switch {
	case errors.Is(err, ErrSlotUnavailable):
		return resultSlotTaken
	case errors.Is(err, ErrOutsideBusinessHours):
		return resultOutsideHours
	case core.IsAppError(err):
		return metrics.ResultInvalid
	default:
		return metrics.ResultFailure
	}
}
