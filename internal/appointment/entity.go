// AngelaMos | 2026
// entity.go

package appointment

import (
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/barbermaster/internal/core"
)

const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"

	clockLayout = "15:04"
)

type Appointment struct {
	ID          string    `db:"id"           json:"id"`
	BarberID    string    `db:"barber_id"    json:"barberId"`
	ServiceID   string    `db:"service_id"   json:"serviceId"`
	ClientName  string    `db:"client_name"  json:"clientName"`
	ClientPhone string    `db:"client_phone" json:"clientPhone"`
	StartTime   time.Time `db:"start_time"   json:"startTime"`
	Status      string    `db:"status"       json:"status"`
	CreatedAt   time.Time `db:"created_at"   json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at"   json:"updatedAt"`
}

// IsClosed reports whether the appointment has reached a terminal status.
func (a *Appointment) IsClosed() bool {
	return a.Status == StatusCompleted || a.Status == StatusCancelled
}

// AgendaEntry is an appointment joined with the booked service.
type AgendaEntry struct {
	Appointment
	ServiceName string          `db:"service_name" json:"serviceName"`
	Price       decimal.Decimal `db:"price"        json:"price"`
}

// OpeningHours is one weekday of a shop's schedule. Times are HH:MM in the
// shop time zone and the range is half-open. A closed day has no times.
type OpeningHours struct {
	DayOfWeek int    `db:"day_of_week" json:"dayOfWeek"          validate:"gte=0,lte=6"`
	IsOpen    bool   `db:"is_open"     json:"isOpen"`
	OpensAt   string `db:"opens_at"    json:"opensAt,omitempty"  validate:"required_if=IsOpen true,omitempty,datetime=15:04"`
	ClosesAt  string `db:"closes_at"   json:"closesAt,omitempty" validate:"required_if=IsOpen true,omitempty,datetime=15:04"`
}

// Contains reports whether minute-of-day m falls in [OpensAt, ClosesAt).
func (h *OpeningHours) Contains(m int) (bool, error) {
	opens, err := minuteOfDay(h.OpensAt)
	if err != nil {
		return false, err
	}
	closes, err := minuteOfDay(h.ClosesAt)
	if err != nil {
		return false, err
	}
	return m >= opens && m < closes, nil
}

func minuteOfDay(clock string) (int, error) {
	t, err := time.Parse(clockLayout, clock)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", clock, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

type Summary struct {
	Date             string          `json:"date"`
	Appointments     int             `json:"appointments"`
	EstimatedRevenue decimal.Decimal `json:"estimatedRevenue"`
}

func ValidStatus(s string) bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

var (
	ErrOutsideBusinessHours = core.StateError(
		"OUTSIDE_BUSINESS_HOURS",
		"the shop is closed at the requested time",
	)
	ErrSlotUnavailable = core.ConflictError(
		"SLOT_UNAVAILABLE",
		"this time slot is no longer available",
		http.StatusBadRequest,
	)
	ErrUnknownService = core.NewAppError(
		core.ErrInvalidInput,
		"service not offered by this barber",
		http.StatusBadRequest,
		"UNKNOWN_SERVICE",
	)
	ErrAppointmentClosed = core.StateError(
		"APPOINTMENT_CLOSED",
		"completed or cancelled appointments cannot change status",
	)
	ErrAppointmentNotFound = core.NotFoundError("appointment")
	ErrInvalidStatus       = core.ValidationError(
		"status must be one of scheduled, confirmed, completed, cancelled, no_show",
	)
	ErrInvalidSchedule = core.ValidationError("opening time must be before closing time")
)
