// AngelaMos | 2026
// service_test.go

package appointment

import (
	"context"
	"maps"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/barbermaster/internal/core"
)

type hoursKey struct {
	barberID string
	day      int
}

type memStore struct {
	hours        map[hoursKey]OpeningHours
	services     map[string]string
	prices       map[string]decimal.Decimal
	appointments map[string]Appointment
	locks        int
}

func newMemStore() *memStore {
	return &memStore{
		hours:        map[hoursKey]OpeningHours{},
		services:     map[string]string{},
		prices:       map[string]decimal.Decimal{},
		appointments: map[string]Appointment{},
	}
}

func (m *memStore) InTx(_ context.Context, fn func(repo Repository) error) error {
	hours := maps.Clone(m.hours)
	appointments := maps.Clone(m.appointments)
	if err := fn(m); err != nil {
		m.hours = hours
		m.appointments = appointments
		return err
	}
	return nil
}

func (m *memStore) LockSlot(context.Context, string, time.Time) error {
	m.locks++
	return nil
}

func (m *memStore) GetOpeningHours(_ context.Context, barberID string, day int) (*OpeningHours, error) {
	h, ok := m.hours[hoursKey{barberID, day}]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &h, nil
}

func (m *memStore) ListOpeningHours(_ context.Context, barberID string) ([]OpeningHours, error) {
	out := []OpeningHours{}
	for k, h := range m.hours {
		if k.barberID == barberID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayOfWeek < out[j].DayOfWeek })
	return out, nil
}

func (m *memStore) ReplaceOpeningHours(_ context.Context, barberID string, hours []OpeningHours) error {
	for k := range m.hours {
		if k.barberID == barberID {
			delete(m.hours, k)
		}
	}
	for _, h := range hours {
		m.hours[hoursKey{barberID, h.DayOfWeek}] = h
	}
	return nil
}

func (m *memStore) ServiceBelongsTo(_ context.Context, serviceID, barberID string) (bool, error) {
	return m.services[serviceID] == barberID, nil
}

func (m *memStore) SlotTaken(_ context.Context, barberID string, start time.Time) (bool, error) {
	for _, a := range m.appointments {
		if a.BarberID == barberID && a.StartTime.Equal(start) && a.Status != StatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) Insert(ctx context.Context, a *Appointment) error {
	taken, _ := m.SlotTaken(ctx, a.BarberID, a.StartTime)
	if taken {
		return ErrSlotUnavailable
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.appointments[a.ID] = *a
	return nil
}

func (m *memStore) GetForBarber(_ context.Context, barberID, id string) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok || a.BarberID != barberID {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id, status string) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok || a.IsClosed() {
		return nil, ErrAppointmentClosed
	}
	a.Status = status
	m.appointments[id] = a
	return &a, nil
}

func (m *memStore) ListForBarber(_ context.Context, barberID string, from, to time.Time) ([]AgendaEntry, error) {
	out := []AgendaEntry{}
	for _, a := range m.appointments {
		if a.BarberID == barberID && !a.StartTime.Before(from) && a.StartTime.Before(to) {
			out = append(out, AgendaEntry{Appointment: a, Price: m.prices[a.ServiceID]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *memStore) Summarize(_ context.Context, barberID string, from, to time.Time) (int, decimal.Decimal, error) {
	count, revenue := 0, decimal.Zero
	for _, a := range m.appointments {
		if a.BarberID == barberID && a.Status != StatusCancelled &&
			!a.StartTime.Before(from) && a.StartTime.Before(to) {
			count++
			revenue = revenue.Add(m.prices[a.ServiceID])
		}
	}
	return count, revenue, nil
}

var saoPaulo = mustLocation("America/Sao_Paulo")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

type fixture struct {
	store     *memStore
	svc       *Service
	barberID  string
	serviceID string
}

// newFixture opens the shop on Mondays from 09:00 to 18:00 shop time.
func newFixture() *fixture {
	f := &fixture{
		store:     newMemStore(),
		barberID:  uuid.New().String(),
		serviceID: uuid.New().String(),
	}
	f.store.services[f.serviceID] = f.barberID
	f.store.prices[f.serviceID] = decimal.RequireFromString("45.50")
	f.store.hours[hoursKey{f.barberID, int(time.Monday)}] = OpeningHours{
		DayOfWeek: int(time.Monday),
		IsOpen:    true,
		OpensAt:   "09:00",
		ClosesAt:  "18:00",
	}
	f.svc = NewService(f.store, saoPaulo, nil, nil)
	return f
}

func monday(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, saoPaulo)
}

func (f *fixture) book(at time.Time) (*Appointment, error) {
	return f.svc.Book(context.Background(), BookingInput{
		BarberID:    f.barberID,
		ServiceID:   f.serviceID,
		ClientName:  " João ",
		ClientPhone: "81999990000",
		StartTime:   at,
	})
}

func TestBookSameSlotTwice(t *testing.T) {
	f := newFixture()

	a, err := f.book(monday(10, 0))
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, a.Status)
	assert.Equal(t, "João", a.ClientName)

	_, err = f.book(monday(10, 0))
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.Len(t, f.store.appointments, 1)
	assert.Equal(t, 2, f.store.locks)
}

func TestBookBusinessHoursBoundaries(t *testing.T) {
	f := newFixture()

	_, err := f.book(monday(8, 59))
	assert.ErrorIs(t, err, ErrOutsideBusinessHours)

	_, err = f.book(monday(9, 0))
	assert.NoError(t, err)

	_, err = f.book(monday(17, 59))
	assert.NoError(t, err)

	_, err = f.book(monday(18, 0))
	assert.ErrorIs(t, err, ErrOutsideBusinessHours)
}

func TestBookUsesShopTimeZone(t *testing.T) {
	f := newFixture()

	_, err := f.book(time.Date(2026, 3, 2, 12, 30, 0, 0, time.UTC))
	assert.NoError(t, err, "09:30 in São Paulo")

	_, err = f.book(time.Date(2026, 3, 2, 11, 30, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrOutsideBusinessHours, "08:30 in São Paulo")
}

func TestBookClosedOrUnconfiguredDay(t *testing.T) {
	f := newFixture()

	_, err := f.book(time.Date(2026, 3, 3, 10, 0, 0, 0, saoPaulo))
	assert.ErrorIs(t, err, ErrOutsideBusinessHours)

	f.store.hours[hoursKey{f.barberID, int(time.Monday)}] = OpeningHours{
		DayOfWeek: int(time.Monday),
		IsOpen:    false,
		OpensAt:   "09:00",
		ClosesAt:  "18:00",
	}
	_, err = f.book(monday(10, 0))
	assert.ErrorIs(t, err, ErrOutsideBusinessHours)
}

func TestBookRejectsForeignService(t *testing.T) {
	f := newFixture()
	other := uuid.New().String()
	f.store.services[other] = uuid.New().String()

	_, err := f.svc.Book(context.Background(), BookingInput{
		BarberID:    f.barberID,
		ServiceID:   other,
		ClientName:  "João",
		ClientPhone: "81999990000",
		StartTime:   monday(10, 0),
	})
	assert.ErrorIs(t, err, ErrUnknownService)
}

func TestBookTruncatesToMinute(t *testing.T) {
	f := newFixture()

	_, err := f.book(monday(10, 0).Add(25 * time.Second))
	require.NoError(t, err)

	_, err = f.book(monday(10, 0))
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestCancelledSlotCanBeRebooked(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a, err := f.book(monday(10, 0))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, f.barberID, a.ID, StatusCancelled)
	require.NoError(t, err)

	_, err = f.book(monday(10, 0))
	assert.NoError(t, err)
}

func TestUpdateStatusRules(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a, err := f.book(monday(10, 0))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, uuid.New().String(), a.ID, StatusConfirmed)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.svc.UpdateStatus(ctx, f.barberID, a.ID, "paid")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	updated, err := f.svc.UpdateStatus(ctx, f.barberID, a.ID, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, updated.Status)

	_, err = f.svc.UpdateStatus(ctx, f.barberID, a.ID, StatusScheduled)
	assert.ErrorIs(t, err, ErrAppointmentClosed)
}

func TestDashboardCountsTodayExcludingCancelled(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.svc.now = func() time.Time { return monday(7, 0) }

	first, err := f.book(monday(10, 0))
	require.NoError(t, err)
	_, err = f.book(monday(11, 0))
	require.NoError(t, err)
	third, err := f.book(monday(12, 0))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, f.barberID, third.ID, StatusCancelled)
	require.NoError(t, err)

	summary, err := f.svc.Dashboard(ctx, f.barberID)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", summary.Date)
	assert.Equal(t, 2, summary.Appointments)
	assert.True(t, decimal.RequireFromString("91").Equal(summary.EstimatedRevenue))

	agenda, err := f.svc.Agenda(ctx, f.barberID, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, agenda, 3)
	assert.Equal(t, first.ID, agenda[0].ID)
}

func TestSetOpeningHoursValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	err := f.svc.SetOpeningHours(ctx, f.barberID, []OpeningHours{
		{DayOfWeek: 1, IsOpen: true, OpensAt: "18:00", ClosesAt: "09:00"},
	})
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	err = f.svc.SetOpeningHours(ctx, f.barberID, []OpeningHours{
		{DayOfWeek: 1, IsOpen: true, OpensAt: "09:00", ClosesAt: "18:00"},
		{DayOfWeek: 1, IsOpen: true, OpensAt: "10:00", ClosesAt: "12:00"},
	})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	require.NoError(t, f.svc.SetOpeningHours(ctx, f.barberID, []OpeningHours{
		{DayOfWeek: 2, IsOpen: true, OpensAt: "08:00", ClosesAt: "12:00"},
	}))

	hours, err := f.svc.OpeningHours(ctx, f.barberID)
	require.NoError(t, err)
	require.Len(t, hours, 1)
	assert.Equal(t, 2, hours[0].DayOfWeek)
}

func TestClosedDayNeedsNoTimes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.svc.SetOpeningHours(ctx, f.barberID, []OpeningHours{
		{DayOfWeek: int(time.Monday), IsOpen: false},
		{DayOfWeek: int(time.Tuesday), IsOpen: false, OpensAt: "18:00", ClosesAt: "09:00"},
		{DayOfWeek: int(time.Wednesday), IsOpen: true, OpensAt: "09:00", ClosesAt: "18:00"},
	}))

	hours, err := f.svc.OpeningHours(ctx, f.barberID)
	require.NoError(t, err)
	require.Len(t, hours, 3)
	for _, h := range hours {
		if !h.IsOpen {
			assert.Empty(t, h.OpensAt, "day %d", h.DayOfWeek)
			assert.Empty(t, h.ClosesAt, "day %d", h.DayOfWeek)
		}
	}

	_, err = f.book(monday(10, 0))
	assert.ErrorIs(t, err, ErrOutsideBusinessHours)
}

func TestOpeningHoursValidationTags(t *testing.T) {
	v := core.NewValidator()

	closed := OpeningHoursRequest{Hours: []OpeningHours{{DayOfWeek: 0, IsOpen: false}}}
	assert.NoError(t, v.Struct(closed))

	openWithoutTimes := OpeningHoursRequest{Hours: []OpeningHours{{DayOfWeek: 1, IsOpen: true}}}
	assert.Error(t, v.Struct(openWithoutTimes))

	badClock := OpeningHoursRequest{Hours: []OpeningHours{{DayOfWeek: 1, IsOpen: true, OpensAt: "9h", ClosesAt: "18:00"}}}
	assert.Error(t, v.Struct(badClock))
}
