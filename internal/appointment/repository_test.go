// AngelaMos | 2026
// repository_test.go

package appointment

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/barbermaster/internal/core"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestInsertMapsActiveSlotViolation(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO appointments")).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "appointments_active_slot_key"})

	err := repo.Insert(context.Background(), &Appointment{ID: "a-1", Status: StatusScheduled})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLockSlotUsesAdvisoryLock(t *testing.T) {
	repo, mock := newMockRepo(t)
	start := time.Date(2026, 3, 2, 13, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("pg_advisory_xact_lock")).
		WithArgs("b-1", "2026-03-02T13:00:00Z").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.LockSlot(context.Background(), "b-1", start))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOpeningHoursMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM opening_hours")).
		WithArgs("b-1", 0).
		WillReturnRows(sqlmock.NewRows([]string{"day_of_week", "is_open", "opens_at", "closes_at"}))

	_, err := repo.GetOpeningHours(context.Background(), "b-1", 0)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUpdateStatusClosedRow(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("status NOT IN ('completed', 'cancelled')")).
		WithArgs("a-1", StatusConfirmed).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.UpdateStatus(context.Background(), "a-1", StatusConfirmed)
	assert.ErrorIs(t, err, ErrAppointmentClosed)
}

func TestSummarizeScansDecimal(t *testing.T) {
	repo, mock := newMockRepo(t)
	from := time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(SUM(s.price), 0)")).
		WithArgs("b-1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"appointments", "revenue"}).AddRow(2, "91.00"))

	count, revenue, err := repo.Summarize(context.Background(), "b-1", from, to)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.True(t, decimal.RequireFromString("91").Equal(revenue))
}
