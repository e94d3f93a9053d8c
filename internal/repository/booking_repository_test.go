package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/glowpoint/studio-api/internal/models"
)

func newBookingRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func expectAdmissionChecks(mock sqlmock.Sqlmock, sessionID string, capacity, confirmed int) {
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT capacity FROM class_sessions WHERE id = $1 FOR UPDATE")).
		WithArgs(sessionID).
		WillReturnRows(sqlmock.NewRows([]string{"capacity"}).AddRow(capacity))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(quantity), 0) FROM bookings WHERE session_id = $1 AND status = $2")).
		WithArgs(sessionID, models.StatusConfirmed).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(confirmed))
}

func TestBookingRepositoryCreateAdmittedLastSpot(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	expectAdmissionChecks(mock, "sess-1", 10, 9)
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	booking := &models.Booking{UserID: "user-1", SessionID: "sess-1", FullName: "Ada", Email: "ada@example.com", Quantity: 1}
	admission, err := repo.CreateAdmitted(context.Background(), booking)
	require.NoError(t, err)
	require.True(t, admission.Admitted)
	require.Equal(t, 0, admission.SpotsLeft)
	require.Equal(t, models.StatusPending, booking.Status)
	require.NotEmpty(t, booking.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCreateAdmittedRejectsOverCapacity(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	// Two spots requested with one remaining. No insert is attempted and
	// the transaction rolls back.
	expectAdmissionChecks(mock, "sess-1", 10, 9)
	mock.ExpectRollback()

	booking := &models.Booking{UserID: "user-1", SessionID: "sess-1", FullName: "Ada", Email: "ada@example.com", Quantity: 2}
	admission, err := repo.CreateAdmitted(context.Background(), booking)
	require.NoError(t, err)
	require.False(t, admission.Admitted)
	require.Equal(t, 1, admission.SpotsLeft)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCreateAdmittedOverbookedClampsToZero(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	expectAdmissionChecks(mock, "sess-1", 10, 12)
	mock.ExpectRollback()

	booking := &models.Booking{UserID: "user-1", SessionID: "sess-1", FullName: "Ada", Email: "ada@example.com", Quantity: 1}
	admission, err := repo.CreateAdmitted(context.Background(), booking)
	require.NoError(t, err)
	require.False(t, admission.Admitted)
	require.Equal(t, 0, admission.SpotsLeft)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCreateAdmittedSerialisesConcurrentRequests(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	// Two back to back admissions for the last spot. The row lock forces the
	// second transaction to observe the first one's confirmed sum.
	expectAdmissionChecks(mock, "sess-1", 10, 9)
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	expectAdmissionChecks(mock, "sess-1", 10, 10)
	mock.ExpectRollback()

	first := &models.Booking{UserID: "user-1", SessionID: "sess-1", FullName: "A", Email: "a@example.com", Quantity: 1, Status: models.StatusConfirmed}
	admission, err := repo.CreateAdmitted(context.Background(), first)
	require.NoError(t, err)
	require.True(t, admission.Admitted)

	second := &models.Booking{UserID: "user-2", SessionID: "sess-1", FullName: "B", Email: "b@example.com", Quantity: 1}
	admission, err = repo.CreateAdmitted(context.Background(), second)
	require.NoError(t, err)
	require.False(t, admission.Admitted)
	require.Equal(t, 0, admission.SpotsLeft)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryUpdateStatusMissing(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec("UPDATE bookings SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "ghost", models.StatusConfirmed, 0)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
