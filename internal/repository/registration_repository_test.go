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

func newRegistrationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func expectEventCapacityLock(mock sqlmock.Sqlmock, eventID string, capacity int) {
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT capacity FROM events WHERE id = $1 FOR UPDATE")).
		WithArgs(eventID).
		WillReturnRows(sqlmock.NewRows([]string{"capacity"}).AddRow(capacity))
}

func TestRegistrationRepositoryCreateAdmittedUnlimited(t *testing.T) {
	db, mock, cleanup := newRegistrationRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	// Capacity zero means unbounded: no confirmed sum is taken and the
	// admission reports -1 spots left.
	expectEventCapacityLock(mock, "event-1", 0)
	mock.ExpectExec("INSERT INTO event_registrations").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	reg := &models.EventRegistration{UserID: "user-1", EventID: "event-1", FullName: "Ada", Email: "ada@example.com", Quantity: 3}
	admission, err := repo.CreateAdmitted(context.Background(), reg)
	require.NoError(t, err)
	require.True(t, admission.Admitted)
	require.Equal(t, -1, admission.SpotsLeft)
	require.Equal(t, models.StatusPending, reg.Status)
	require.NotEmpty(t, reg.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryCreateAdmittedUnlimitedRejectsZeroQuantity(t *testing.T) {
	db, mock, cleanup := newRegistrationRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	expectEventCapacityLock(mock, "event-1", 0)
	mock.ExpectRollback()

	reg := &models.EventRegistration{UserID: "user-1", EventID: "event-1", FullName: "Ada", Email: "ada@example.com", Quantity: 0}
	admission, err := repo.CreateAdmitted(context.Background(), reg)
	require.NoError(t, err)
	require.False(t, admission.Admitted)
	require.Equal(t, 0, admission.SpotsLeft)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryCreateAdmittedBounded(t *testing.T) {
	db, mock, cleanup := newRegistrationRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	expectEventCapacityLock(mock, "event-1", 10)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(quantity), 0) FROM event_registrations WHERE event_id = $1 AND status = $2")).
		WithArgs("event-1", models.StatusConfirmed).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(7))
	mock.ExpectExec("INSERT INTO event_registrations").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	reg := &models.EventRegistration{UserID: "user-1", EventID: "event-1", FullName: "Ada", Email: "ada@example.com", Quantity: 2}
	admission, err := repo.CreateAdmitted(context.Background(), reg)
	require.NoError(t, err)
	require.True(t, admission.Admitted)
	require.Equal(t, 1, admission.SpotsLeft)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryCreateAdmittedBoundedRejectsWhenFull(t *testing.T) {
	db, mock, cleanup := newRegistrationRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	// Confirmed registrations already consume the whole capacity, so no
	// insert is attempted and the transaction rolls back.
	expectEventCapacityLock(mock, "event-1", 10)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(quantity), 0) FROM event_registrations WHERE event_id = $1 AND status = $2")).
		WithArgs("event-1", models.StatusConfirmed).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(10))
	mock.ExpectRollback()

	reg := &models.EventRegistration{UserID: "user-1", EventID: "event-1", FullName: "Ada", Email: "ada@example.com", Quantity: 1}
	admission, err := repo.CreateAdmitted(context.Background(), reg)
	require.NoError(t, err)
	require.False(t, admission.Admitted)
	require.Equal(t, 0, admission.SpotsLeft)
	require.NoError(t, mock.ExpectationsWereMet())
}
