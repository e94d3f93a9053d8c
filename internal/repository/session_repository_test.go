package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/glowpoint/studio-api/internal/models"
)

func newSessionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSessionRepositoryExistsAt(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	startAt := time.Date(2024, 1, 8, 18, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM class_sessions WHERE class_type_id = $1 AND start_at = $2 LIMIT 1")).
		WithArgs("ct-1", startAt).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsAt(context.Background(), "ct-1", startAt)
	require.NoError(t, err)
	require.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM class_sessions WHERE class_type_id = $1 AND start_at = $2 LIMIT 1")).
		WithArgs("ct-1", startAt).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err = repo.ExistsAt(context.Background(), "ct-1", startAt)
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCreateDuplicateStart(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec("INSERT INTO class_sessions").
		WillReturnError(&pq.Error{Code: "23505"})

	session := &models.ClassSession{
		ClassTypeID: "ct-1",
		StartAt:     time.Date(2024, 1, 8, 18, 0, 0, 0, time.UTC),
		EndAt:       time.Date(2024, 1, 8, 19, 0, 0, 0, time.UTC),
		Capacity:    10,
	}
	err := repo.Create(context.Background(), session)
	require.ErrorIs(t, err, ErrDuplicateStart)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCreateAssignsDefaults(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec("INSERT INTO class_sessions").
		WillReturnResult(sqlmock.NewResult(1, 1))

	session := &models.ClassSession{
		ClassTypeID: "ct-1",
		StartAt:     time.Date(2024, 1, 8, 18, 0, 0, 0, time.UTC),
		EndAt:       time.Date(2024, 1, 8, 19, 0, 0, 0, time.UTC),
		Capacity:    10,
	}
	require.NoError(t, repo.Create(context.Background(), session))
	require.NotEmpty(t, session.ID)
	require.Equal(t, 1, session.EveryNWeeks)
	require.False(t, session.CreatedAt.IsZero())

	// An omitted skips array must bind as '{}', not SQL NULL, against the
	// NOT NULL column.
	value, err := session.RecurrenceSkips.Value()
	require.NoError(t, err)
	require.NotNil(t, value)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCalendarRange(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "title", "start_at", "end_at"}).
		AddRow("sess-1", "Pottery Basics", start.Add(18*time.Hour), start.Add(19*time.Hour))
	mock.ExpectQuery(`SELECT s\.id, ct\.title, s\.start_at, s\.end_at`).
		WithArgs(start, end).
		WillReturnRows(rows)

	entries, err := repo.CalendarRange(context.Background(), models.CalendarRange{Start: &start, End: &end})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "Pottery Basics", entries[0].Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM class_sessions WHERE id = $1")).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "ghost")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
