package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/glowpoint/studio-api/internal/models"
)

// ErrDuplicateStart is returned when a session insert collides with the
// uniqueness constraint on (class_type_id, start_at). The constraint is the
// authoritative guard against two writers projecting the same occurrence.
var ErrDuplicateStart = errors.New("session already exists at this start time")

const pqUniqueViolation = "23505"

const sessionColumns = `id, class_type_id, instructor_id, location_id, start_at, end_at,
        capacity, price_cents, published, notes,
        recurrence_enabled, every_n_weeks, recurrence_until, recurrence_skips,
        created_at, updated_at`

const sessionDetailSelect = `SELECT s.id, s.class_type_id, s.instructor_id, s.location_id,
        s.start_at, s.end_at, s.capacity, s.price_cents, s.published, s.notes,
        s.recurrence_enabled, s.every_n_weeks, s.recurrence_until, s.recurrence_skips,
        s.created_at, s.updated_at,
        ct.title AS class_type_title, ct.slug AS class_type_slug, ct.level,
        i.name AS instructor_name, l.name AS location_name,
        GREATEST(s.capacity - COALESCE(b.confirmed, 0), 0) AS spots_left
FROM class_sessions s
JOIN class_types ct ON ct.id = s.class_type_id
LEFT JOIN instructors i ON i.id = s.instructor_id
LEFT JOIN locations l ON l.id = s.location_id
LEFT JOIN (
        SELECT session_id, SUM(quantity) AS confirmed
        FROM bookings WHERE status = 'CONFIRMED' GROUP BY session_id
) b ON b.session_id = s.id`

// SessionRepository handles persistence of class sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// FindByID returns a session by its ID.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_sessions WHERE id = $1`, sessionColumns)
	var session models.ClassSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// FindDetailByID returns a session with joined display fields.
func (r *SessionRepository) FindDetailByID(ctx context.Context, id string) (*models.SessionDetail, error) {
	query := sessionDetailSelect + ` WHERE s.id = $1`
	var detail models.SessionDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns sessions filtered by the provided criteria.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.SessionDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.ClassTypeID != "" {
		conditions = append(conditions, fmt.Sprintf("s.class_type_id = $%d", len(args)+1))
		args = append(args, filter.ClassTypeID)
	}
	if filter.Level != "" {
		conditions = append(conditions, fmt.Sprintf("ct.level = $%d", len(args)+1))
		args = append(args, filter.Level)
	}
	if filter.InstructorID != "" {
		conditions = append(conditions, fmt.Sprintf("s.instructor_id = $%d", len(args)+1))
		args = append(args, filter.InstructorID)
	}
	if filter.LocationID != "" {
		conditions = append(conditions, fmt.Sprintf("s.location_id = $%d", len(args)+1))
		args = append(args, filter.LocationID)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("s.start_at >= $%d", len(args)+1))
		args = append(args, filter.DateFrom.UTC())
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("s.start_at <= $%d", len(args)+1))
		args = append(args, filter.DateTo.UTC())
	}
	if filter.Published != nil {
		conditions = append(conditions, fmt.Sprintf("s.published = $%d", len(args)+1))
		args = append(args, *filter.Published)
	}
	if filter.FutureOnly {
		conditions = append(conditions, "s.start_at >= NOW()")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 10
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("%s%s ORDER BY s.start_at ASC LIMIT %d OFFSET %d", sessionDetailSelect, clause, size, offset)

	var sessions []models.SessionDetail
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM class_sessions s
JOIN class_types ct ON ct.id = s.class_type_id%s`, clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}
	return sessions, total, nil
}

// ExistsAt reports whether a session of the same class type already starts
// at the given instant.
func (r *SessionRepository) ExistsAt(ctx context.Context, classTypeID string, startAt time.Time) (bool, error) {
	const query = `SELECT 1 FROM class_sessions WHERE class_type_id = $1 AND start_at = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, classTypeID, startAt.UTC()); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check session exists: %w", err)
	}
	return true, nil
}

// Create persists a new session. A collision on (class_type_id, start_at)
// maps to ErrDuplicateStart.
func (r *SessionRepository) Create(ctx context.Context, session *models.ClassSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	if session.EveryNWeeks < 1 {
		session.EveryNWeeks = 1
	}
	if session.RecurrenceSkips == nil {
		// nil binds as SQL NULL; the column is NOT NULL with a '{}' default
		// that does not apply to explicit NULLs.
		session.RecurrenceSkips = pq.StringArray{}
	}

	const query = `INSERT INTO class_sessions (id, class_type_id, instructor_id, location_id,
        start_at, end_at, capacity, price_cents, published, notes,
        recurrence_enabled, every_n_weeks, recurrence_until, recurrence_skips,
        created_at, updated_at)
VALUES (:id, :class_type_id, :instructor_id, :location_id,
        :start_at, :end_at, :capacity, :price_cents, :published, :notes,
        :recurrence_enabled, :every_n_weeks, :recurrence_until, :recurrence_skips,
        :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return ErrDuplicateStart
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a session.
func (r *SessionRepository) Update(ctx context.Context, session *models.ClassSession) error {
	session.UpdatedAt = time.Now().UTC()
	if session.RecurrenceSkips == nil {
		session.RecurrenceSkips = pq.StringArray{}
	}
	const query = `UPDATE class_sessions SET class_type_id = :class_type_id,
        instructor_id = :instructor_id, location_id = :location_id,
        start_at = :start_at, end_at = :end_at, capacity = :capacity,
        price_cents = :price_cents, published = :published, notes = :notes,
        recurrence_enabled = :recurrence_enabled, every_n_weeks = :every_n_weeks,
        recurrence_until = :recurrence_until, recurrence_skips = :recurrence_skips,
        updated_at = :updated_at
WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, session)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return ErrDuplicateStart
		}
		return fmt.Errorf("update session: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a session.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM class_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CalendarRow is the narrow projection used by the calendar feed.
type CalendarRow struct {
	ID      string    `db:"id"`
	Title   string    `db:"title"`
	StartAt time.Time `db:"start_at"`
	EndAt   time.Time `db:"end_at"`
}

// CalendarRange returns published sessions inside the inclusive window.
// With no bounds set, only future sessions are returned.
func (r *SessionRepository) CalendarRange(ctx context.Context, rng models.CalendarRange) ([]CalendarRow, error) {
	conditions := []string{"s.published = TRUE"}
	var args []interface{}

	if rng.Empty() {
		conditions = append(conditions, "s.start_at >= NOW()")
	}
	if rng.Start != nil {
		conditions = append(conditions, fmt.Sprintf("s.start_at >= $%d", len(args)+1))
		args = append(args, rng.Start.UTC())
	}
	if rng.End != nil {
		conditions = append(conditions, fmt.Sprintf("s.start_at <= $%d", len(args)+1))
		args = append(args, rng.End.UTC())
	}

	query := fmt.Sprintf(`SELECT s.id, ct.title, s.start_at, s.end_at
FROM class_sessions s
JOIN class_types ct ON ct.id = s.class_type_id
WHERE %s
ORDER BY s.start_at ASC`, strings.Join(conditions, " AND "))

	var rows []CalendarRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list calendar sessions: %w", err)
	}
	return rows, nil
}
