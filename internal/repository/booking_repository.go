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

// ErrRetryable is returned when a concurrent write collided on a storage
// constraint; the caller should present a generic retry message.
var ErrRetryable = errors.New("could not create reservation, please retry")

// BookingRepository handles persistence of class session bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs the repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// CreateAdmitted runs the capacity check and the booking insert in a single
// transaction. The session row is locked with SELECT ... FOR UPDATE so two
// concurrent requests for the last spot serialise: one is admitted, the
// other observes the updated confirmed sum and is rejected.
//
// Only CONFIRMED bookings count against capacity; the new booking is
// persisted as PENDING and does not hold a spot until confirmed.
func (r *BookingRepository) CreateAdmitted(ctx context.Context, booking *models.Booking) (*models.Admission, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin booking tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var capacity int
	if err := tx.GetContext(ctx, &capacity,
		`SELECT capacity FROM class_sessions WHERE id = $1 FOR UPDATE`, booking.SessionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("lock session row: %w", err)
	}

	var confirmed int
	if err := tx.GetContext(ctx, &confirmed,
		`SELECT COALESCE(SUM(quantity), 0) FROM bookings WHERE session_id = $1 AND status = $2`,
		booking.SessionID, models.StatusConfirmed); err != nil {
		return nil, fmt.Errorf("sum confirmed bookings: %w", err)
	}

	spotsLeft := capacity - confirmed
	if spotsLeft < 0 {
		spotsLeft = 0
	}
	if booking.Quantity < 1 || spotsLeft < booking.Quantity {
		return &models.Admission{Admitted: false, SpotsLeft: spotsLeft}, nil
	}

	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	if booking.Status == "" {
		booking.Status = models.StatusPending
	}

	const insert = `INSERT INTO bookings (id, user_id, session_id, full_name, email, quantity,
        message, status, paid_cents, created_at, updated_at)
VALUES (:id, :user_id, :session_id, :full_name, :email, :quantity,
        :message, :status, :paid_cents, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, tx, insert, booking); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return nil, ErrRetryable
		}
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit booking tx: %w", err)
	}
	return &models.Admission{Admitted: true, SpotsLeft: spotsLeft - booking.Quantity}, nil
}

// SpotsLeft returns the remaining capacity for a session outside of any
// admission transaction (display only).
func (r *BookingRepository) SpotsLeft(ctx context.Context, sessionID string) (int, error) {
	const query = `SELECT GREATEST(s.capacity - COALESCE(SUM(b.quantity) FILTER (WHERE b.status = 'CONFIRMED'), 0), 0)
FROM class_sessions s
LEFT JOIN bookings b ON b.session_id = s.id
WHERE s.id = $1
GROUP BY s.capacity`
	var spots int
	if err := r.db.GetContext(ctx, &spots, query, sessionID); err != nil {
		return 0, err
	}
	return spots, nil
}

// FindByID returns a booking by its ID.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	const query = `SELECT id, user_id, session_id, full_name, email, quantity, message,
        status, paid_cents, created_at, updated_at FROM bookings WHERE id = $1`
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// List returns bookings filtered by the provided criteria, newest first.
func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.BookingDetail, int, error) {
	base := `FROM bookings b
JOIN class_sessions s ON s.id = b.session_id
JOIN class_types ct ON ct.id = s.class_type_id`
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("b.user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.SessionID != "" {
		conditions = append(conditions, fmt.Sprintf("b.session_id = $%d", len(args)+1))
		args = append(args, filter.SessionID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("b.status = $%d", len(args)+1))
		args = append(args, filter.Status)
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
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT b.id, b.user_id, b.session_id, b.full_name, b.email, b.quantity,
        b.message, b.status, b.paid_cents, b.created_at, b.updated_at,
        ct.title AS class_type_title, s.start_at AS session_start_at, s.end_at AS session_end_at
        %s ORDER BY b.created_at DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var bookings []models.BookingDetail
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}
	return bookings, total, nil
}

// UpdateStatus records a lifecycle transition performed by the payment
// collaborator or an administrator.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status models.ReservationStatus, paidCents int) error {
	const query = `UPDATE bookings SET status = $2, paid_cents = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, paidCents, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
