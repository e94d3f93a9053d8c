package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/glowpoint/studio-api/internal/models"
)

// RegistrationRepository handles persistence of event registrations.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// CreateAdmitted mirrors BookingRepository.CreateAdmitted for events. An
// event with capacity <= 0 is unbounded and always admits; the service
// layer additionally restricts registration to public events.
func (r *RegistrationRepository) CreateAdmitted(ctx context.Context, reg *models.EventRegistration) (*models.Admission, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin registration tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var capacity int
	if err := tx.GetContext(ctx, &capacity,
		`SELECT capacity FROM events WHERE id = $1 FOR UPDATE`, reg.EventID); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}

	spotsLeft := -1
	if capacity > 0 {
		var confirmed int
		if err := tx.GetContext(ctx, &confirmed,
			`SELECT COALESCE(SUM(quantity), 0) FROM event_registrations WHERE event_id = $1 AND status = $2`,
			reg.EventID, models.StatusConfirmed); err != nil {
			return nil, fmt.Errorf("sum confirmed registrations: %w", err)
		}
		spotsLeft = capacity - confirmed
		if spotsLeft < 0 {
			spotsLeft = 0
		}
		if reg.Quantity < 1 || spotsLeft < reg.Quantity {
			return &models.Admission{Admitted: false, SpotsLeft: spotsLeft}, nil
		}
	} else if reg.Quantity < 1 {
		return &models.Admission{Admitted: false, SpotsLeft: 0}, nil
	}

	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	reg.CreatedAt = now
	reg.UpdatedAt = now
	if reg.Status == "" {
		reg.Status = models.StatusPending
	}

	const insert = `INSERT INTO event_registrations (id, user_id, event_id, full_name, email,
        quantity, status, paid_cents, created_at, updated_at)
VALUES (:id, :user_id, :event_id, :full_name, :email,
        :quantity, :status, :paid_cents, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, tx, insert, reg); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return nil, ErrRetryable
		}
		return nil, fmt.Errorf("insert registration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit registration tx: %w", err)
	}

	admission := &models.Admission{Admitted: true, SpotsLeft: spotsLeft}
	if spotsLeft >= 0 {
		admission.SpotsLeft = spotsLeft - reg.Quantity
	}
	return admission, nil
}

// ListByEvent returns registrations for an event, newest first.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string) ([]models.EventRegistration, error) {
	const query = `SELECT id, user_id, event_id, full_name, email, quantity, status,
        paid_cents, created_at, updated_at
FROM event_registrations WHERE event_id = $1 ORDER BY created_at DESC`
	var regs []models.EventRegistration
	if err := r.db.SelectContext(ctx, &regs, query, eventID); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

// ListByUser returns a member's registrations, newest first.
func (r *RegistrationRepository) ListByUser(ctx context.Context, userID string) ([]models.EventRegistration, error) {
	const query = `SELECT id, user_id, event_id, full_name, email, quantity, status,
        paid_cents, created_at, updated_at
FROM event_registrations WHERE user_id = $1 ORDER BY created_at DESC`
	var regs []models.EventRegistration
	if err := r.db.SelectContext(ctx, &regs, query, userID); err != nil {
		return nil, fmt.Errorf("list user registrations: %w", err)
	}
	return regs, nil
}

// UpdateStatus records a lifecycle transition for a registration.
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, id string, status models.ReservationStatus, paidCents int) error {
	const query = `UPDATE event_registrations SET status = $2, paid_cents = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, paidCents, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update registration status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
