package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/glowpoint/studio-api/internal/models"
)

// InquiryRepository handles persistence of private event inquiries.
type InquiryRepository struct {
	db *sqlx.DB
}

// NewInquiryRepository constructs the repository.
func NewInquiryRepository(db *sqlx.DB) *InquiryRepository {
	return &InquiryRepository{db: db}
}

// Create persists a new inquiry with status NEW.
func (r *InquiryRepository) Create(ctx context.Context, inquiry *models.EventInquiry) error {
	if inquiry.ID == "" {
		inquiry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	inquiry.CreatedAt = now
	inquiry.UpdatedAt = now
	if inquiry.Status == "" {
		inquiry.Status = models.InquiryNew
	}

	const query = `INSERT INTO event_inquiries (id, full_name, email, phone, category,
        preferred_date, attendees_count, city_or_studio, message, status,
        template_event_id, created_at, updated_at)
VALUES (:id, :full_name, :email, :phone, :category,
        :preferred_date, :attendees_count, :city_or_studio, :message, :status,
        :template_event_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, inquiry); err != nil {
		return fmt.Errorf("create inquiry: %w", err)
	}
	return nil
}

// List returns inquiries filtered by status and category, newest first.
func (r *InquiryRepository) List(ctx context.Context, status, category string, page, pageSize int) ([]models.EventInquiry, int, error) {
	var conditions []string
	var args []interface{}

	if status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, status)
	}
	if category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, category)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT id, full_name, email, phone, category, preferred_date,
        attendees_count, city_or_studio, message, status, template_event_id,
        created_at, updated_at
FROM event_inquiries%s ORDER BY created_at DESC LIMIT %d OFFSET %d`, clause, pageSize, offset)

	var inquiries []models.EventInquiry
	if err := r.db.SelectContext(ctx, &inquiries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list inquiries: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM event_inquiries%s", clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count inquiries: %w", err)
	}
	return inquiries, total, nil
}

// FindByID returns an inquiry by its ID.
func (r *InquiryRepository) FindByID(ctx context.Context, id string) (*models.EventInquiry, error) {
	const query = `SELECT id, full_name, email, phone, category, preferred_date,
        attendees_count, city_or_studio, message, status, template_event_id,
        created_at, updated_at
FROM event_inquiries WHERE id = $1`
	var inquiry models.EventInquiry
	if err := r.db.GetContext(ctx, &inquiry, query, id); err != nil {
		return nil, err
	}
	return &inquiry, nil
}

// UpdateStatus advances the admin workflow state of an inquiry.
func (r *InquiryRepository) UpdateStatus(ctx context.Context, id string, status models.InquiryStatus) error {
	const query = `UPDATE event_inquiries SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update inquiry status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
