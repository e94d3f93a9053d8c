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

const eventColumns = `id, title, slug, kind, description, start_at, end_at, location_id,
        capacity, price_cents, published, created_at, updated_at`

// ErrDuplicateSlug is returned when an event insert collides on the slug.
var ErrDuplicateSlug = errors.New("event slug already in use")

// EventRepository handles persistence of events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// List returns events ordered by start time, optionally narrowed to one
// kind and to published rows only.
func (r *EventRepository) List(ctx context.Context, kind models.EventKind, publishedOnly bool) ([]models.Event, error) {
	conditions := []string{"TRUE"}
	var args []interface{}
	if kind != "" {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)+1))
		args = append(args, kind)
	}
	if publishedOnly {
		conditions = append(conditions, "published = TRUE")
	}
	query := fmt.Sprintf(`SELECT %s FROM events WHERE %s ORDER BY start_at ASC NULLS LAST, title ASC`,
		eventColumns, strings.Join(conditions, " AND "))

	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// FindBySlug returns an event by its slug.
func (r *EventRepository) FindBySlug(ctx context.Context, slug string) (*models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE slug = $1`, eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, slug); err != nil {
		return nil, err
	}
	return &event, nil
}

// FindByID returns an event by its ID.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = $1`, eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// Create persists a new event.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	const query = `INSERT INTO events (id, title, slug, kind, description, start_at, end_at,
        location_id, capacity, price_cents, published, created_at, updated_at)
VALUES (:id, :title, :slug, :kind, :description, :start_at, :end_at,
        :location_id, :capacity, :price_cents, :published, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of an event.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE events SET title = :title, slug = :slug, kind = :kind,
        description = :description, start_at = :start_at, end_at = :end_at,
        location_id = :location_id, capacity = :capacity, price_cents = :price_cents,
        published = :published, updated_at = :updated_at
WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
