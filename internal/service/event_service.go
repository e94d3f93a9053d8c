package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/glowpoint/studio-api/internal/models"
	"github.com/glowpoint/studio-api/internal/repository"
	appErrors "github.com/glowpoint/studio-api/pkg/errors"
)

type eventRepository interface {
	List(ctx context.Context, kind models.EventKind, publishedOnly bool) ([]models.Event, error)
	FindBySlug(ctx context.Context, slug string) (*models.Event, error)
	FindByID(ctx context.Context, id string) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
}

// CreateEventRequest creates a one-off event.
type CreateEventRequest struct {
	Title       string           `json:"title" validate:"required,max=200"`
	Slug        string           `json:"slug" validate:"required,max=200"`
	Kind        models.EventKind `json:"kind" validate:"required,oneof=PRIVATE PUBLIC"`
	Description string           `json:"description"`
	StartAt     *string          `json:"start_at"`
	EndAt       *string          `json:"end_at"`
	LocationID  *string          `json:"location_id"`
	Capacity    int              `json:"capacity" validate:"min=0"`
	PriceCents  int              `json:"price_cents" validate:"min=0"`
	Published   bool             `json:"published"`
}

// UpdateEventRequest carries partial updates to an event.
type UpdateEventRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description"`
	StartAt     *string `json:"start_at"`
	EndAt       *string `json:"end_at"`
	LocationID  *string `json:"location_id"`
	Capacity    *int    `json:"capacity" validate:"omitempty,min=0"`
	PriceCents  *int    `json:"price_cents" validate:"omitempty,min=0"`
	Published   *bool   `json:"published"`
}

// EventService manages one-off events.
type EventService struct {
	events    eventRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs EventService.
func NewEventService(events eventRepository, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{events: events, validator: validate, logger: logger}
}

// List returns events, optionally filtered by kind. Non-staff callers only
// see published events.
func (s *EventService) List(ctx context.Context, kind string, includeUnpublished bool) ([]models.Event, error) {
	var eventKind models.EventKind
	switch kind {
	case "":
	case string(models.EventPrivate), string(models.EventPublic):
		eventKind = models.EventKind(kind)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "kind must be PRIVATE or PUBLIC")
	}

	events, err := s.events.List(ctx, eventKind, !includeUnpublished)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return events, nil
}

// GetBySlug returns one published event by its public slug.
func (s *EventService) GetBySlug(ctx context.Context, slug string) (*models.Event, error) {
	event, err := s.events.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if !event.Published {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
	}
	return event, nil
}

// Create creates an event.
func (s *EventService) Create(ctx context.Context, req CreateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}

	event := &models.Event{
		Title:       req.Title,
		Slug:        req.Slug,
		Kind:        req.Kind,
		Description: req.Description,
		LocationID:  req.LocationID,
		Capacity:    req.Capacity,
		PriceCents:  req.PriceCents,
		Published:   req.Published,
	}
	var err error
	if event.StartAt, err = parseOptionalInstant(req.StartAt, "start_at"); err != nil {
		return nil, err
	}
	if event.EndAt, err = parseOptionalInstant(req.EndAt, "end_at"); err != nil {
		return nil, err
	}
	if event.StartAt != nil && event.EndAt != nil && !event.EndAt.After(*event.StartAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_at must be after start_at")
	}

	if err := s.events.Create(ctx, event); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an event with this slug already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}

	s.logger.Info("event_created", zap.String("event_id", event.ID), zap.String("slug", event.Slug))
	return event, nil
}

// Update applies a partial update to an event.
func (s *EventService) Update(ctx context.Context, id string, req UpdateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}

	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.StartAt != nil {
		if event.StartAt, err = parseOptionalInstant(req.StartAt, "start_at"); err != nil {
			return nil, err
		}
	}
	if req.EndAt != nil {
		if event.EndAt, err = parseOptionalInstant(req.EndAt, "end_at"); err != nil {
			return nil, err
		}
	}
	if event.StartAt != nil && event.EndAt != nil && !event.EndAt.After(*event.StartAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_at must be after start_at")
	}
	if req.LocationID != nil {
		event.LocationID = req.LocationID
	}
	if req.Capacity != nil {
		event.Capacity = *req.Capacity
	}
	if req.PriceCents != nil {
		event.PriceCents = *req.PriceCents
	}
	if req.Published != nil {
		event.Published = *req.Published
	}

	if err := s.events.Update(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}

	s.logger.Info("event_updated", zap.String("event_id", id))
	return event, nil
}

func parseOptionalInstant(value *string, field string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, *value)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, field+" must be an RFC 3339 timestamp")
	}
	utc := parsed.UTC()
	return &utc, nil
}
