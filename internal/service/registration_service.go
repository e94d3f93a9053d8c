package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/glowpoint/studio-api/internal/models"
	"github.com/glowpoint/studio-api/internal/repository"
	"github.com/glowpoint/studio-api/pkg/config"
	appErrors "github.com/glowpoint/studio-api/pkg/errors"
)

type registrationRepository interface {
	CreateAdmitted(ctx context.Context, reg *models.EventRegistration) (*models.Admission, error)
	ListByEvent(ctx context.Context, eventID string) ([]models.EventRegistration, error)
	ListByUser(ctx context.Context, userID string) ([]models.EventRegistration, error)
	UpdateStatus(ctx context.Context, id string, status models.ReservationStatus, paidCents int) error
}

type registrationEventReader interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
}

// CreateRegistrationRequest reserves spots on a public event.
type CreateRegistrationRequest struct {
	EventID  string `json:"event_id" validate:"required"`
	FullName string `json:"full_name" validate:"required,max=160"`
	Email    string `json:"email" validate:"required,email"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

// RegistrationService admits registrations against public event capacity.
type RegistrationService struct {
	registrations registrationRepository
	events        registrationEventReader
	validator     *validator.Validate
	logger        *zap.Logger
	maxQty        int
	now           func() time.Time
	metrics       *MetricsService
}

// NewRegistrationService constructs RegistrationService.
func NewRegistrationService(registrations registrationRepository, events registrationEventReader, validate *validator.Validate, logger *zap.Logger, cfg config.BookingConfig) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	maxQty := cfg.MaxQuantity
	if maxQty < 1 {
		maxQty = 20
	}
	return &RegistrationService{
		registrations: registrations,
		events:        events,
		validator:     validate,
		logger:        logger,
		maxQty:        maxQty,
		now:           time.Now,
	}
}

// WithMetrics attaches admission counters.
func (s *RegistrationService) WithMetrics(metrics *MetricsService) *RegistrationService {
	s.metrics = metrics
	return s
}

// Create registers for a public event. Private events take inquiries, not
// registrations. Events without a positive capacity admit without bound.
func (s *RegistrationService) Create(ctx context.Context, userID string, req CreateRegistrationRequest) (*models.EventRegistration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	if req.Quantity > s.maxQty {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("quantity cannot exceed %d", s.maxQty))
	}

	event, err := s.events.FindByID(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if !event.Published || event.Kind != models.EventPublic {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
	}
	if event.StartAt != nil && !event.StartAt.After(s.now().UTC()) {
		return nil, appErrors.Clone(appErrors.ErrSessionStarted, "this event has already started or finished")
	}

	reg := &models.EventRegistration{
		UserID:   userID,
		EventID:  req.EventID,
		FullName: req.FullName,
		Email:    req.Email,
		Quantity: req.Quantity,
		Status:   models.StatusPending,
	}

	admission, err := s.registrations.CreateAdmitted(ctx, reg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		if errors.Is(err, repository.ErrRetryable) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "could not create registration, please retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create registration")
	}
	s.metrics.RecordAdmission("registration", admission.Admitted)
	if !admission.Admitted {
		s.logger.Info("registration_rejected",
			zap.String("event_id", req.EventID),
			zap.Int("quantity", req.Quantity),
			zap.Int("spots_left", admission.SpotsLeft),
		)
		return nil, appErrors.Clone(appErrors.ErrCapacity, fmt.Sprintf("only %d spots left", admission.SpotsLeft))
	}

	s.logger.Info("registration_created",
		zap.String("registration_id", reg.ID),
		zap.String("event_id", req.EventID),
		zap.Int("quantity", req.Quantity),
	)
	return reg, nil
}

// ListByEvent returns all registrations for an event (admin view).
func (s *RegistrationService) ListByEvent(ctx context.Context, eventID string) ([]models.EventRegistration, error) {
	regs, err := s.registrations.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	return regs, nil
}

// ListByUser returns the caller's own registrations.
func (s *RegistrationService) ListByUser(ctx context.Context, userID string) ([]models.EventRegistration, error) {
	regs, err := s.registrations.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	return regs, nil
}

// UpdateStatus applies a lifecycle transition to a registration.
func (s *RegistrationService) UpdateStatus(ctx context.Context, id string, status models.ReservationStatus, paidCents int) error {
	if !status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown registration status")
	}
	if err := s.registrations.UpdateStatus(ctx, id, status, paidCents); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update registration")
	}
	s.logger.Info("registration_status_updated", zap.String("registration_id", id), zap.String("status", string(status)))
	return nil
}
