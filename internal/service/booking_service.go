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

type bookingRepository interface {
	CreateAdmitted(ctx context.Context, booking *models.Booking) (*models.Admission, error)
	SpotsLeft(ctx context.Context, sessionID string) (int, error)
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	List(ctx context.Context, filter models.BookingFilter) ([]models.BookingDetail, int, error)
	UpdateStatus(ctx context.Context, id string, status models.ReservationStatus, paidCents int) error
}

type bookingSessionReader interface {
	FindByID(ctx context.Context, id string) (*models.ClassSession, error)
}

// CreateBookingRequest describes a reservation attempt on a class session.
type CreateBookingRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	FullName  string `json:"full_name" validate:"required,max=160"`
	Email     string `json:"email" validate:"required,email"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Message   string `json:"message" validate:"max=2000"`
}

// UpdateBookingStatusRequest transitions a booking's lifecycle state.
type UpdateBookingStatusRequest struct {
	Status    models.ReservationStatus `json:"status" validate:"required"`
	PaidCents int                      `json:"paid_cents" validate:"min=0"`
}

// BookingListRequest captures admin list filters.
type BookingListRequest struct {
	UserID    string
	SessionID string
	Status    string
	Page      int
	PageSize  int
}

// BookingService enforces the temporal and capacity gates in front of the
// transactional admission in the repository.
type BookingService struct {
	bookings  bookingRepository
	sessions  bookingSessionReader
	validator *validator.Validate
	logger    *zap.Logger
	maxQty    int
	now       func() time.Time
	metrics   *MetricsService
}

// NewBookingService constructs BookingService.
func NewBookingService(bookings bookingRepository, sessions bookingSessionReader, validate *validator.Validate, logger *zap.Logger, cfg config.BookingConfig) *BookingService {
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
	return &BookingService{
		bookings:  bookings,
		sessions:  sessions,
		validator: validate,
		logger:    logger,
		maxQty:    maxQty,
		now:       time.Now,
	}
}

// WithMetrics attaches admission counters.
func (s *BookingService) WithMetrics(metrics *MetricsService) *BookingService {
	s.metrics = metrics
	return s
}

// Create attempts a reservation. The session must be published and must not
// have started yet; the quantity is bounded above by configuration. The
// capacity decision itself happens inside the repository transaction so a
// concurrent request for the same spots cannot slip through between check
// and insert.
func (s *BookingService) Create(ctx context.Context, userID string, req CreateBookingRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	if req.Quantity > s.maxQty {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("quantity cannot exceed %d", s.maxQty))
	}

	session, err := s.sessions.FindByID(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if !session.Published {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}
	if !session.StartAt.After(s.now().UTC()) {
		return nil, appErrors.ErrSessionStarted
	}

	booking := &models.Booking{
		UserID:    userID,
		SessionID: req.SessionID,
		FullName:  req.FullName,
		Email:     req.Email,
		Quantity:  req.Quantity,
		Message:   req.Message,
		Status:    models.StatusPending,
	}

	admission, err := s.bookings.CreateAdmitted(ctx, booking)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		if errors.Is(err, repository.ErrRetryable) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "could not create reservation, please retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
	}
	s.metrics.RecordAdmission("booking", admission.Admitted)
	if !admission.Admitted {
		s.logger.Info("booking_rejected",
			zap.String("session_id", req.SessionID),
			zap.Int("quantity", req.Quantity),
			zap.Int("spots_left", admission.SpotsLeft),
		)
		return nil, appErrors.Clone(appErrors.ErrCapacity, fmt.Sprintf("only %d spots left", admission.SpotsLeft))
	}

	s.logger.Info("booking_created",
		zap.String("booking_id", booking.ID),
		zap.String("session_id", req.SessionID),
		zap.Int("quantity", req.Quantity),
		zap.Int("spots_left", admission.SpotsLeft),
	)
	return booking, nil
}

// Get returns one booking; members can only read their own.
func (s *BookingService) Get(ctx context.Context, id, requesterID string, requesterRole models.UserRole) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	if requesterRole == models.RoleMember && booking.UserID != requesterID {
		return nil, appErrors.ErrForbidden
	}
	return booking, nil
}

// List returns bookings matching the filter with pagination metadata.
func (s *BookingService) List(ctx context.Context, req BookingListRequest) ([]models.BookingDetail, *models.Pagination, error) {
	if req.Status != "" && !models.ReservationStatus(req.Status).Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown booking status")
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	filter := models.BookingFilter{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Status:    req.Status,
		Page:      page,
		PageSize:  size,
	}
	bookings, total, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return bookings, pagination, nil
}

// UpdateStatus applies a lifecycle transition. Confirming a booking is the
// moment it starts holding capacity.
func (s *BookingService) UpdateStatus(ctx context.Context, id string, req UpdateBookingStatusRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown booking status")
	}

	if err := s.bookings.UpdateStatus(ctx, id, req.Status, req.PaidCents); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update booking")
	}

	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload booking")
	}

	s.logger.Info("booking_status_updated",
		zap.String("booking_id", id),
		zap.String("status", string(req.Status)),
	)
	return booking, nil
}

// SpotsLeft exposes the display-only remaining capacity for a session.
func (s *BookingService) SpotsLeft(ctx context.Context, sessionID string) (int, error) {
	spots, err := s.bookings.SpotsLeft(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute spots left")
	}
	return spots, nil
}
