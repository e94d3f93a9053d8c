package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/glowpoint/studio-api/internal/models"
	appErrors "github.com/glowpoint/studio-api/pkg/errors"
)

type inquiryRepository interface {
	Create(ctx context.Context, inquiry *models.EventInquiry) error
	List(ctx context.Context, status, category string, page, pageSize int) ([]models.EventInquiry, int, error)
	FindByID(ctx context.Context, id string) (*models.EventInquiry, error)
	UpdateStatus(ctx context.Context, id string, status models.InquiryStatus) error
}

// CreateInquiryRequest is the public private-event inquiry form.
type CreateInquiryRequest struct {
	FullName        string  `json:"full_name" validate:"required,max=160"`
	Email           string  `json:"email" validate:"required,email"`
	Phone           string  `json:"phone" validate:"max=40"`
	Category        string  `json:"category" validate:"required,oneof=BACHELORETTE BIRTHDAY CORPORATE SCHOOL CUSTOM"`
	PreferredDate   string  `json:"preferred_date" validate:"omitempty,datetime=2006-01-02"`
	AttendeesCount  int     `json:"attendees_count" validate:"required,min=1"`
	CityOrStudio    string  `json:"city_or_studio" validate:"max=160"`
	Message         string  `json:"message" validate:"max=4000"`
	TemplateEventID *string `json:"template_event_id"`
}

// InquiryListRequest captures admin inquiry filters.
type InquiryListRequest struct {
	Status   string
	Category string
	Page     int
	PageSize int
}

// InquiryService handles private event inquiries.
type InquiryService struct {
	inquiries inquiryRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInquiryService constructs InquiryService.
func NewInquiryService(inquiries inquiryRepository, validate *validator.Validate, logger *zap.Logger) *InquiryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InquiryService{inquiries: inquiries, validator: validate, logger: logger}
}

// Create accepts a public inquiry submission. New inquiries enter the admin
// workflow in the NEW state.
func (s *InquiryService) Create(ctx context.Context, req CreateInquiryRequest) (*models.EventInquiry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid inquiry payload")
	}

	inquiry := &models.EventInquiry{
		FullName:        req.FullName,
		Email:           req.Email,
		Phone:           req.Phone,
		Category:        models.InquiryCategory(req.Category),
		AttendeesCount:  req.AttendeesCount,
		CityOrStudio:    req.CityOrStudio,
		Message:         req.Message,
		Status:          models.InquiryNew,
		TemplateEventID: req.TemplateEventID,
	}
	if req.PreferredDate != "" {
		preferred, _ := time.ParseInLocation(skipDateLayout, req.PreferredDate, time.UTC)
		inquiry.PreferredDate = &preferred
	}

	if err := s.inquiries.Create(ctx, inquiry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create inquiry")
	}

	s.logger.Info("inquiry_created",
		zap.String("inquiry_id", inquiry.ID),
		zap.String("category", string(inquiry.Category)),
		zap.Int("attendees", inquiry.AttendeesCount),
	)
	return inquiry, nil
}

// List returns inquiries for the admin workflow.
func (s *InquiryService) List(ctx context.Context, req InquiryListRequest) ([]models.EventInquiry, *models.Pagination, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	inquiries, total, err := s.inquiries.List(ctx, req.Status, req.Category, page, size)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list inquiries")
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return inquiries, pagination, nil
}

// UpdateStatus moves an inquiry through the admin workflow.
func (s *InquiryService) UpdateStatus(ctx context.Context, id string, status models.InquiryStatus) (*models.EventInquiry, error) {
	switch status {
	case models.InquiryNew, models.InquiryContacted, models.InquiryBooked, models.InquiryClosed:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown inquiry status")
	}

	if err := s.inquiries.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "inquiry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update inquiry")
	}

	inquiry, err := s.inquiries.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload inquiry")
	}

	s.logger.Info("inquiry_status_updated", zap.String("inquiry_id", id), zap.String("status", string(status)))
	return inquiry, nil
}
