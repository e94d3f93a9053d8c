package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/glowpoint/studio-api/internal/models"
	appErrors "github.com/glowpoint/studio-api/pkg/errors"
)

type catalogRepository interface {
	ListClassTypes(ctx context.Context) ([]models.ClassType, error)
	FindClassTypeByID(ctx context.Context, id string) (*models.ClassType, error)
	CreateClassType(ctx context.Context, ct *models.ClassType) error
	ListInstructors(ctx context.Context) ([]models.Instructor, error)
	FindInstructorByID(ctx context.Context, id string) (*models.Instructor, error)
	CreateInstructor(ctx context.Context, instructor *models.Instructor) error
	ListLocations(ctx context.Context) ([]models.Location, error)
	FindLocationByID(ctx context.Context, id string) (*models.Location, error)
	CreateLocation(ctx context.Context, location *models.Location) error
}

// CreateClassTypeRequest defines a reusable class.
type CreateClassTypeRequest struct {
	Title                  string `json:"title" validate:"required,max=200"`
	Slug                   string `json:"slug" validate:"required,max=200"`
	Level                  string `json:"level" validate:"required,oneof=BEGINNER INTERMEDIATE MIXED"`
	Description            string `json:"description"`
	DefaultDurationMinutes int    `json:"default_duration_minutes" validate:"omitempty,min=15,max=480"`
}

// CreateInstructorRequest adds an instructor.
type CreateInstructorRequest struct {
	Name            string `json:"name" validate:"required,max=160"`
	Bio             string `json:"bio"`
	InstagramHandle string `json:"instagram_handle" validate:"max=80"`
}

// CreateLocationRequest adds a studio or venue.
type CreateLocationRequest struct {
	Name         string `json:"name" validate:"required,max=160"`
	AddressLine1 string `json:"address_line1" validate:"required,max=200"`
	AddressLine2 string `json:"address_line2" validate:"max=200"`
	City         string `json:"city" validate:"required,max=120"`
	State        string `json:"state" validate:"max=120"`
	PostalCode   string `json:"postal_code" validate:"max=20"`
	Country      string `json:"country" validate:"required,max=120"`
	Notes        string `json:"notes" validate:"max=2000"`
}

// CatalogService manages class types, instructors and locations.
type CatalogService struct {
	catalog   catalogRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService constructs CatalogService.
func NewCatalogService(catalog catalogRepository, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{catalog: catalog, validator: validate, logger: logger}
}

// ListClassTypes returns all class types.
func (s *CatalogService) ListClassTypes(ctx context.Context) ([]models.ClassType, error) {
	types, err := s.catalog.ListClassTypes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class types")
	}
	return types, nil
}

// GetClassType returns one class type.
func (s *CatalogService) GetClassType(ctx context.Context, id string) (*models.ClassType, error) {
	ct, err := s.catalog.FindClassTypeByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class type")
	}
	return ct, nil
}

// CreateClassType adds a class type.
func (s *CatalogService) CreateClassType(ctx context.Context, req CreateClassTypeRequest) (*models.ClassType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class type payload")
	}

	duration := req.DefaultDurationMinutes
	if duration == 0 {
		duration = 60
	}
	ct := &models.ClassType{
		Title:                  req.Title,
		Slug:                   req.Slug,
		Level:                  models.ClassLevel(req.Level),
		Description:            req.Description,
		DefaultDurationMinutes: duration,
	}
	if err := s.catalog.CreateClassType(ctx, ct); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class type")
	}

	s.logger.Info("class_type_created", zap.String("class_type_id", ct.ID), zap.String("slug", ct.Slug))
	return ct, nil
}

// ListInstructors returns all instructors.
func (s *CatalogService) ListInstructors(ctx context.Context) ([]models.Instructor, error) {
	instructors, err := s.catalog.ListInstructors(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
	}
	return instructors, nil
}

// CreateInstructor adds an instructor.
func (s *CatalogService) CreateInstructor(ctx context.Context, req CreateInstructorRequest) (*models.Instructor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor payload")
	}

	instructor := &models.Instructor{
		Name:            req.Name,
		Bio:             req.Bio,
		InstagramHandle: req.InstagramHandle,
	}
	if err := s.catalog.CreateInstructor(ctx, instructor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create instructor")
	}

	s.logger.Info("instructor_created", zap.String("instructor_id", instructor.ID))
	return instructor, nil
}

// ListLocations returns all locations.
func (s *CatalogService) ListLocations(ctx context.Context) ([]models.Location, error) {
	locations, err := s.catalog.ListLocations(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list locations")
	}
	return locations, nil
}

// CreateLocation adds a studio or venue.
func (s *CatalogService) CreateLocation(ctx context.Context, req CreateLocationRequest) (*models.Location, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid location payload")
	}

	location := &models.Location{
		Name:         req.Name,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
		Notes:        req.Notes,
	}
	if err := s.catalog.CreateLocation(ctx, location); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create location")
	}

	s.logger.Info("location_created", zap.String("location_id", location.ID))
	return location, nil
}
