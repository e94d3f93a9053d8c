package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/glowpoint/studio-api/internal/models"
	appErrors "github.com/glowpoint/studio-api/pkg/errors"
)

type contentRepository interface {
	ListCategories(ctx context.Context) ([]models.ContentCategory, error)
	ListItems(ctx context.Context, publicOnly bool, categoryID string, limit int) ([]models.MediaItem, error)
	CreateItem(ctx context.Context, item *models.MediaItem) error
	CreateCategory(ctx context.Context, category *models.ContentCategory) error
}

// CreateMediaItemRequest publishes a new library entry.
type CreateMediaItemRequest struct {
	CategoryID  string `json:"category_id" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Summary     string `json:"summary" validate:"max=2000"`
	VideoURL    string `json:"video_url" validate:"omitempty,url"`
	ExternalURL string `json:"external_url" validate:"omitempty,url"`
	Visibility  string `json:"visibility" validate:"required,oneof=PUBLIC MEMBERS"`
	Active      bool   `json:"active"`
	PublishAt   string `json:"publish_at" validate:"omitempty"`
}

// CreateContentCategoryRequest adds a library category.
type CreateContentCategoryRequest struct {
	Name          string `json:"name" validate:"required,max=160"`
	Slug          string `json:"slug" validate:"required,max=160"`
	Description   string `json:"description"`
	RequiresLogin bool   `json:"requires_login"`
}

// ContentService serves the media library. Members see everything live;
// anonymous visitors only see PUBLIC items.
type ContentService struct {
	content   contentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewContentService constructs ContentService.
func NewContentService(content contentRepository, validate *validator.Validate, logger *zap.Logger) *ContentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentService{content: content, validator: validate, logger: logger}
}

// ListCategories returns all library categories.
func (s *ContentService) ListCategories(ctx context.Context) ([]models.ContentCategory, error) {
	categories, err := s.content.ListCategories(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	return categories, nil
}

// ListItems returns live library items visible to the caller.
func (s *ContentService) ListItems(ctx context.Context, authenticated bool, categoryID string, limit int) ([]models.MediaItem, error) {
	items, err := s.content.ListItems(ctx, !authenticated, categoryID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list media items")
	}
	return items, nil
}

// CreateItem adds a library entry.
func (s *ContentService) CreateItem(ctx context.Context, req CreateMediaItemRequest) (*models.MediaItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid media item payload")
	}

	item := &models.MediaItem{
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Summary:     req.Summary,
		VideoURL:    req.VideoURL,
		ExternalURL: req.ExternalURL,
		Visibility:  models.MediaVisibility(req.Visibility),
		Active:      req.Active,
	}
	if req.PublishAt != "" {
		publishAt, err := time.Parse(time.RFC3339, req.PublishAt)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "publish_at must be an RFC 3339 timestamp")
		}
		utc := publishAt.UTC()
		item.PublishAt = &utc
	}

	if err := s.content.CreateItem(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create media item")
	}

	s.logger.Info("media_item_created", zap.String("item_id", item.ID), zap.String("category_id", item.CategoryID))
	return item, nil
}

// CreateCategory adds a library category.
func (s *ContentService) CreateCategory(ctx context.Context, req CreateContentCategoryRequest) (*models.ContentCategory, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}

	category := &models.ContentCategory{
		Name:          req.Name,
		Slug:          req.Slug,
		Description:   req.Description,
		RequiresLogin: req.RequiresLogin,
	}
	if err := s.content.CreateCategory(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create category")
	}

	s.logger.Info("content_category_created", zap.String("category_id", category.ID), zap.String("slug", category.Slug))
	return category, nil
}
