package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/glowpoint/studio-api/internal/models"
)

// ContentRepository handles persistence of the content library.
type ContentRepository struct {
	db *sqlx.DB
}

// NewContentRepository constructs the repository.
func NewContentRepository(db *sqlx.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// ListCategories returns all categories ordered by name.
func (r *ContentRepository) ListCategories(ctx context.Context) ([]models.ContentCategory, error) {
	const query = `SELECT id, name, slug, description, requires_login, created_at, updated_at
FROM content_categories ORDER BY name ASC`
	var categories []models.ContentCategory
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list content categories: %w", err)
	}
	return categories, nil
}

// ListItems returns live items, optionally restricted to public visibility
// and/or a single category, newest first.
func (r *ContentRepository) ListItems(ctx context.Context, publicOnly bool, categoryID string, limit int) ([]models.MediaItem, error) {
	conditions := []string{"active = TRUE", "(publish_at IS NULL OR publish_at <= NOW())"}
	var args []interface{}

	if publicOnly {
		conditions = append(conditions, fmt.Sprintf("visibility = $%d", len(args)+1))
		args = append(args, models.VisibilityPublic)
	}
	if categoryID != "" {
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", len(args)+1))
		args = append(args, categoryID)
	}
	if limit <= 0 || limit > 100 {
		limit = 24
	}

	query := fmt.Sprintf(`SELECT id, category_id, title, summary, video_url, external_url,
        visibility, active, publish_at, created_at, updated_at
FROM media_items WHERE %s
ORDER BY publish_at DESC NULLS LAST, created_at DESC LIMIT %d`, strings.Join(conditions, " AND "), limit)

	var items []models.MediaItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list media items: %w", err)
	}
	return items, nil
}

// CreateItem persists a new media item.
func (r *ContentRepository) CreateItem(ctx context.Context, item *models.MediaItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	const query = `INSERT INTO media_items (id, category_id, title, summary, video_url,
        external_url, visibility, active, publish_at, created_at, updated_at)
VALUES (:id, :category_id, :title, :summary, :video_url,
        :external_url, :visibility, :active, :publish_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create media item: %w", err)
	}
	return nil
}

// CreateCategory persists a new content category.
func (r *ContentRepository) CreateCategory(ctx context.Context, category *models.ContentCategory) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now
	const query = `INSERT INTO content_categories (id, name, slug, description, requires_login,
        created_at, updated_at)
VALUES (:id, :name, :slug, :description, :requires_login, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("create content category: %w", err)
	}
	return nil
}
