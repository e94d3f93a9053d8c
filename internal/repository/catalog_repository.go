package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/glowpoint/studio-api/internal/models"
)

// CatalogRepository handles the reference tables behind the schedule:
// class types, instructors and locations.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListClassTypes returns all class types ordered by title.
func (r *CatalogRepository) ListClassTypes(ctx context.Context) ([]models.ClassType, error) {
	const query = `SELECT id, title, slug, level, description, default_duration_minutes,
        created_at, updated_at FROM class_types ORDER BY title ASC`
	var types []models.ClassType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list class types: %w", err)
	}
	return types, nil
}

// FindClassTypeByID returns a class type by its ID.
func (r *CatalogRepository) FindClassTypeByID(ctx context.Context, id string) (*models.ClassType, error) {
	const query = `SELECT id, title, slug, level, description, default_duration_minutes,
        created_at, updated_at FROM class_types WHERE id = $1`
	var ct models.ClassType
	if err := r.db.GetContext(ctx, &ct, query, id); err != nil {
		return nil, err
	}
	return &ct, nil
}

// CreateClassType persists a new class type.
func (r *CatalogRepository) CreateClassType(ctx context.Context, ct *models.ClassType) error {
	if ct.ID == "" {
		ct.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	ct.CreatedAt = now
	ct.UpdatedAt = now
	const query = `INSERT INTO class_types (id, title, slug, level, description,
        default_duration_minutes, created_at, updated_at)
VALUES (:id, :title, :slug, :level, :description, :default_duration_minutes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, ct); err != nil {
		return fmt.Errorf("create class type: %w", err)
	}
	return nil
}

// ListInstructors returns all instructors ordered by name.
func (r *CatalogRepository) ListInstructors(ctx context.Context) ([]models.Instructor, error) {
	const query = `SELECT id, name, bio, instagram_handle, created_at, updated_at
FROM instructors ORDER BY name ASC`
	var instructors []models.Instructor
	if err := r.db.SelectContext(ctx, &instructors, query); err != nil {
		return nil, fmt.Errorf("list instructors: %w", err)
	}
	return instructors, nil
}

// FindInstructorByID returns an instructor by ID.
func (r *CatalogRepository) FindInstructorByID(ctx context.Context, id string) (*models.Instructor, error) {
	const query = `SELECT id, name, bio, instagram_handle, created_at, updated_at
FROM instructors WHERE id = $1`
	var instructor models.Instructor
	if err := r.db.GetContext(ctx, &instructor, query, id); err != nil {
		return nil, err
	}
	return &instructor, nil
}

// CreateInstructor persists a new instructor.
func (r *CatalogRepository) CreateInstructor(ctx context.Context, instructor *models.Instructor) error {
	if instructor.ID == "" {
		instructor.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	instructor.CreatedAt = now
	instructor.UpdatedAt = now
	const query = `INSERT INTO instructors (id, name, bio, instagram_handle, created_at, updated_at)
VALUES (:id, :name, :bio, :instagram_handle, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, instructor); err != nil {
		return fmt.Errorf("create instructor: %w", err)
	}
	return nil
}

// ListLocations returns all locations ordered by city then name.
func (r *CatalogRepository) ListLocations(ctx context.Context) ([]models.Location, error) {
	const query = `SELECT id, name, address_line1, address_line2, city, state, postal_code,
        country, notes, created_at, updated_at FROM locations ORDER BY city ASC, name ASC`
	var locations []models.Location
	if err := r.db.SelectContext(ctx, &locations, query); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return locations, nil
}

// FindLocationByID returns a location by ID.
func (r *CatalogRepository) FindLocationByID(ctx context.Context, id string) (*models.Location, error) {
	const query = `SELECT id, name, address_line1, address_line2, city, state, postal_code,
        country, notes, created_at, updated_at FROM locations WHERE id = $1`
	var location models.Location
	if err := r.db.GetContext(ctx, &location, query, id); err != nil {
		return nil, err
	}
	return &location, nil
}

// CreateLocation persists a new location.
func (r *CatalogRepository) CreateLocation(ctx context.Context, location *models.Location) error {
	if location.ID == "" {
		location.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	location.CreatedAt = now
	location.UpdatedAt = now
	const query = `INSERT INTO locations (id, name, address_line1, address_line2, city, state,
        postal_code, country, notes, created_at, updated_at)
VALUES (:id, :name, :address_line1, :address_line2, :city, :state,
        :postal_code, :country, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, location); err != nil {
		return fmt.Errorf("create location: %w", err)
	}
	return nil
}
