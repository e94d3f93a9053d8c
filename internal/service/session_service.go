package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/glowpoint/studio-api/internal/models"
	"github.com/glowpoint/studio-api/internal/repository"
	appErrors "github.com/glowpoint/studio-api/pkg/errors"
	"github.com/glowpoint/studio-api/pkg/export"
)

type sessionRepository interface {
	FindByID(ctx context.Context, id string) (*models.ClassSession, error)
	FindDetailByID(ctx context.Context, id string) (*models.SessionDetail, error)
	List(ctx context.Context, filter models.SessionFilter) ([]models.SessionDetail, int, error)
	Create(ctx context.Context, session *models.ClassSession) error
	Update(ctx context.Context, session *models.ClassSession) error
	Delete(ctx context.Context, id string) error
}

type classTypeReader interface {
	FindClassTypeByID(ctx context.Context, id string) (*models.ClassType, error)
}

// CreateSessionRequest schedules a new class session.
type CreateSessionRequest struct {
	ClassTypeID       string   `json:"class_type_id" validate:"required"`
	InstructorID      *string  `json:"instructor_id"`
	LocationID        *string  `json:"location_id"`
	StartAt           string   `json:"start_at" validate:"required"`
	EndAt             string   `json:"end_at" validate:"required"`
	Capacity          int      `json:"capacity" validate:"min=1"`
	PriceCents        int      `json:"price_cents" validate:"min=0"`
	Published         bool     `json:"published"`
	Notes             string   `json:"notes" validate:"max=2000"`
	RecurrenceEnabled bool     `json:"recurrence_enabled"`
	EveryNWeeks       int      `json:"every_n_weeks" validate:"omitempty,min=1"`
	RecurrenceUntil   string   `json:"recurrence_until" validate:"omitempty,datetime=2006-01-02"`
	RecurrenceSkips   []string `json:"recurrence_skips"`
}

// UpdateSessionRequest carries partial updates to a session.
type UpdateSessionRequest struct {
	InstructorID      *string   `json:"instructor_id"`
	LocationID        *string   `json:"location_id"`
	StartAt           *string   `json:"start_at"`
	EndAt             *string   `json:"end_at"`
	Capacity          *int      `json:"capacity" validate:"omitempty,min=1"`
	PriceCents        *int      `json:"price_cents" validate:"omitempty,min=0"`
	Published         *bool     `json:"published"`
	Notes             *string   `json:"notes" validate:"omitempty,max=2000"`
	RecurrenceEnabled *bool     `json:"recurrence_enabled"`
	EveryNWeeks       *int      `json:"every_n_weeks" validate:"omitempty,min=1"`
	RecurrenceUntil   *string   `json:"recurrence_until" validate:"omitempty,datetime=2006-01-02"`
	RecurrenceSkips   *[]string `json:"recurrence_skips"`
}

// SessionListRequest captures filtering for the schedule listing.
type SessionListRequest struct {
	ClassTypeID  string
	Level        string
	InstructorID string
	LocationID   string
	DateFrom     string
	DateTo       string
	Published    *bool
	FutureOnly   bool
	Page         int
	PageSize     int
}

// SessionService manages the class schedule.
type SessionService struct {
	sessions   sessionRepository
	classTypes classTypeReader
	validator  *validator.Validate
	logger     *zap.Logger
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
}

// NewSessionService constructs SessionService.
func NewSessionService(sessions sessionRepository, classTypes classTypeReader, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		sessions:   sessions,
		classTypes: classTypes,
		validator:  validate,
		logger:     logger,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
	}
}

// List returns schedule entries matching the filter.
func (s *SessionService) List(ctx context.Context, req SessionListRequest) ([]models.SessionDetail, *models.Pagination, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	filter := models.SessionFilter{
		ClassTypeID:  req.ClassTypeID,
		Level:        req.Level,
		InstructorID: req.InstructorID,
		LocationID:   req.LocationID,
		Published:    req.Published,
		FutureOnly:   req.FutureOnly,
		Page:         page,
		PageSize:     size,
	}
	if req.DateFrom != "" {
		from, err := time.ParseInLocation(skipDateLayout, req.DateFrom, time.UTC)
		if err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "date_from must be a YYYY-MM-DD date")
		}
		filter.DateFrom = &from
	}
	if req.DateTo != "" {
		to, err := time.ParseInLocation(skipDateLayout, req.DateTo, time.UTC)
		if err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "date_to must be a YYYY-MM-DD date")
		}
		end := to.AddDate(0, 0, 1)
		filter.DateTo = &end
	}

	sessions, total, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return sessions, pagination, nil
}

// Get returns one session with joined display fields.
func (s *SessionService) Get(ctx context.Context, id string) (*models.SessionDetail, error) {
	detail, err := s.sessions.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return detail, nil
}

// Create schedules a session. Start and end are RFC 3339 instants stored in
// UTC; the end must come after the start.
func (s *SessionService) Create(ctx context.Context, req CreateSessionRequest) (*models.ClassSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	startAt, endAt, err := parseSessionWindow(req.StartAt, req.EndAt)
	if err != nil {
		return nil, err
	}

	if _, err := s.classTypes.FindClassTypeByID(ctx, req.ClassTypeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class type")
	}

	session := &models.ClassSession{
		ClassTypeID:       req.ClassTypeID,
		InstructorID:      req.InstructorID,
		LocationID:        req.LocationID,
		StartAt:           startAt,
		EndAt:             endAt,
		Capacity:          req.Capacity,
		PriceCents:        req.PriceCents,
		Published:         req.Published,
		Notes:             req.Notes,
		RecurrenceEnabled: req.RecurrenceEnabled,
		EveryNWeeks:       req.EveryNWeeks,
		RecurrenceSkips:   req.RecurrenceSkips,
	}
	if req.RecurrenceUntil != "" {
		until, err := time.ParseInLocation(skipDateLayout, req.RecurrenceUntil, time.UTC)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "recurrence_until must be a YYYY-MM-DD date")
		}
		session.RecurrenceUntil = &until
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		if errors.Is(err, repository.ErrDuplicateStart) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a session of this class already starts at that time")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}

	s.logger.Info("session_created",
		zap.String("session_id", session.ID),
		zap.String("class_type_id", session.ClassTypeID),
		zap.Time("start_at", session.StartAt),
	)
	return session, nil
}

// Update applies a partial update to a session.
func (s *SessionService) Update(ctx context.Context, id string, req UpdateSessionRequest) (*models.ClassSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	if req.InstructorID != nil {
		session.InstructorID = req.InstructorID
	}
	if req.LocationID != nil {
		session.LocationID = req.LocationID
	}
	startStr, endStr := session.StartAt.Format(time.RFC3339), session.EndAt.Format(time.RFC3339)
	if req.StartAt != nil {
		startStr = *req.StartAt
	}
	if req.EndAt != nil {
		endStr = *req.EndAt
	}
	if req.StartAt != nil || req.EndAt != nil {
		startAt, endAt, err := parseSessionWindow(startStr, endStr)
		if err != nil {
			return nil, err
		}
		session.StartAt = startAt
		session.EndAt = endAt
	}
	if req.Capacity != nil {
		session.Capacity = *req.Capacity
	}
	if req.PriceCents != nil {
		session.PriceCents = *req.PriceCents
	}
	if req.Published != nil {
		session.Published = *req.Published
	}
	if req.Notes != nil {
		session.Notes = *req.Notes
	}
	if req.RecurrenceEnabled != nil {
		session.RecurrenceEnabled = *req.RecurrenceEnabled
	}
	if req.EveryNWeeks != nil {
		session.EveryNWeeks = *req.EveryNWeeks
	}
	if req.RecurrenceUntil != nil {
		if *req.RecurrenceUntil == "" {
			session.RecurrenceUntil = nil
		} else {
			until, err := time.ParseInLocation(skipDateLayout, *req.RecurrenceUntil, time.UTC)
			if err != nil {
				return nil, appErrors.Clone(appErrors.ErrValidation, "recurrence_until must be a YYYY-MM-DD date")
			}
			session.RecurrenceUntil = &until
		}
	}
	if req.RecurrenceSkips != nil {
		session.RecurrenceSkips = *req.RecurrenceSkips
	}

	if err := s.sessions.Update(ctx, session); err != nil {
		if errors.Is(err, repository.ErrDuplicateStart) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a session of this class already starts at that time")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}

	s.logger.Info("session_updated", zap.String("session_id", id))
	return session, nil
}

// Delete removes a session.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	if err := s.sessions.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	s.logger.Info("session_deleted", zap.String("session_id", id))
	return nil
}

var scheduleHeaders = []string{"Date", "Start", "End", "Class", "Level", "Instructor", "Location", "Capacity", "Spots Left"}

// ExportCSV renders the filtered schedule as CSV.
func (s *SessionService) ExportCSV(ctx context.Context, req SessionListRequest) ([]byte, error) {
	dataset, err := s.scheduleDataset(ctx, req)
	if err != nil {
		return nil, err
	}
	out, err := s.csv.Render(*dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return out, nil
}

// ExportPDF renders the filtered schedule as a PDF table.
func (s *SessionService) ExportPDF(ctx context.Context, req SessionListRequest) ([]byte, error) {
	dataset, err := s.scheduleDataset(ctx, req)
	if err != nil {
		return nil, err
	}
	out, err := s.pdf.Render(*dataset, "Class Schedule")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return out, nil
}

func (s *SessionService) scheduleDataset(ctx context.Context, req SessionListRequest) (*export.Dataset, error) {
	req.Page = 1
	req.PageSize = 100
	sessions, _, err := s.List(ctx, req)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]string, 0, len(sessions))
	for _, sess := range sessions {
		instructor := ""
		if sess.InstructorName != nil {
			instructor = *sess.InstructorName
		}
		location := ""
		if sess.LocationName != nil {
			location = *sess.LocationName
		}
		rows = append(rows, map[string]string{
			"Date":       sess.StartAt.UTC().Format("2006-01-02"),
			"Start":      sess.StartAt.UTC().Format("15:04"),
			"End":        sess.EndAt.UTC().Format("15:04"),
			"Class":      sess.ClassTypeTitle,
			"Level":      string(sess.Level),
			"Instructor": instructor,
			"Location":   location,
			"Capacity":   strconv.Itoa(sess.Capacity),
			"Spots Left": strconv.Itoa(sess.SpotsLeft),
		})
	}
	return &export.Dataset{Headers: scheduleHeaders, Rows: rows}, nil
}

func parseSessionWindow(startStr, endStr string) (time.Time, time.Time, error) {
	startAt, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("start_at must be an RFC 3339 timestamp: %s", startStr))
	}
	endAt, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("end_at must be an RFC 3339 timestamp: %s", endStr))
	}
	startAt, endAt = startAt.UTC(), endAt.UTC()
	if !endAt.After(startAt) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "end_at must be after start_at")
	}
	return startAt, endAt, nil
}
