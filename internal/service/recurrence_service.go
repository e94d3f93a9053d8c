package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/glowpoint/studio-api/internal/dto"
	"github.com/glowpoint/studio-api/internal/models"
	"github.com/glowpoint/studio-api/internal/repository"
	"github.com/glowpoint/studio-api/pkg/config"
	appErrors "github.com/glowpoint/studio-api/pkg/errors"
)

const skipDateLayout = "2006-01-02"

type recurrenceSessionRepo interface {
	FindByID(ctx context.Context, id string) (*models.ClassSession, error)
	ExistsAt(ctx context.Context, classTypeID string, startAt time.Time) (bool, error)
	Create(ctx context.Context, session *models.ClassSession) error
}

// RecurrenceService projects future class sessions from recurring seeds.
//
// The projector is idempotent: an occurrence whose (class type, start time)
// already exists is counted as skipped, never recreated, so re-running
// generation after editing a seed is safe. The storage uniqueness
// constraint backs this up against a true simultaneous race.
type RecurrenceService struct {
	sessions  recurrenceSessionRepo
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.RecurrenceConfig
	metrics   *MetricsService
}

// NewRecurrenceService constructs RecurrenceService.
func NewRecurrenceService(sessions recurrenceSessionRepo, validate *validator.Validate, logger *zap.Logger, cfg config.RecurrenceConfig) *RecurrenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultHorizonWeeks < 1 {
		cfg.DefaultHorizonWeeks = 12
	}
	if cfg.MaxBatchOccurrences < 1 {
		cfg.MaxBatchOccurrences = 52
	}
	return &RecurrenceService{sessions: sessions, validator: validate, logger: logger, cfg: cfg}
}

// WithMetrics attaches projection counters.
func (s *RecurrenceService) WithMetrics(metrics *MetricsService) *RecurrenceService {
	s.metrics = metrics
	return s
}

// Generate projects occurrences from a seed's own recurrence fields.
func (s *RecurrenceService) Generate(ctx context.Context, sessionID string, req dto.GenerateRecurrencesRequest) (*dto.ProjectionReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate payload")
	}

	seed, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	var untilOverride *time.Time
	if req.Until != "" {
		parsed, err := time.ParseInLocation(skipDateLayout, req.Until, time.UTC)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "until must be a YYYY-MM-DD date")
		}
		untilOverride = &parsed
	}

	report, err := s.project(ctx, seed, untilOverride, req.DryRun)
	if err != nil {
		return nil, err
	}

	if !req.DryRun {
		s.metrics.RecordProjection(report.Created, report.Skipped)
	}
	s.logger.Info("recurrence_generated",
		zap.String("session_id", seed.ID),
		zap.Int("created", report.Created),
		zap.Int("skipped", report.Skipped),
		zap.String("outcome", string(report.Outcome)),
		zap.Bool("dry_run", req.DryRun),
	)
	return report, nil
}

// GenerateBatch projects a fixed number of occurrences for each seed in the
// command, applying one shared skip list. Seeds are processed in order and
// counts aggregated; unlike Generate, the seeds' own recurrence fields are
// ignored in favour of the caller-supplied cadence.
func (s *RecurrenceService) GenerateBatch(ctx context.Context, cmd dto.BatchGenerateCommand) (*dto.BatchProjectionReport, error) {
	if err := s.validator.Struct(cmd); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch generate payload")
	}
	if cmd.Occurrences > s.cfg.MaxBatchOccurrences {
		return nil, appErrors.Clone(appErrors.ErrValidation, "occurrences exceeds the configured maximum")
	}

	skips := parseSkipSet(cmd.SkipDates)
	batch := &dto.BatchProjectionReport{Seeds: make(map[string]dto.ProjectionReport, len(cmd.SessionIDs))}

	for _, id := range cmd.SessionIDs {
		seed, err := s.sessions.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "session "+id+" not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
		}

		report := dto.ProjectionReport{Outcome: dto.ProjectionOK}
		duration := seed.Duration()
		step := weeksToDuration(cmd.EveryNWeeks)

		for i := 1; i <= cmd.Occurrences; i++ {
			start := seed.StartAt.UTC().Add(time.Duration(i) * step)
			created, err := s.materialize(ctx, seed, start, duration, skips, cmd.DryRun)
			if err != nil {
				return nil, err
			}
			if created {
				report.Created++
			} else {
				report.Skipped++
			}
		}

		batch.Seeds[seed.ID] = report
		batch.Created += report.Created
		batch.Skipped += report.Skipped
	}

	if !cmd.DryRun {
		s.metrics.RecordProjection(batch.Created, batch.Skipped)
	}
	s.logger.Info("recurrence_batch_generated",
		zap.Int("seeds", len(cmd.SessionIDs)),
		zap.Int("created", batch.Created),
		zap.Int("skipped", batch.Skipped),
		zap.Bool("dry_run", cmd.DryRun),
	)
	return batch, nil
}

func (s *RecurrenceService) project(ctx context.Context, seed *models.ClassSession, untilOverride *time.Time, dryRun bool) (*dto.ProjectionReport, error) {
	if !seed.RecurrenceEnabled {
		return &dto.ProjectionReport{Outcome: dto.ProjectionDisabled}, nil
	}
	if seed.EveryNWeeks < 1 {
		// A zero interval would never advance the cursor.
		return nil, appErrors.Clone(appErrors.ErrValidation, "every_n_weeks must be at least 1")
	}

	endDate := s.resolveEndDate(seed, untilOverride)
	seedDate := civilDate(seed.StartAt)
	if endDate.Before(seedDate) {
		return &dto.ProjectionReport{Outcome: dto.ProjectionEmptyRange}, nil
	}

	duration := seed.Duration()
	skips := parseSkipSet(seed.RecurrenceSkips)
	step := weeksToDuration(seed.EveryNWeeks)

	report := &dto.ProjectionReport{Outcome: dto.ProjectionOK}
	cursor := seed.StartAt.UTC()
	for {
		cursor = cursor.Add(step)
		if civilDate(cursor).After(endDate) {
			break
		}
		created, err := s.materialize(ctx, seed, cursor, duration, skips, dryRun)
		if err != nil {
			return nil, err
		}
		if created {
			report.Created++
		} else {
			report.Skipped++
		}
	}
	return report, nil
}

// materialize creates one occurrence unless its date is skipped or a session
// of the series already starts then. Returns true when counted as created.
func (s *RecurrenceService) materialize(ctx context.Context, seed *models.ClassSession, start time.Time, duration time.Duration, skips map[string]struct{}, dryRun bool) (bool, error) {
	if _, skip := skips[start.UTC().Format(skipDateLayout)]; skip {
		return false, nil
	}

	exists, err := s.sessions.ExistsAt(ctx, seed.ClassTypeID, start)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing session")
	}
	if exists {
		return false, nil
	}

	if dryRun {
		return true, nil
	}

	occurrence := &models.ClassSession{
		ClassTypeID:  seed.ClassTypeID,
		InstructorID: seed.InstructorID,
		LocationID:   seed.LocationID,
		StartAt:      start,
		EndAt:        start.Add(duration),
		Capacity:     seed.Capacity,
		PriceCents:   seed.PriceCents,
		Published:    seed.Published,
		Notes:        seed.Notes,
		EveryNWeeks:  1,
		// A nil array binds as SQL NULL, which the NOT NULL column rejects.
		RecurrenceSkips: pq.StringArray{},
	}
	if err := s.sessions.Create(ctx, occurrence); err != nil {
		if errors.Is(err, repository.ErrDuplicateStart) {
			// Lost a race to another writer; the constraint is authoritative.
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	return true, nil
}

func (s *RecurrenceService) resolveEndDate(seed *models.ClassSession, untilOverride *time.Time) time.Time {
	if untilOverride != nil {
		return civilDate(*untilOverride)
	}
	if seed.RecurrenceUntil != nil {
		return civilDate(*seed.RecurrenceUntil)
	}
	return civilDate(seed.StartAt).AddDate(0, 0, 7*s.cfg.DefaultHorizonWeeks)
}

// parseSkipSet normalises skip tokens to YYYY-MM-DD keys, silently dropping
// anything unparseable.
func parseSkipSet(tokens []string) map[string]struct{} {
	out := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		parsed, err := time.ParseInLocation(skipDateLayout, token, time.UTC)
		if err != nil {
			continue
		}
		out[parsed.Format(skipDateLayout)] = struct{}{}
	}
	return out
}

// civilDate truncates an instant to its UTC calendar date.
func civilDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// weeksToDuration converts whole weeks to a duration; UTC has no DST so the
// projected occurrences keep the seed's exact wall-clock offset.
func weeksToDuration(weeks int) time.Duration {
	return time.Duration(weeks) * 7 * 24 * time.Hour
}
