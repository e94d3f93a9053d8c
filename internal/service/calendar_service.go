package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/glowpoint/studio-api/internal/models"
	"github.com/glowpoint/studio-api/internal/repository"
	"github.com/glowpoint/studio-api/pkg/config"
	appErrors "github.com/glowpoint/studio-api/pkg/errors"
)

type calendarSessionReader interface {
	CalendarRange(ctx context.Context, rng models.CalendarRange) ([]repository.CalendarRow, error)
}

type calendarCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CalendarService serves the public calendar feed of published sessions.
type CalendarService struct {
	sessions  calendarSessionReader
	cache     calendarCache
	logger    *zap.Logger
	cfg       config.CalendarConfig
	publicURL string
}

// NewCalendarService constructs CalendarService. cache may be nil when
// caching is disabled.
func NewCalendarService(sessions calendarSessionReader, cache calendarCache, logger *zap.Logger, cfg config.CalendarConfig, publicURL string) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{sessions: sessions, cache: cache, logger: logger, cfg: cfg, publicURL: publicURL}
}

// Feed returns calendar entries for published sessions. startStr and endStr
// are optional YYYY-MM-DD bounds; a malformed bound is ignored rather than
// rejected so embedded calendar widgets keep working. Without bounds the
// feed covers upcoming sessions only.
func (s *CalendarService) Feed(ctx context.Context, startStr, endStr string) ([]models.CalendarEntry, error) {
	rng := parseCalendarRange(startStr, endStr)

	cacheKey := calendarCacheKey(rng)
	if s.cacheEnabled() {
		var cached []models.CalendarEntry
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	rows, err := s.sessions.CalendarRange(ctx, rng)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar feed")
	}

	entries := make([]models.CalendarEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, models.CalendarEntry{
			ID:    row.ID,
			Title: row.Title,
			Start: row.StartAt.UTC().Format(time.RFC3339),
			End:   row.EndAt.UTC().Format(time.RFC3339),
			URL:   fmt.Sprintf("%s/classes/%s", s.publicURL, row.ID),
		})
	}

	if s.cacheEnabled() {
		if err := s.cache.Set(ctx, cacheKey, entries, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("calendar_cache_set_failed", zap.Error(err))
		}
	}
	return entries, nil
}

func (s *CalendarService) cacheEnabled() bool {
	return s.cfg.CacheEnabled && s.cache != nil
}

func calendarCacheKey(rng models.CalendarRange) string {
	start, end := "open", "open"
	if rng.Start != nil {
		start = rng.Start.Format(time.RFC3339)
	}
	if rng.End != nil {
		end = rng.End.Format(time.RFC3339)
	}
	return fmt.Sprintf("calendar:feed:%s:%s", start, end)
}

// parseCalendarRange reads optional bounds, dropping whatever does not
// parse. Calendar widgets send full RFC 3339 instants; bare dates are also
// accepted, with a date-only end bound extended to the following midnight so
// the named day is fully included.
func parseCalendarRange(startStr, endStr string) models.CalendarRange {
	var rng models.CalendarRange
	if startStr != "" {
		if start, err := time.Parse(time.RFC3339, startStr); err == nil {
			start = start.UTC()
			rng.Start = &start
		} else if start, err := time.ParseInLocation(skipDateLayout, startStr, time.UTC); err == nil {
			rng.Start = &start
		}
	}
	if endStr != "" {
		if end, err := time.Parse(time.RFC3339, endStr); err == nil {
			end = end.UTC()
			rng.End = &end
		} else if end, err := time.ParseInLocation(skipDateLayout, endStr, time.UTC); err == nil {
			boundary := end.AddDate(0, 0, 1)
			rng.End = &boundary
		}
	}
	return rng
}
