package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/glowpoint/studio-api/internal/models"
	"github.com/glowpoint/studio-api/internal/repository"
	"github.com/glowpoint/studio-api/pkg/config"
	appErrors "github.com/glowpoint/studio-api/pkg/errors"
)

type mockCalendarReader struct {
	rows    []repository.CalendarRow
	lastRng models.CalendarRange
	calls   int
}

func (m *mockCalendarReader) CalendarRange(ctx context.Context, rng models.CalendarRange) ([]repository.CalendarRow, error) {
	m.lastRng = rng
	m.calls++
	return m.rows, nil
}

type mockCalendarCache struct {
	store map[string][]models.CalendarEntry
}

func (m *mockCalendarCache) Get(ctx context.Context, key string, dest interface{}) error {
	if entries, ok := m.store[key]; ok {
		*dest.(*[]models.CalendarEntry) = entries
		return nil
	}
	return appErrors.ErrCacheMiss
}

func (m *mockCalendarCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.store == nil {
		m.store = make(map[string][]models.CalendarEntry)
	}
	m.store[key] = value.([]models.CalendarEntry)
	return nil
}

func TestCalendarServiceFeed(t *testing.T) {
	reader := &mockCalendarReader{rows: []repository.CalendarRow{{
		ID:      "s1",
		Title:   "Salsa Basics",
		StartAt: time.Date(2024, 1, 15, 18, 0, 0, 0, time.UTC),
		EndAt:   time.Date(2024, 1, 15, 19, 0, 0, 0, time.UTC),
	}}}
	svc := NewCalendarService(reader, nil, zap.NewNop(), config.CalendarConfig{}, "https://studio.example.com")

	entries, err := svc.Feed(context.Background(), "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Salsa Basics", entries[0].Title)
	assert.Equal(t, "2024-01-15T18:00:00Z", entries[0].Start)
	assert.Equal(t, "2024-01-15T19:00:00Z", entries[0].End)
	assert.Equal(t, "https://studio.example.com/classes/s1", entries[0].URL)

	require.NotNil(t, reader.lastRng.Start)
	require.NotNil(t, reader.lastRng.End)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *reader.lastRng.Start)
	// End is exclusive at the midnight after the requested day.
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), *reader.lastRng.End)
}

func TestCalendarServiceFeedTimestampBounds(t *testing.T) {
	// Calendar widgets send full RFC 3339 instants; they must bound the
	// range exactly, not fall through as malformed.
	reader := &mockCalendarReader{}
	svc := NewCalendarService(reader, nil, zap.NewNop(), config.CalendarConfig{}, "https://studio.example.com")

	_, err := svc.Feed(context.Background(), "2024-01-01T00:00:00Z", "2024-01-31T12:30:00Z")
	require.NoError(t, err)
	require.NotNil(t, reader.lastRng.Start)
	require.NotNil(t, reader.lastRng.End)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *reader.lastRng.Start)
	assert.Equal(t, time.Date(2024, 1, 31, 12, 30, 0, 0, time.UTC), *reader.lastRng.End)
}

func TestCalendarServiceFeedMalformedBoundsIgnored(t *testing.T) {
	reader := &mockCalendarReader{}
	svc := NewCalendarService(reader, nil, zap.NewNop(), config.CalendarConfig{}, "https://studio.example.com")

	_, err := svc.Feed(context.Background(), "01/15/2024", "whenever")
	require.NoError(t, err)
	assert.True(t, reader.lastRng.Empty())
}

func TestCalendarServiceFeedCaches(t *testing.T) {
	reader := &mockCalendarReader{rows: []repository.CalendarRow{{
		ID:      "s1",
		Title:   "Salsa Basics",
		StartAt: time.Date(2024, 1, 15, 18, 0, 0, 0, time.UTC),
		EndAt:   time.Date(2024, 1, 15, 19, 0, 0, 0, time.UTC),
	}}}
	cache := &mockCalendarCache{}
	svc := NewCalendarService(reader, cache, zap.NewNop(), config.CalendarConfig{CacheEnabled: true, CacheTTL: time.Minute}, "https://studio.example.com")

	first, err := svc.Feed(context.Background(), "", "")
	require.NoError(t, err)
	second, err := svc.Feed(context.Background(), "", "")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, reader.calls)
}
