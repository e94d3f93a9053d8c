package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/glowpoint/studio-api/internal/dto"
	"github.com/glowpoint/studio-api/internal/models"
	"github.com/glowpoint/studio-api/pkg/config"
)

type mockSessionRepo struct {
	sessions map[string]models.ClassSession
	occupied map[string]bool
	created  []models.ClassSession
}

func occupancyKey(classTypeID string, at time.Time) string {
	return classTypeID + "|" + at.UTC().Format(time.RFC3339)
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	if s, ok := m.sessions[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionRepo) ExistsAt(ctx context.Context, classTypeID string, startAt time.Time) (bool, error) {
	return m.occupied[occupancyKey(classTypeID, startAt)], nil
}

func (m *mockSessionRepo) Create(ctx context.Context, session *models.ClassSession) error {
	if m.occupied == nil {
		m.occupied = make(map[string]bool)
	}
	m.occupied[occupancyKey(session.ClassTypeID, session.StartAt)] = true
	m.created = append(m.created, *session)
	return nil
}

func newRecurrenceFixture(seed models.ClassSession) (*RecurrenceService, *mockSessionRepo) {
	repo := &mockSessionRepo{
		sessions: map[string]models.ClassSession{seed.ID: seed},
		occupied: map[string]bool{occupancyKey(seed.ClassTypeID, seed.StartAt): true},
	}
	svc := NewRecurrenceService(repo, validator.New(), zap.NewNop(), config.RecurrenceConfig{DefaultHorizonWeeks: 12, MaxBatchOccurrences: 52})
	return svc, repo
}

func weeklySeed() models.ClassSession {
	until := time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC)
	return models.ClassSession{
		ID:                "seed-1",
		ClassTypeID:       "ct-1",
		StartAt:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndAt:             time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC),
		Capacity:          12,
		Published:         true,
		RecurrenceEnabled: true,
		EveryNWeeks:       1,
		RecurrenceUntil:   &until,
		RecurrenceSkips:   []string{"2024-01-08"},
	}
}

func TestRecurrenceServiceGenerate(t *testing.T) {
	svc, repo := newRecurrenceFixture(weeklySeed())

	report, err := svc.Generate(context.Background(), "seed-1", dto.GenerateRecurrencesRequest{})
	require.NoError(t, err)
	assert.Equal(t, dto.ProjectionOK, report.Outcome)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Skipped)

	require.Len(t, repo.created, 2)
	first, second := repo.created[0], repo.created[1]
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), first.StartAt)
	assert.Equal(t, time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC), second.StartAt)
	assert.Equal(t, time.Hour, first.Duration())
	assert.Equal(t, time.Hour, second.Duration())
	assert.Equal(t, 12, first.Capacity)
	assert.True(t, first.Published)
	assert.False(t, first.RecurrenceEnabled)
}

func TestRecurrenceServiceGenerateOccurrenceSkipsNotNull(t *testing.T) {
	// Projected copies start without skip dates of their own; the column is
	// NOT NULL so the stored array must be empty, never SQL NULL.
	svc, repo := newRecurrenceFixture(weeklySeed())

	_, err := svc.Generate(context.Background(), "seed-1", dto.GenerateRecurrencesRequest{})
	require.NoError(t, err)
	require.NotEmpty(t, repo.created)
	for _, occurrence := range repo.created {
		value, err := occurrence.RecurrenceSkips.Value()
		require.NoError(t, err)
		assert.NotNil(t, value)
	}
}

func TestRecurrenceServiceGenerateIdempotent(t *testing.T) {
	svc, repo := newRecurrenceFixture(weeklySeed())

	_, err := svc.Generate(context.Background(), "seed-1", dto.GenerateRecurrencesRequest{})
	require.NoError(t, err)
	require.Len(t, repo.created, 2)

	report, err := svc.Generate(context.Background(), "seed-1", dto.GenerateRecurrencesRequest{})
	require.NoError(t, err)
	assert.Equal(t, dto.ProjectionOK, report.Outcome)
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 3, report.Skipped)
	assert.Len(t, repo.created, 2)
}

func TestRecurrenceServiceGenerateDisabled(t *testing.T) {
	seed := weeklySeed()
	seed.RecurrenceEnabled = false
	svc, repo := newRecurrenceFixture(seed)

	report, err := svc.Generate(context.Background(), "seed-1", dto.GenerateRecurrencesRequest{})
	require.NoError(t, err)
	assert.Equal(t, dto.ProjectionDisabled, report.Outcome)
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 0, report.Skipped)
	assert.Empty(t, repo.created)
}

func TestRecurrenceServiceGenerateEmptyRange(t *testing.T) {
	seed := weeklySeed()
	svc, repo := newRecurrenceFixture(seed)

	report, err := svc.Generate(context.Background(), "seed-1", dto.GenerateRecurrencesRequest{Until: "2023-12-25"})
	require.NoError(t, err)
	assert.Equal(t, dto.ProjectionEmptyRange, report.Outcome)
	assert.Equal(t, 0, report.Created)
	assert.Empty(t, repo.created)
}

func TestRecurrenceServiceGenerateUntilOnSeedDate(t *testing.T) {
	// An end boundary equal to the seed's own date yields zero occurrences
	// but is still an OK run, not an empty range.
	seed := weeklySeed()
	svc, _ := newRecurrenceFixture(seed)

	report, err := svc.Generate(context.Background(), "seed-1", dto.GenerateRecurrencesRequest{Until: "2024-01-01"})
	require.NoError(t, err)
	assert.Equal(t, dto.ProjectionOK, report.Outcome)
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 0, report.Skipped)
}

func TestRecurrenceServiceGenerateDryRun(t *testing.T) {
	svc, repo := newRecurrenceFixture(weeklySeed())

	report, err := svc.Generate(context.Background(), "seed-1", dto.GenerateRecurrencesRequest{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Skipped)
	assert.Empty(t, repo.created)
}

func TestRecurrenceServiceGenerateDefaultHorizon(t *testing.T) {
	seed := weeklySeed()
	seed.RecurrenceUntil = nil
	seed.RecurrenceSkips = nil
	svc, repo := newRecurrenceFixture(seed)

	report, err := svc.Generate(context.Background(), "seed-1", dto.GenerateRecurrencesRequest{})
	require.NoError(t, err)
	assert.Equal(t, dto.ProjectionOK, report.Outcome)
	assert.Equal(t, 12, report.Created)
	assert.Len(t, repo.created, 12)
}

func TestRecurrenceServiceGenerateFortnightly(t *testing.T) {
	seed := weeklySeed()
	seed.EveryNWeeks = 2
	seed.RecurrenceSkips = nil
	until := time.Date(2024, 2, 12, 0, 0, 0, 0, time.UTC)
	seed.RecurrenceUntil = &until
	svc, repo := newRecurrenceFixture(seed)

	report, err := svc.Generate(context.Background(), "seed-1", dto.GenerateRecurrencesRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Created)
	require.Len(t, repo.created, 3)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), repo.created[0].StartAt)
	assert.Equal(t, time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC), repo.created[1].StartAt)
	assert.Equal(t, time.Date(2024, 2, 12, 0, 0, 0, 0, time.UTC), repo.created[2].StartAt)
}

func TestRecurrenceServiceGenerateMalformedSkipDropped(t *testing.T) {
	seed := weeklySeed()
	seed.RecurrenceSkips = []string{"not-a-date", "2024-01-08"}
	svc, _ := newRecurrenceFixture(seed)

	report, err := svc.Generate(context.Background(), "seed-1", dto.GenerateRecurrencesRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Skipped)
}

func TestRecurrenceServiceGenerateInvalidUntil(t *testing.T) {
	svc, _ := newRecurrenceFixture(weeklySeed())

	_, err := svc.Generate(context.Background(), "seed-1", dto.GenerateRecurrencesRequest{Until: "22-01-2024"})
	assert.Error(t, err)
}

func TestRecurrenceServiceGenerateNotFound(t *testing.T) {
	svc, _ := newRecurrenceFixture(weeklySeed())

	_, err := svc.Generate(context.Background(), "ghost", dto.GenerateRecurrencesRequest{})
	assert.Error(t, err)
}

func TestRecurrenceServiceGenerateBatch(t *testing.T) {
	seedA := weeklySeed()
	seedB := weeklySeed()
	seedB.ID = "seed-2"
	seedB.ClassTypeID = "ct-2"
	seedB.StartAt = time.Date(2024, 1, 2, 18, 30, 0, 0, time.UTC)
	seedB.EndAt = time.Date(2024, 1, 2, 20, 0, 0, 0, time.UTC)

	repo := &mockSessionRepo{
		sessions: map[string]models.ClassSession{seedA.ID: seedA, seedB.ID: seedB},
		occupied: map[string]bool{
			occupancyKey(seedA.ClassTypeID, seedA.StartAt): true,
			occupancyKey(seedB.ClassTypeID, seedB.StartAt): true,
		},
	}
	svc := NewRecurrenceService(repo, validator.New(), zap.NewNop(), config.RecurrenceConfig{DefaultHorizonWeeks: 12, MaxBatchOccurrences: 52})

	batch, err := svc.GenerateBatch(context.Background(), dto.BatchGenerateCommand{
		SessionIDs:  []string{"seed-1", "seed-2"},
		Occurrences: 3,
		EveryNWeeks: 1,
		SkipDates:   []string{"2024-01-08"},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, batch.Created)
	assert.Equal(t, 1, batch.Skipped)
	require.Contains(t, batch.Seeds, "seed-1")
	require.Contains(t, batch.Seeds, "seed-2")
	assert.Equal(t, 2, batch.Seeds["seed-1"].Created)
	assert.Equal(t, 1, batch.Seeds["seed-1"].Skipped)
	assert.Equal(t, 3, batch.Seeds["seed-2"].Created)
	assert.Equal(t, 90*time.Minute, repo.created[len(repo.created)-1].Duration())
}

func TestRecurrenceServiceGenerateBatchTooManyOccurrences(t *testing.T) {
	svc, _ := newRecurrenceFixture(weeklySeed())

	_, err := svc.GenerateBatch(context.Background(), dto.BatchGenerateCommand{
		SessionIDs:  []string{"seed-1"},
		Occurrences: 53,
		EveryNWeeks: 1,
	})
	assert.Error(t, err)
}
