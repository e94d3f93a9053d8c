package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/glowpoint/studio-api/internal/dto"
	"github.com/glowpoint/studio-api/internal/models"
	"github.com/glowpoint/studio-api/internal/service"
	"github.com/glowpoint/studio-api/pkg/config"
)

type sessionRepoStub struct {
	seed     models.ClassSession
	occupied map[string]bool
	created  []models.ClassSession
}

func projKey(classTypeID string, at time.Time) string {
	return classTypeID + "|" + at.UTC().Format(time.RFC3339)
}

func (m *sessionRepoStub) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	if id != m.seed.ID {
		return nil, sql.ErrNoRows
	}
	s := m.seed
	return &s, nil
}

func (m *sessionRepoStub) ExistsAt(ctx context.Context, classTypeID string, startAt time.Time) (bool, error) {
	return m.occupied[projKey(classTypeID, startAt)], nil
}

func (m *sessionRepoStub) Create(ctx context.Context, session *models.ClassSession) error {
	if m.occupied == nil {
		m.occupied = make(map[string]bool)
	}
	m.occupied[projKey(session.ClassTypeID, session.StartAt)] = true
	m.created = append(m.created, *session)
	return nil
}

func newGenerateFixture(t *testing.T) (*SessionHandler, *sessionRepoStub) {
	t.Helper()
	until := time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC)
	repo := &sessionRepoStub{seed: models.ClassSession{
		ID:                "seed-1",
		ClassTypeID:       "ct-1",
		StartAt:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndAt:             time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC),
		RecurrenceEnabled: true,
		EveryNWeeks:       1,
		RecurrenceUntil:   &until,
		RecurrenceSkips:   []string{"2024-01-08"},
	}}
	repo.occupied = map[string]bool{projKey("ct-1", repo.seed.StartAt): true}
	recurrence := service.NewRecurrenceService(repo, nil, zap.NewNop(), config.RecurrenceConfig{DefaultHorizonWeeks: 12, MaxBatchOccurrences: 52})
	return NewSessionHandler(nil, recurrence), repo
}

func TestSessionHandlerGenerate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newGenerateFixture(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/sessions/seed-1/generate", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "seed-1"}}

	handler.Generate(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data dto.ProjectionReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, dto.ProjectionOK, envelope.Data.Outcome)
	require.Equal(t, 2, envelope.Data.Created)
	require.Equal(t, 1, envelope.Data.Skipped)
	require.Len(t, repo.created, 2)
}

func TestSessionHandlerGenerateUnknownSeed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newGenerateFixture(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/sessions/ghost/generate", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "ghost"}}

	handler.Generate(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandlerGenerateBatch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newGenerateFixture(t)

	body, err := json.Marshal(dto.BatchGenerateCommand{
		SessionIDs:  []string{"seed-1"},
		Occurrences: 3,
		EveryNWeeks: 1,
		SkipDates:   []string{"2024-01-08"},
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/sessions/generate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.GenerateBatch(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data dto.BatchProjectionReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, 2, envelope.Data.Created)
	require.Equal(t, 1, envelope.Data.Skipped)
	require.Len(t, repo.created, 2)
}
