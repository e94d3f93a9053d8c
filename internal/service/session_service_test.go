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

	"github.com/glowpoint/studio-api/internal/models"
	appErrors "github.com/glowpoint/studio-api/pkg/errors"
)

type mockScheduleRepo struct {
	sessions map[string]models.ClassSession
	created  []models.ClassSession
	updated  []models.ClassSession
}

func (m *mockScheduleRepo) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	if s, ok := m.sessions[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockScheduleRepo) FindDetailByID(ctx context.Context, id string) (*models.SessionDetail, error) {
	if s, ok := m.sessions[id]; ok {
		return &models.SessionDetail{ClassSession: s}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockScheduleRepo) List(ctx context.Context, filter models.SessionFilter) ([]models.SessionDetail, int, error) {
	return nil, 0, nil
}

func (m *mockScheduleRepo) Create(ctx context.Context, session *models.ClassSession) error {
	m.created = append(m.created, *session)
	return nil
}

func (m *mockScheduleRepo) Update(ctx context.Context, session *models.ClassSession) error {
	m.updated = append(m.updated, *session)
	return nil
}

func (m *mockScheduleRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.sessions[id]; !ok {
		return sql.ErrNoRows
	}
	return nil
}

type mockClassTypeReader struct {
	classTypes map[string]models.ClassType
}

func (m *mockClassTypeReader) FindClassTypeByID(ctx context.Context, id string) (*models.ClassType, error) {
	if ct, ok := m.classTypes[id]; ok {
		return &ct, nil
	}
	return nil, sql.ErrNoRows
}

func newSessionFixture() (*SessionService, *mockScheduleRepo) {
	repo := &mockScheduleRepo{sessions: map[string]models.ClassSession{}}
	classTypes := &mockClassTypeReader{classTypes: map[string]models.ClassType{
		"ct-1": {ID: "ct-1", Title: "Pottery Basics"},
	}}
	svc := NewSessionService(repo, classTypes, validator.New(), zap.NewNop())
	return svc, repo
}

func validCreateSessionRequest() CreateSessionRequest {
	return CreateSessionRequest{
		ClassTypeID: "ct-1",
		StartAt:     "2024-03-04T18:00:00Z",
		EndAt:       "2024-03-04T19:00:00Z",
		Capacity:    10,
	}
}

func TestSessionServiceCreate(t *testing.T) {
	svc, repo := newSessionFixture()

	req := validCreateSessionRequest()
	req.RecurrenceEnabled = true
	req.EveryNWeeks = 1
	req.RecurrenceUntil = "2024-04-01"

	session, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Equal(t, time.Date(2024, 3, 4, 18, 0, 0, 0, time.UTC), session.StartAt)
	assert.Equal(t, time.Hour, session.Duration())
	require.NotNil(t, session.RecurrenceUntil)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), *session.RecurrenceUntil)
}

func TestSessionServiceCreateRejectsZeroCapacity(t *testing.T) {
	// Sessions are always bounded; a zero capacity would make the session
	// permanently unbookable, not unlimited.
	svc, repo := newSessionFixture()

	req := validCreateSessionRequest()
	req.Capacity = 0

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestSessionServiceCreateRejectsInvertedWindow(t *testing.T) {
	svc, repo := newSessionFixture()

	req := validCreateSessionRequest()
	req.EndAt = "2024-03-04T18:00:00Z"

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestSessionServiceCreateRejectsMalformedUntil(t *testing.T) {
	svc, repo := newSessionFixture()

	req := validCreateSessionRequest()
	req.RecurrenceUntil = "01/04/2024"

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestSessionServiceUpdateRejectsZeroCapacity(t *testing.T) {
	svc, repo := newSessionFixture()
	repo.sessions["sess-1"] = models.ClassSession{
		ID:          "sess-1",
		ClassTypeID: "ct-1",
		StartAt:     time.Date(2024, 3, 4, 18, 0, 0, 0, time.UTC),
		EndAt:       time.Date(2024, 3, 4, 19, 0, 0, 0, time.UTC),
		Capacity:    10,
	}

	zero := 0
	_, err := svc.Update(context.Background(), "sess-1", UpdateSessionRequest{Capacity: &zero})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.updated)
}

func TestSessionServiceCreateUnknownClassType(t *testing.T) {
	svc, _ := newSessionFixture()

	req := validCreateSessionRequest()
	req.ClassTypeID = "ghost"

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
