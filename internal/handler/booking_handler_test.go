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

	"github.com/glowpoint/studio-api/internal/middleware"
	"github.com/glowpoint/studio-api/internal/models"
	"github.com/glowpoint/studio-api/internal/service"
	"github.com/glowpoint/studio-api/pkg/config"
)

type bookingRepoStub struct {
	capacity  int
	confirmed int
	created   *models.Booking
}

func (m *bookingRepoStub) CreateAdmitted(ctx context.Context, booking *models.Booking) (*models.Admission, error) {
	spotsLeft := m.capacity - m.confirmed
	if spotsLeft < 0 {
		spotsLeft = 0
	}
	if booking.Quantity < 1 || spotsLeft < booking.Quantity {
		return &models.Admission{Admitted: false, SpotsLeft: spotsLeft}, nil
	}
	booking.ID = "b-1"
	m.created = booking
	return &models.Admission{Admitted: true, SpotsLeft: spotsLeft - booking.Quantity}, nil
}

func (m *bookingRepoStub) SpotsLeft(ctx context.Context, sessionID string) (int, error) {
	return m.capacity - m.confirmed, nil
}

func (m *bookingRepoStub) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	return nil, sql.ErrNoRows
}

func (m *bookingRepoStub) List(ctx context.Context, filter models.BookingFilter) ([]models.BookingDetail, int, error) {
	return nil, 0, nil
}

func (m *bookingRepoStub) UpdateStatus(ctx context.Context, id string, status models.ReservationStatus, paidCents int) error {
	return nil
}

type sessionReaderStub struct {
	session models.ClassSession
}

func (m *sessionReaderStub) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	if id != m.session.ID {
		return nil, sql.ErrNoRows
	}
	s := m.session
	return &s, nil
}

func newBookingHandlerFixture(capacity, confirmed int) (*BookingHandler, *bookingRepoStub) {
	repo := &bookingRepoStub{capacity: capacity, confirmed: confirmed}
	sessions := &sessionReaderStub{session: models.ClassSession{
		ID:          "sess-1",
		ClassTypeID: "ct-1",
		StartAt:     time.Now().UTC().Add(48 * time.Hour),
		EndAt:       time.Now().UTC().Add(49 * time.Hour),
		Capacity:    capacity,
		Published:   true,
	}}
	svc := service.NewBookingService(repo, sessions, nil, zap.NewNop(), config.BookingConfig{MaxQuantity: 20})
	return NewBookingHandler(svc), repo
}

func postBooking(t *testing.T, handler *BookingHandler, claims *models.JWTClaims, payload map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/bookings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}

	handler.Create(c)
	return w
}

func TestBookingHandlerCreateRequiresAuth(t *testing.T) {
	handler, _ := newBookingHandlerFixture(10, 0)
	w := postBooking(t, handler, nil, map[string]interface{}{
		"session_id": "sess-1", "full_name": "Ada", "email": "ada@example.com", "quantity": 1,
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBookingHandlerCreateAdmitted(t *testing.T) {
	handler, repo := newBookingHandlerFixture(10, 9)
	claims := &models.JWTClaims{UserID: "user-1", Role: models.RoleMember}

	w := postBooking(t, handler, claims, map[string]interface{}{
		"session_id": "sess-1", "full_name": "Ada Lovelace", "email": "ada@example.com", "quantity": 1,
	})

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, repo.created)
	require.Equal(t, "user-1", repo.created.UserID)
	require.Equal(t, models.StatusPending, repo.created.Status)
}

func TestBookingHandlerCreateCapacityExceeded(t *testing.T) {
	handler, repo := newBookingHandlerFixture(10, 9)
	claims := &models.JWTClaims{UserID: "user-1", Role: models.RoleMember}

	w := postBooking(t, handler, claims, map[string]interface{}{
		"session_id": "sess-1", "full_name": "Ada Lovelace", "email": "ada@example.com", "quantity": 2,
	})

	require.Equal(t, http.StatusConflict, w.Code)
	require.Nil(t, repo.created)
	require.Contains(t, w.Body.String(), "CAPACITY_EXCEEDED")
	require.Contains(t, w.Body.String(), "only 1 spots left")
}

func TestBookingHandlerCreateRejectsBadPayload(t *testing.T) {
	handler, _ := newBookingHandlerFixture(10, 0)
	claims := &models.JWTClaims{UserID: "user-1", Role: models.RoleMember}

	w := postBooking(t, handler, claims, map[string]interface{}{
		"session_id": "sess-1", "full_name": "Ada", "email": "not-an-email", "quantity": 1,
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
}
