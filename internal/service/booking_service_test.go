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
	"github.com/glowpoint/studio-api/pkg/config"
	appErrors "github.com/glowpoint/studio-api/pkg/errors"
)

type mockBookingRepo struct {
	capacity  int
	confirmed int
	bookings  map[string]models.Booking
	created   *models.Booking
	status    map[string]models.ReservationStatus
}

func (m *mockBookingRepo) CreateAdmitted(ctx context.Context, booking *models.Booking) (*models.Admission, error) {
	spotsLeft := m.capacity - m.confirmed
	if spotsLeft < 0 {
		spotsLeft = 0
	}
	if booking.Quantity < 1 || spotsLeft < booking.Quantity {
		return &models.Admission{Admitted: false, SpotsLeft: spotsLeft}, nil
	}
	if m.bookings == nil {
		m.bookings = make(map[string]models.Booking)
	}
	if booking.ID == "" {
		booking.ID = "new-booking"
	}
	m.bookings[booking.ID] = *booking
	m.created = booking
	return &models.Admission{Admitted: true, SpotsLeft: spotsLeft - booking.Quantity}, nil
}

func (m *mockBookingRepo) SpotsLeft(ctx context.Context, sessionID string) (int, error) {
	spots := m.capacity - m.confirmed
	if spots < 0 {
		spots = 0
	}
	return spots, nil
}

func (m *mockBookingRepo) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	if b, ok := m.bookings[id]; ok {
		return &b, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockBookingRepo) List(ctx context.Context, filter models.BookingFilter) ([]models.BookingDetail, int, error) {
	return nil, 0, nil
}

func (m *mockBookingRepo) UpdateStatus(ctx context.Context, id string, status models.ReservationStatus, paidCents int) error {
	if _, ok := m.bookings[id]; !ok {
		return sql.ErrNoRows
	}
	if m.status == nil {
		m.status = make(map[string]models.ReservationStatus)
	}
	m.status[id] = status
	b := m.bookings[id]
	b.Status = status
	b.PaidCents = paidCents
	m.bookings[id] = b
	return nil
}

type mockBookingSessionReader struct {
	sessions map[string]models.ClassSession
}

func (m *mockBookingSessionReader) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	if s, ok := m.sessions[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func newBookingFixture(capacity, confirmed int, startAt time.Time) (*BookingService, *mockBookingRepo) {
	repo := &mockBookingRepo{capacity: capacity, confirmed: confirmed}
	sessions := &mockBookingSessionReader{sessions: map[string]models.ClassSession{
		"sess-1": {ID: "sess-1", ClassTypeID: "ct-1", StartAt: startAt, EndAt: startAt.Add(time.Hour), Capacity: capacity, Published: true},
	}}
	svc := NewBookingService(repo, sessions, validator.New(), zap.NewNop(), config.BookingConfig{MaxQuantity: 20})
	svc.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	return svc, repo
}

func validBookingRequest(qty int) CreateBookingRequest {
	return CreateBookingRequest{SessionID: "sess-1", FullName: "Ada Lovelace", Email: "ada@example.com", Quantity: qty}
}

func TestBookingServiceCreateAdmitsLastSpot(t *testing.T) {
	future := time.Date(2024, 1, 2, 18, 0, 0, 0, time.UTC)
	svc, repo := newBookingFixture(10, 9, future)

	booking, err := svc.Create(context.Background(), "user-1", validBookingRequest(1))
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, models.StatusPending, booking.Status)
	assert.Equal(t, 1, booking.Quantity)
	assert.Equal(t, "user-1", booking.UserID)
}

func TestBookingServiceCreateRejectsOverCapacity(t *testing.T) {
	future := time.Date(2024, 1, 2, 18, 0, 0, 0, time.UTC)
	svc, repo := newBookingFixture(10, 9, future)

	_, err := svc.Create(context.Background(), "user-1", validBookingRequest(2))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrCapacity.Code, appErr.Code)
	assert.Equal(t, "only 1 spots left", appErr.Message)
	assert.Nil(t, repo.created)
}

func TestBookingServiceCreateRejectsPastSession(t *testing.T) {
	past := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	svc, repo := newBookingFixture(10, 0, past)

	_, err := svc.Create(context.Background(), "user-1", validBookingRequest(1))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSessionStarted.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestBookingServiceCreateRejectsUnpublished(t *testing.T) {
	future := time.Date(2024, 1, 2, 18, 0, 0, 0, time.UTC)
	svc, _ := newBookingFixture(10, 0, future)
	reader := svc.sessions.(*mockBookingSessionReader)
	session := reader.sessions["sess-1"]
	session.Published = false
	reader.sessions["sess-1"] = session

	_, err := svc.Create(context.Background(), "user-1", validBookingRequest(1))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestBookingServiceCreateRejectsZeroQuantity(t *testing.T) {
	future := time.Date(2024, 1, 2, 18, 0, 0, 0, time.UTC)
	svc, _ := newBookingFixture(10, 0, future)

	_, err := svc.Create(context.Background(), "user-1", validBookingRequest(0))
	assert.Error(t, err)
}

func TestBookingServiceCreateRejectsExcessiveQuantity(t *testing.T) {
	future := time.Date(2024, 1, 2, 18, 0, 0, 0, time.UTC)
	svc, _ := newBookingFixture(100, 0, future)

	_, err := svc.Create(context.Background(), "user-1", validBookingRequest(21))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBookingServiceGetEnforcesOwnership(t *testing.T) {
	future := time.Date(2024, 1, 2, 18, 0, 0, 0, time.UTC)
	svc, repo := newBookingFixture(10, 0, future)
	repo.bookings = map[string]models.Booking{"b1": {ID: "b1", UserID: "user-1", SessionID: "sess-1", Status: models.StatusPending}}

	_, err := svc.Get(context.Background(), "b1", "user-2", models.RoleMember)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	booking, err := svc.Get(context.Background(), "b1", "user-2", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "b1", booking.ID)
}

func TestBookingServiceUpdateStatus(t *testing.T) {
	future := time.Date(2024, 1, 2, 18, 0, 0, 0, time.UTC)
	svc, repo := newBookingFixture(10, 0, future)
	repo.bookings = map[string]models.Booking{"b1": {ID: "b1", UserID: "user-1", SessionID: "sess-1", Status: models.StatusPending}}

	booking, err := svc.UpdateStatus(context.Background(), "b1", UpdateBookingStatusRequest{Status: models.StatusConfirmed, PaidCents: 2500})
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, booking.Status)
	assert.Equal(t, 2500, booking.PaidCents)
}

func TestBookingServiceUpdateStatusRejectsUnknown(t *testing.T) {
	future := time.Date(2024, 1, 2, 18, 0, 0, 0, time.UTC)
	svc, repo := newBookingFixture(10, 0, future)
	repo.bookings = map[string]models.Booking{"b1": {ID: "b1", Status: models.StatusPending}}

	_, err := svc.UpdateStatus(context.Background(), "b1", UpdateBookingStatusRequest{Status: "SHIPPED"})
	assert.Error(t, err)
}
