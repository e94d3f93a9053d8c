package models

import "time"

// ReservationStatus is the lifecycle state shared by bookings and event
// registrations. Only CONFIRMED rows count against capacity; PENDING rows
// are admitted without holding a spot so abandoned checkouts never block a
// session (settled later by the payment collaborator).
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "PENDING"
	StatusConfirmed ReservationStatus = "CONFIRMED"
	StatusCancelled ReservationStatus = "CANCELLED"
	StatusRefunded  ReservationStatus = "REFUNDED"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// Booking reserves quantity spots on a class session.
type Booking struct {
	ID        string            `db:"id" json:"id"`
	UserID    string            `db:"user_id" json:"user_id"`
	SessionID string            `db:"session_id" json:"session_id"`
	FullName  string            `db:"full_name" json:"full_name"`
	Email     string            `db:"email" json:"email"`
	Quantity  int               `db:"quantity" json:"quantity"`
	Message   string            `db:"message" json:"message,omitempty"`
	Status    ReservationStatus `db:"status" json:"status"`
	PaidCents int               `db:"paid_cents" json:"paid_cents"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt time.Time         `db:"updated_at" json:"updated_at"`
}

// BookingDetail joins session context onto a booking row.
type BookingDetail struct {
	Booking
	ClassTypeTitle string    `db:"class_type_title" json:"class_type_title"`
	SessionStartAt time.Time `db:"session_start_at" json:"session_start_at"`
	SessionEndAt   time.Time `db:"session_end_at" json:"session_end_at"`
}

// Admission is the outcome of a capacity-guarded create attempt.
type Admission struct {
	Admitted  bool `json:"admitted"`
	SpotsLeft int  `json:"spots_left"`
}

// BookingFilter captures admin listing criteria.
type BookingFilter struct {
	UserID    string
	SessionID string
	Status    string
	Page      int
	PageSize  int
}
