package models

import "time"

// EventKind distinguishes inquiry-driven private events from registerable
// public ones.
type EventKind string

const (
	EventPrivate EventKind = "PRIVATE"
	EventPublic  EventKind = "PUBLIC"
)

// Event is a one-off happening (workshop, party, showcase). Capacity 0 on a
// public event means unlimited; private events never bound capacity.
type Event struct {
	ID          string     `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Slug        string     `db:"slug" json:"slug"`
	Kind        EventKind  `db:"kind" json:"kind"`
	Description string     `db:"description" json:"description,omitempty"`
	StartAt     *time.Time `db:"start_at" json:"start_at,omitempty"`
	EndAt       *time.Time `db:"end_at" json:"end_at,omitempty"`
	LocationID  *string    `db:"location_id" json:"location_id,omitempty"`
	Capacity    int        `db:"capacity" json:"capacity"`
	PriceCents  int        `db:"price_cents" json:"price_cents"`
	Published   bool       `db:"published" json:"published"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Unlimited reports whether capacity checks are bypassed for this event.
func (e *Event) Unlimited() bool {
	return e.Kind != EventPublic || e.Capacity <= 0
}

// EventRegistration reserves quantity spots on a public event.
type EventRegistration struct {
	ID        string            `db:"id" json:"id"`
	UserID    string            `db:"user_id" json:"user_id"`
	EventID   string            `db:"event_id" json:"event_id"`
	FullName  string            `db:"full_name" json:"full_name"`
	Email     string            `db:"email" json:"email"`
	Quantity  int               `db:"quantity" json:"quantity"`
	Status    ReservationStatus `db:"status" json:"status"`
	PaidCents int               `db:"paid_cents" json:"paid_cents"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt time.Time         `db:"updated_at" json:"updated_at"`
}

// InquiryCategory classifies a private event inquiry.
type InquiryCategory string

const (
	InquiryBachelorette InquiryCategory = "BACHELORETTE"
	InquiryBirthday     InquiryCategory = "BIRTHDAY"
	InquiryCorporate    InquiryCategory = "CORPORATE"
	InquirySchool       InquiryCategory = "SCHOOL"
	InquiryCustom       InquiryCategory = "CUSTOM"
)

// InquiryStatus is the admin workflow state of an inquiry.
type InquiryStatus string

const (
	InquiryNew       InquiryStatus = "NEW"
	InquiryContacted InquiryStatus = "CONTACTED"
	InquiryBooked    InquiryStatus = "BOOKED"
	InquiryClosed    InquiryStatus = "CLOSED"
)

// EventInquiry is a private event request submitted through the public form.
type EventInquiry struct {
	ID              string          `db:"id" json:"id"`
	FullName        string          `db:"full_name" json:"full_name"`
	Email           string          `db:"email" json:"email"`
	Phone           string          `db:"phone" json:"phone,omitempty"`
	Category        InquiryCategory `db:"category" json:"category"`
	PreferredDate   *time.Time      `db:"preferred_date" json:"preferred_date,omitempty"`
	AttendeesCount  int             `db:"attendees_count" json:"attendees_count"`
	CityOrStudio    string          `db:"city_or_studio" json:"city_or_studio,omitempty"`
	Message         string          `db:"message" json:"message,omitempty"`
	Status          InquiryStatus   `db:"status" json:"status"`
	TemplateEventID *string         `db:"template_event_id" json:"template_event_id,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}
