package models

import (
	"time"

	"github.com/lib/pq"
)

// ClassSession is a scheduled, bookable instance of a ClassType.
// A session with RecurrenceEnabled acts as the seed for projected repeats.
// All timestamps are stored and compared in UTC; projecting a seed adds
// whole weeks of wall-clock time, so generated occurrences keep the seed's
// exact duration.
type ClassSession struct {
	ID           string    `db:"id" json:"id"`
	ClassTypeID  string    `db:"class_type_id" json:"class_type_id"`
	InstructorID *string   `db:"instructor_id" json:"instructor_id,omitempty"`
	LocationID   *string   `db:"location_id" json:"location_id,omitempty"`
	StartAt      time.Time `db:"start_at" json:"start_at"`
	EndAt        time.Time `db:"end_at" json:"end_at"`
	Capacity     int       `db:"capacity" json:"capacity"`
	PriceCents   int       `db:"price_cents" json:"price_cents"`
	Published    bool      `db:"published" json:"published"`
	Notes        string    `db:"notes" json:"notes,omitempty"`

	RecurrenceEnabled bool           `db:"recurrence_enabled" json:"recurrence_enabled"`
	EveryNWeeks       int            `db:"every_n_weeks" json:"every_n_weeks"`
	RecurrenceUntil   *time.Time     `db:"recurrence_until" json:"recurrence_until,omitempty"`
	RecurrenceSkips   pq.StringArray `db:"recurrence_skips" json:"recurrence_skips,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Duration returns the session length.
func (s *ClassSession) Duration() time.Duration {
	return s.EndAt.Sub(s.StartAt)
}

// SessionDetail joins display fields onto a session row.
type SessionDetail struct {
	ClassSession
	ClassTypeTitle string     `db:"class_type_title" json:"class_type_title"`
	ClassTypeSlug  string     `db:"class_type_slug" json:"class_type_slug"`
	Level          ClassLevel `db:"level" json:"level"`
	InstructorName *string    `db:"instructor_name" json:"instructor_name,omitempty"`
	LocationName   *string    `db:"location_name" json:"location_name,omitempty"`
	SpotsLeft      int        `db:"spots_left" json:"spots_left"`
}

// SessionFilter captures filtering criteria for the public schedule.
type SessionFilter struct {
	ClassTypeID  string
	Level        string
	InstructorID string
	LocationID   string
	DateFrom     *time.Time
	DateTo       *time.Time
	Published    *bool
	FutureOnly   bool
	Page         int
	PageSize     int
}
