package models

import "time"

// ClassLevel categorises a class type by difficulty.
type ClassLevel string

const (
	LevelBeginner     ClassLevel = "BEGINNER"
	LevelIntermediate ClassLevel = "INTERMEDIATE"
	LevelMixed        ClassLevel = "MIXED"
)

// Instructor teaches class sessions.
type Instructor struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Bio             string    `db:"bio" json:"bio,omitempty"`
	InstagramHandle string    `db:"instagram_handle" json:"instagram_handle,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Location is a physical studio or venue.
type Location struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	AddressLine1 string    `db:"address_line1" json:"address_line1"`
	AddressLine2 string    `db:"address_line2" json:"address_line2,omitempty"`
	City         string    `db:"city" json:"city"`
	State        string    `db:"state" json:"state,omitempty"`
	PostalCode   string    `db:"postal_code" json:"postal_code,omitempty"`
	Country      string    `db:"country" json:"country"`
	Notes        string    `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ClassType is a reusable class definition (e.g. Beginner Heels).
// It also acts as the series key: sessions projected from a recurring seed
// share its class type and may not collide on start time.
type ClassType struct {
	ID                     string     `db:"id" json:"id"`
	Title                  string     `db:"title" json:"title"`
	Slug                   string     `db:"slug" json:"slug"`
	Level                  ClassLevel `db:"level" json:"level"`
	Description            string     `db:"description" json:"description,omitempty"`
	DefaultDurationMinutes int        `db:"default_duration_minutes" json:"default_duration_minutes"`
	CreatedAt              time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at" json:"updated_at"`
}
