package models

import "time"

// MediaVisibility controls who can see a media item.
type MediaVisibility string

const (
	VisibilityPublic  MediaVisibility = "PUBLIC"
	VisibilityMembers MediaVisibility = "MEMBERS"
)

// ContentCategory groups items in the content library.
type ContentCategory struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Slug          string    `db:"slug" json:"slug"`
	Description   string    `db:"description" json:"description,omitempty"`
	RequiresLogin bool      `db:"requires_login" json:"requires_login"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// MediaItem is a library entry linking out to hosted media.
type MediaItem struct {
	ID          string          `db:"id" json:"id"`
	CategoryID  string          `db:"category_id" json:"category_id"`
	Title       string          `db:"title" json:"title"`
	Summary     string          `db:"summary" json:"summary,omitempty"`
	VideoURL    string          `db:"video_url" json:"video_url,omitempty"`
	ExternalURL string          `db:"external_url" json:"external_url,omitempty"`
	Visibility  MediaVisibility `db:"visibility" json:"visibility"`
	Active      bool            `db:"active" json:"active"`
	PublishAt   *time.Time      `db:"publish_at" json:"publish_at,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// Live reports whether the item should be visible at the given instant.
func (m *MediaItem) Live(now time.Time) bool {
	return m.Active && (m.PublishAt == nil || !m.PublishAt.After(now))
}
