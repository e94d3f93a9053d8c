package models

import "time"

// CalendarEntry is one row of the public calendar feed.
type CalendarEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
	URL   string `json:"url"`
}

// CalendarRange is an optional inclusive window applied to the feed. A nil
// bound leaves that side open.
type CalendarRange struct {
	Start *time.Time
	End   *time.Time
}

// Empty reports whether neither bound is set.
func (r CalendarRange) Empty() bool {
	return r.Start == nil && r.End == nil
}
