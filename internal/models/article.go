package models

import (
	"time"
)

// Article represents a saved read-it-later record
type Article struct {
	ID         int64     `json:"id" db:"id"`
	URL        string    `json:"url" db:"url"`
	Title      string    `json:"title" db:"title"`
	ImageURL   string    `json:"image_url,omitempty" db:"image_url"`
	Summary    string    `json:"summary,omitempty" db:"summary"`
	AIReason   string    `json:"ai_reason,omitempty" db:"ai_reason"`
	IsArchived bool      `json:"is_archived" db:"is_archived"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ListFilter selects articles for a list view. A nil Archived matches both
// states; Limit <= 0 means no limit.
type ListFilter struct {
	Archived *bool
	Limit    int
}

// Unread returns a filter for the unread tab
func Unread(limit int) ListFilter {
	archived := false
	return ListFilter{Archived: &archived, Limit: limit}
}

// Archived returns a filter for the archive tab
func Archived(limit int) ListFilter {
	archived := true
	return ListFilter{Archived: &archived, Limit: limit}
}

// ExtractedPage is the best-effort result of parsing a web page
type ExtractedPage struct {
	Title    string `json:"title"`
	TopImage string `json:"top_image,omitempty"`
	Text     string `json:"text,omitempty"`
}

// SearchResult is a single web search hit
type SearchResult struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}
