package model

import (
	"time"
)

// Post belongs to exactly one user. DatePosted is set once at creation and
// is not touched on edit.
type Post struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	Content    string    `json:"content"`
	DatePosted time.Time `json:"date_posted"`

	// Author is the owning user's username, filled in by the repository
	// join for display. No implicit relationship traversal.
	Author string `json:"author,omitempty"`
}
