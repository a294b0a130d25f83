package notify

import (
	"time"

	"github.com/google/uuid"
)

// Level is the severity of a Notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// NoticeTTL is how long a notice stays on screen.
const NoticeTTL = 4 * time.Second

// Notice is a dismissible, time-limited message about a submission outcome.
// Rendering is up to the client.
type Notice struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Owner     string    `json:"owner,omitempty"`
	Digest    string    `json:"digest,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewNotice creates a notice that expires NoticeTTL after now.
func NewNotice(level Level, title, text string, now time.Time) Notice {
	return Notice{
		ID:        uuid.NewString(),
		Level:     level,
		Title:     title,
		Text:      text,
		CreatedAt: now,
		ExpiresAt: now.Add(NoticeTTL),
	}
}

// Expired reports whether n should no longer be shown at now. A notice
// without an expiry never expires.
func (n Notice) Expired(now time.Time) bool {
	return !n.ExpiresAt.IsZero() && !now.Before(n.ExpiresAt)
}
