package models

import (
	"time"

	"gorm.io/gorm"
)

// Session is a browser session of the candidate interface.
// Only bookkeeping lives here: the click counter is kept in memory.
type Session struct {
	// ID is the server-generated session identifier (RFC 4122 v4)
	ID string `gorm:"primaryKey;type:text;not null" json:"id"`

	// IPAddress is the client address seen on the last request
	IPAddress *string `gorm:"type:text;size:45" json:"ip_address,omitempty"`

	// UserAgent is truncated to 512 characters
	UserAgent *string `gorm:"type:text;size:512" json:"user_agent,omitempty"`

	// LastActivity is refreshed on every request carrying the session cookie (UTC)
	LastActivity time.Time `gorm:"not null;index" json:"last_activity"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName overrides the default table name for GORM
func (Session) TableName() string {
	return "sessions"
}

// BeforeCreate is a GORM hook that ensures timestamps are in UTC
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	if s.LastActivity.IsZero() {
		s.LastActivity = now
	} else {
		s.LastActivity = s.LastActivity.UTC()
	}
	return nil
}

// IsExpired reports whether the session has been idle longer than lifetime
func (s *Session) IsExpired(lifetime time.Duration, now time.Time) bool {
	return now.Sub(s.LastActivity) > lifetime
}
