package cache

import (
	"context"
	"errors"
)

// ErrEmptySessionID is returned when a counter is addressed without a session
var ErrEmptySessionID = errors.New("session ID is required")

// CounterStore keeps the click counter of each session.
// A session without an entry reads as zero. Entries expire after the
// store TTL without access.
type CounterStore interface {
	// Get returns the current count and refreshes the entry TTL
	Get(ctx context.Context, sessionID string) (int64, error)

	// Increment adds one and returns the new count
	Increment(ctx context.Context, sessionID string) (int64, error)

	// Delete drops the counter of a session
	Delete(ctx context.Context, sessionID string) error

	// Ping reports whether the backing store is reachable
	Ping(ctx context.Context) error

	// Name identifies the backend in readiness output
	Name() string

	Close() error
}
