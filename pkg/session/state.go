package session

import (
	"context"
	"errors"
	"time"
)

// CookieName is the session cookie the gate endpoints read.
const CookieName = "gc_session"

// DefaultIdleThreshold is the inactivity window after which the client-side
// monitor terminates the session.
const DefaultIdleThreshold = 7200 * time.Second

// ErrSessionNotFound is returned for unknown or already-invalidated
// sessions. Invalidation is final: a session that returns this error can
// never come back.
var ErrSessionNotFound = errors.New("session not found")

// State is the stored per-session record.
type State struct {
	ID            string        `json:"id"`
	AccountID     int64         `json:"account_id"`
	LastActivity  time.Time     `json:"last_activity"`
	IdleThreshold time.Duration `json:"idle_threshold"`
	MediaPlaying  bool          `json:"media_playing"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Store is the session store boundary consumed by the core. It deliberately
// stays narrow; it is not a general session framework.
type Store interface {
	// Establish creates a live session for the account and returns its id.
	Establish(ctx context.Context, accountID int64) (string, error)

	// Get returns the session state, or ErrSessionNotFound.
	Get(ctx context.Context, id string) (*State, error)

	// Touch records client activity. LastActivity is monotonically
	// non-decreasing: a touch older than the stored timestamp only updates
	// the media flag.
	Touch(ctx context.Context, id string, at time.Time, mediaPlaying bool) error

	// Invalidate removes the session. Idempotent: invalidating a missing
	// session returns ErrSessionNotFound.
	Invalidate(ctx context.Context, id string) error
}
