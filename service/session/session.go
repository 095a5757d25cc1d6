// Package session maps conversation threads to internal correlation ids so
// human replies in a thread attach to the right approval request. A mapping
// is created on the first interaction in a thread and only looked up - never
// duplicated - on later turns.
package session

import (
	"context"
	"time"
)

// DefaultTTL keeps thread mappings for two weeks.
const DefaultTTL = 14 * 24 * time.Hour

// Thread is one thread-to-session mapping.
type Thread struct {
	ThreadKey Key       `json:"threadKey"`
	SessionID string    `json:"sessionId"`
	UpdatedAt time.Time `json:"updatedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Key identifies a conversation thread.
type Key string

// NewKey builds a thread key from a channel id and thread timestamp.
func NewKey(channelID, threadTS string) Key {
	return Key(channelID + ":" + threadTS)
}

// Store persists thread mappings.
type Store interface {
	// Lookup returns the session id for a thread, or empty when unmapped or
	// expired.
	Lookup(ctx context.Context, key Key) (string, error)

	// Ensure maps the thread to sessionID unless a live mapping already
	// exists, in which case the existing session id is returned. The
	// returned bool is true when this call created the mapping.
	Ensure(ctx context.Context, key Key, sessionID string, ttl time.Duration) (string, bool, error)
}
