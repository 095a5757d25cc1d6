// Package dedup guards against duplicate triggers - redelivered chat events,
// retried workflow steps - with a durable create-if-absent claim keyed by an
// external event id or request id.
package dedup

import (
	"context"
	"time"
)

// Claim is the outcome of attempting to claim an event id.
type Claim struct {
	// FirstSeen is true when this caller won the claim and owns the side
	// effects for the event.
	FirstSeen bool `json:"firstSeen"`
	// OutcomeRef points at the recorded outcome of the first processing,
	// when one was resolved.
	OutcomeRef string `json:"outcomeRef,omitempty"`
	FirstSeenAt time.Time `json:"firstSeenAt"`
}

// Record is the persisted shape of one claim.
type Record struct {
	EventID     string    `json:"eventId"`
	FirstSeenAt time.Time `json:"firstSeenAt"`
	OutcomeRef  string    `json:"outcomeRef,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Service claims event ids at most once within the TTL window.
type Service interface {
	// Claim registers the event id if unseen. A second claim for the same id
	// within the TTL window returns FirstSeen=false together with whatever
	// outcome reference the first processing resolved.
	Claim(ctx context.Context, eventID string, ttl time.Duration) (*Claim, error)

	// Resolve records the outcome reference for a claimed event id so later
	// duplicates can report where the work went.
	Resolve(ctx context.Context, eventID, outcomeRef string) error
}
