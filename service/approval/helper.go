package approval

import (
	"context"
	"errors"
	"time"

	"github.com/chrisk60331/slack-hitl-chat/internal/clock"
	"github.com/chrisk60331/slack-hitl-chat/model/action"
)

// ErrWaitTimeout is returned when an item does not reach the awaited status
// within the polling window.
var ErrWaitTimeout = errors.New("approval: wait timed out")

// NewPending builds a pending-approval item for a proposed action. The
// intended tool set is copied verbatim and the allowed set is left empty -
// it is populated only once a human approves.
func NewPending(requestID string, proposed *action.Proposed, expireAfter time.Duration) *Item {
	item := &Item{
		RequestID:     requestID,
		Status:        StatusPendingApproval,
		Requester:     proposed.Requester,
		Action:        *proposed,
		IntendedTools: append([]string(nil), proposed.IntendedTools...),
		CreatedAt:     clock.Now(),
	}
	if expireAfter > 0 {
		expires := item.CreatedAt.Add(expireAfter)
		item.ExpiresAt = &expires
	}
	return item
}

// WaitForTerminal polls the store at the given interval until the item
// reaches a terminal status, the timeout elapses, or ctx is cancelled. The
// wait is bounded - a request left undecided surfaces ErrWaitTimeout rather
// than blocking forever.
func WaitForTerminal(ctx context.Context, store Store, requestID string, interval, timeout time.Duration) (*Item, error) {
	if interval <= 0 {
		interval = time.Second
	}
	deadline := clock.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		item, err := store.Load(ctx, requestID)
		if err != nil {
			return nil, err
		}
		if item.Status.Terminal() {
			return item, nil
		}
		if timeout > 0 && !clock.Now().Before(deadline) {
			return item, ErrWaitTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Expired reports whether the item's deadline has passed.
func (i *Item) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && now.After(*i.ExpiresAt)
}
