// Package notifier defines the notification dispatcher contract the
// workflow depends on: post a human-readable prompt, update it as the
// request progresses, and deliver the final outcome back to the originating
// thread. Human decisions arrive through the workflow's decision intake, not
// through this package - implementations never mutate approval records.
package notifier

import (
	"context"
)

// MessageRef identifies a posted message so it can be updated later.
type MessageRef struct {
	Channel   string `json:"channel"`
	Timestamp string `json:"timestamp"`
}

// Field is one label/value pair rendered with a message.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Message is a rendered notification.
type Message struct {
	Title     string  `json:"title,omitempty"`
	Text      string  `json:"text"`
	RequestID string  `json:"requestId,omitempty"`
	Fields    []Field `json:"fields,omitempty"`
	// Decision is true when the message solicits an approve/reject action.
	Decision bool `json:"decision,omitempty"`
}

// Service delivers notifications to a human channel.
type Service interface {
	// Post sends a new message to a recipient (channel, user, thread) and
	// returns a reference for later updates.
	Post(ctx context.Context, recipient string, msg *Message) (MessageRef, error)

	// Update rewrites a previously posted message in place.
	Update(ctx context.Context, ref MessageRef, msg *Message) error
}
