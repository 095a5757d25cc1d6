// Package messaging abstracts the queue that decouples fast trigger
// acknowledgement from the asynchronous workflow continuation.
package messaging

import (
	"context"
)

// Queue is an abstract message queue for any payload type.
type Queue[T any] interface {
	// Publish adds a new message with payload to the queue.
	Publish(ctx context.Context, t *T) error

	// Consume retrieves a single message from the queue, blocking until one
	// is available or ctx is cancelled.
	Consume(ctx context.Context) (Message[T], error)
}

// Message is a message retrieved from a queue.
type Message[T any] interface {
	// T returns the payload of this message.
	T() *T

	// Ack acknowledges successful processing.
	Ack() error

	// Nack reports failed processing; the queue may redeliver.
	Nack(err error) error
}
