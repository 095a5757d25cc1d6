package workflow

import (
	"context"
	"errors"
	"log"

	"github.com/chrisk60331/slack-hitl-chat/service/messaging"
)

// Consumer decouples fast trigger acknowledgement from workflow processing:
// callers enqueue a trigger and return immediately while the consumer loop
// drains the queue asynchronously. Failed submissions are nacked so the
// queue can redeliver; dedup claims keep redelivery from duplicating side
// effects.
type Consumer struct {
	service *Service
	queue   messaging.Queue[Trigger]
}

// NewConsumer binds the workflow to a trigger queue.
func NewConsumer(service *Service, queue messaging.Queue[Trigger]) *Consumer {
	return &Consumer{service: service, queue: queue}
}

// Enqueue accepts a trigger for asynchronous processing.
func (c *Consumer) Enqueue(ctx context.Context, trigger *Trigger) error {
	return c.queue.Publish(ctx, trigger)
}

// Run consumes triggers until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		message, err := c.queue.Consume(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		if _, err := c.service.Submit(ctx, message.T()); err != nil {
			log.Printf("workflow: submit %v: %v", message.T().EventID, err)
			if nackErr := message.Nack(err); nackErr != nil {
				log.Printf("workflow: nack: %v", nackErr)
			}
			continue
		}
		if err := message.Ack(); err != nil {
			log.Printf("workflow: ack: %v", err)
		}
	}
}

// Start launches Run on its own goroutine.
func (c *Consumer) Start(ctx context.Context) {
	go func() {
		if err := c.Run(ctx); err != nil {
			log.Printf("workflow: consumer stopped: %v", err)
		}
	}()
}
