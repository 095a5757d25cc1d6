package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type testPayload struct {
	ID      string
	Message string
}

func TestQueue(t *testing.T) {
	config := DefaultConfig()
	config.RetryDelay = 10 * time.Millisecond
	queue := NewQueue[testPayload](config)

	ctx := context.Background()
	payload := testPayload{ID: "evt-1", Message: "suspend user"}

	err := queue.Publish(ctx, &payload)
	assert.NoError(t, err)
	assert.Equal(t, 1, queue.Size())

	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, queue.Size())
	assert.Equal(t, payload.ID, message.T().ID)

	assert.NoError(t, message.Ack())
	// double ack errors
	assert.Error(t, message.Ack())
}

func TestQueueRedelivery(t *testing.T) {
	config := DefaultConfig()
	config.MaxRetries = 1
	config.RetryDelay = 10 * time.Millisecond
	queue := NewQueue[testPayload](config)

	ctx := context.Background()
	assert.NoError(t, queue.Publish(ctx, &testPayload{ID: "evt-1"}))

	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NoError(t, message.Nack(assert.AnError))

	// redelivered after the retry delay
	redelivered, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "evt-1", redelivered.T().ID)

	// a second failure exceeds MaxRetries and dead-letters
	assert.NoError(t, redelivered.Nack(assert.AnError))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, queue.Size())
	assert.Equal(t, 1, queue.DLQSize())
}

func TestConsumeRespectsContext(t *testing.T) {
	queue := NewQueue[testPayload](DefaultConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := queue.Consume(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
