// Package memory provides a channel-backed messaging.Queue with bounded
// redelivery and a dead-letter buffer.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chrisk60331/slack-hitl-chat/service/messaging"
)

// Config for the memory queue.
type Config struct {
	MaxRetries  int
	RetryDelay  time.Duration
	DeadLetter  bool
	QueueBuffer int
}

// DefaultConfig returns the standard memory queue configuration.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		RetryDelay:  100 * time.Millisecond,
		DeadLetter:  true,
		QueueBuffer: 100,
	}
}

// Queue implements messaging.Queue in memory.
type Queue[T any] struct {
	messages chan *message[T]
	config   Config

	dlqMu sync.Mutex
	dlq   []*message[T]
}

// NewQueue creates a memory queue.
func NewQueue[T any](config Config) *Queue[T] {
	if config.QueueBuffer <= 0 {
		config.QueueBuffer = DefaultConfig().QueueBuffer
	}
	return &Queue[T]{
		messages: make(chan *message[T], config.QueueBuffer),
		config:   config,
	}
}

// Publish adds a new item to the queue.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	msg := &message[T]{
		id:        uuid.New().String(),
		payload:   *t,
		queue:     q,
		createdAt: time.Now(),
	}
	select {
	case q.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume retrieves a single item from the queue.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	select {
	case msg := <-q.messages:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Size returns the number of queued messages.
func (q *Queue[T]) Size() int { return len(q.messages) }

// DLQSize returns the number of dead-lettered messages.
func (q *Queue[T]) DLQSize() int {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	return len(q.dlq)
}

type message[T any] struct {
	id        string
	payload   T
	queue     *Queue[T]
	createdAt time.Time

	mu        sync.Mutex
	processed bool
	attempts  int
}

func (m *message[T]) T() *T { return &m.payload }

func (m *message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.id)
	}
	m.processed = true
	return nil
}

func (m *message[T]) Nack(_ error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.id)
	}
	m.processed = true
	m.attempts++
	if m.attempts <= m.queue.config.MaxRetries {
		go m.redeliver()
		return nil
	}
	if m.queue.config.DeadLetter {
		m.queue.dlqMu.Lock()
		m.queue.dlq = append(m.queue.dlq, m)
		m.queue.dlqMu.Unlock()
	}
	return nil
}

func (m *message[T]) redeliver() {
	time.Sleep(m.queue.config.RetryDelay)
	retry := &message[T]{
		id:        m.id,
		payload:   m.payload,
		queue:     m.queue,
		attempts:  m.attempts,
		createdAt: time.Now(),
	}
	m.queue.messages <- retry
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
