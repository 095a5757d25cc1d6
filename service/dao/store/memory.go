// Package store provides a generic in-memory dao.Service implementation
// that concrete stores embed instead of rewriting identical map plumbing.
package store

import (
	"context"
	"sync"

	"github.com/chrisk60331/slack-hitl-chat/service/dao"
)

// Memory keeps entities of type *T mapped by a comparable key K obtained
// from the supplied key selector. It contains no business logic; stores with
// extra behaviour (status filtering, TTL sweeps) wrap it.
type Memory[K comparable, T any] struct {
	mu          sync.RWMutex
	records     map[K]*T
	keySelector func(*T) K
}

// NewMemory creates a Memory store. keySelector extracts the entity key
// (usually the ID field) from a value.
func NewMemory[K comparable, T any](keySelector func(*T) K) *Memory[K, T] {
	return &Memory[K, T]{
		records:     make(map[K]*T),
		keySelector: keySelector,
	}
}

// Save stores or overwrites a record.
func (s *Memory[K, T]) Save(_ context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	key := s.keySelector(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = v
	return nil
}

// CreateIfAbsent stores v only when its key is unclaimed; otherwise it
// returns the existing record with dao.ErrAlreadyExists. This is the
// at-most-once primitive the dedup layer builds on.
func (s *Memory[K, T]) CreateIfAbsent(_ context.Context, v *T) (*T, error) {
	if v == nil {
		return nil, dao.ErrNilEntity
	}
	key := s.keySelector(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[key]; ok {
		return existing, dao.ErrAlreadyExists
	}
	s.records[key] = v
	return v, nil
}

// Load returns a record by key, or nil when absent.
func (s *Memory[K, T]) Load(_ context.Context, key K) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	return v, nil
}

// Delete removes a record.
func (s *Memory[K, T]) Delete(_ context.Context, key K) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

// List returns all stored records.
func (s *Memory[K, T]) List(_ context.Context, _ ...*dao.Parameter) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*T, 0, len(s.records))
	for _, v := range s.records {
		out = append(out, v)
	}
	return out, nil
}

var _ dao.ConditionalService[string, any] = (*Memory[string, any])(nil)
