// Package memory provides an in-process approval.Store used by tests and
// single-node deployments.
package memory

import (
	"context"
	"sync"

	"github.com/chrisk60331/slack-hitl-chat/internal/clock"
	"github.com/chrisk60331/slack-hitl-chat/service/approval"
	"github.com/chrisk60331/slack-hitl-chat/service/dao"
)

type service struct {
	mu    sync.Mutex
	items map[string]*approval.Item
}

// New creates an empty in-memory approval store.
func New() approval.Store {
	return &service{items: map[string]*approval.Item{}}
}

func (s *service) Create(_ context.Context, item *approval.Item) error {
	if item == nil {
		return dao.ErrNilEntity
	}
	if item.RequestID == "" {
		return dao.ErrInvalidID
	}
	if !approval.ToolsSubset(item.AllowedTools, item.IntendedTools) {
		return approval.ErrToolsNotSubset
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[item.RequestID]; ok {
		return dao.ErrAlreadyExists
	}
	stored := item.Clone()
	now := clock.Now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	stored.Revision = 1
	s.items[item.RequestID] = stored
	return nil
}

func (s *service) Load(_ context.Context, requestID string) (*approval.Item, error) {
	if requestID == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[requestID]
	if !ok {
		return nil, dao.ErrNotFound
	}
	return item.Clone(), nil
}

func (s *service) Transition(_ context.Context, requestID string, from, to approval.Status, mutate func(*approval.Item) error) (*approval.Item, error) {
	if requestID == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.items[requestID]
	if !ok {
		return nil, dao.ErrNotFound
	}
	if current.Status != from {
		return nil, dao.ErrConflict
	}
	next := current.Clone()
	if mutate != nil {
		if err := mutate(next); err != nil {
			return nil, err
		}
	}
	if err := approval.ValidateTransition(from, to, next); err != nil {
		return nil, err
	}
	next.Status = to
	next.UpdatedAt = clock.Now()
	next.Revision = current.Revision + 1
	s.items[requestID] = next
	return next.Clone(), nil
}

func (s *service) List(_ context.Context, parameters ...*dao.Parameter) ([]*approval.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*approval.Item, 0, len(s.items))
	for _, item := range s.items {
		if !matches(item, parameters) {
			continue
		}
		out = append(out, item.Clone())
	}
	return out, nil
}

func matches(item *approval.Item, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil {
			continue
		}
		switch parameter.Name {
		case approval.ParamStatus:
			if string(item.Status) != asString(parameter.Value) {
				return false
			}
		case approval.ParamRequester:
			if item.Requester != asString(parameter.Value) {
				return false
			}
		}
	}
	return true
}

func asString(value interface{}) string {
	s, _ := value.(string)
	return s
}

var _ approval.Store = (*service)(nil)
