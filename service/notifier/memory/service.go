// Package memory records notifications in process, for tests and headless
// runs without a chat transport.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/chrisk60331/slack-hitl-chat/service/notifier"
)

// Posted is one delivered notification.
type Posted struct {
	Recipient string
	Ref       notifier.MessageRef
	Message   *notifier.Message
	Updates   []*notifier.Message
}

type service struct {
	mu     sync.Mutex
	seq    int
	posted []*Posted
	byRef  map[notifier.MessageRef]*Posted
}

// New creates an empty recording notifier.
func New() *Service { return &Service{service: &service{byRef: map[notifier.MessageRef]*Posted{}}} }

// Service exposes the recorded notifications alongside the notifier
// contract.
type Service struct {
	*service
}

func (s *service) Post(_ context.Context, recipient string, msg *notifier.Message) (notifier.MessageRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	ref := notifier.MessageRef{Channel: recipient, Timestamp: fmt.Sprintf("%d", s.seq)}
	entry := &Posted{Recipient: recipient, Ref: ref, Message: msg}
	s.posted = append(s.posted, entry)
	s.byRef[ref] = entry
	return ref, nil
}

func (s *service) Update(_ context.Context, ref notifier.MessageRef, msg *notifier.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.byRef[ref]
	if !ok {
		return fmt.Errorf("notifier: unknown message ref %v", ref)
	}
	entry.Updates = append(entry.Updates, msg)
	return nil
}

// Posted returns everything delivered so far.
func (s *Service) Posted() []*Posted {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Posted, len(s.posted))
	copy(out, s.posted)
	return out
}

var _ notifier.Service = (*Service)(nil)
