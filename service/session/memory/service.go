// Package memory provides an in-process session.Store.
package memory

import (
	"context"
	"errors"
	"time"

	"github.com/chrisk60331/slack-hitl-chat/internal/clock"
	"github.com/chrisk60331/slack-hitl-chat/service/dao"
	"github.com/chrisk60331/slack-hitl-chat/service/dao/store"
	"github.com/chrisk60331/slack-hitl-chat/service/session"
)

type service struct {
	threads *store.Memory[session.Key, session.Thread]
}

// New creates an empty in-memory session store.
func New() session.Store {
	return &service{
		threads: store.NewMemory[session.Key, session.Thread](func(t *session.Thread) session.Key { return t.ThreadKey }),
	}
}

func (s *service) Lookup(ctx context.Context, key Key) (string, error) {
	thread, err := s.threads.Load(ctx, key)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	if thread == nil || clock.Now().After(thread.ExpiresAt) {
		return "", nil
	}
	return thread.SessionID, nil
}

// Key aliases session.Key to keep signatures readable.
type Key = session.Key

func (s *service) Ensure(ctx context.Context, key Key, sessionID string, ttl time.Duration) (string, bool, error) {
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	now := clock.Now()
	thread := &session.Thread{
		ThreadKey: key,
		SessionID: sessionID,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	existing, err := s.threads.CreateIfAbsent(ctx, thread)
	if err == nil {
		return sessionID, true, nil
	}
	if !errors.Is(err, dao.ErrAlreadyExists) {
		return "", false, err
	}
	if now.After(existing.ExpiresAt) {
		if err := s.threads.Save(ctx, thread); err != nil {
			return "", false, err
		}
		return sessionID, true, nil
	}
	return existing.SessionID, false, nil
}

var _ session.Store = (*service)(nil)
