// Package fs implements session.Store over viant/afs so thread mappings
// survive process restarts and can live on shared object storage.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"github.com/chrisk60331/slack-hitl-chat/internal/clock"
	"github.com/chrisk60331/slack-hitl-chat/service/dao"
	"github.com/chrisk60331/slack-hitl-chat/service/session"
)

// Service stores one JSON document per thread key.
type Service struct {
	basePath string
	fs       afs.Service
	mu       sync.Mutex
}

// New creates a session store rooted at basePath.
func New(basePath string) *Service {
	return &Service{basePath: basePath, fs: afs.New()}
}

var _ session.Store = (*Service)(nil)

func (s *Service) threadPath(key session.Key) string {
	// Thread keys contain a colon; keep the document name filesystem safe.
	name := strings.ReplaceAll(string(key), ":", "_")
	return path.Join(s.basePath, name+".json")
}

func (s *Service) read(ctx context.Context, key session.Key) (*session.Thread, error) {
	location := s.threadPath(key)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to check thread %s: %w", key, err)
	}
	if !exists {
		return nil, dao.ErrNotFound
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read thread %s: %w", key, err)
	}
	var thread session.Thread
	if err := json.Unmarshal(data, &thread); err != nil {
		return nil, fmt.Errorf("failed to unmarshal thread %s: %w", key, err)
	}
	return &thread, nil
}

func (s *Service) write(ctx context.Context, thread *session.Thread) error {
	data, err := json.Marshal(thread)
	if err != nil {
		return fmt.Errorf("failed to marshal thread: %w", err)
	}
	location := s.threadPath(thread.ThreadKey)
	if err := s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save thread to %s: %w", location, err)
	}
	return nil
}

// Lookup returns the session id for a thread, or empty when unmapped or
// expired.
func (s *Service) Lookup(ctx context.Context, key session.Key) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	thread, err := s.read(ctx, key)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	if clock.Now().After(thread.ExpiresAt) {
		return "", nil
	}
	return thread.SessionID, nil
}

// Ensure maps the thread to sessionID unless a live mapping already exists.
func (s *Service) Ensure(ctx context.Context, key session.Key, sessionID string, ttl time.Duration) (string, bool, error) {
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := clock.Now()
	existing, err := s.read(ctx, key)
	if err != nil && !errors.Is(err, dao.ErrNotFound) {
		return "", false, err
	}
	if existing != nil && now.Before(existing.ExpiresAt) {
		return existing.SessionID, false, nil
	}
	thread := &session.Thread{
		ThreadKey: key,
		SessionID: sessionID,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.write(ctx, thread); err != nil {
		return "", false, err
	}
	return sessionID, true, nil
}
