// Package fs implements dedup.Service over viant/afs so claims survive
// process restarts and can live on shared object storage.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"github.com/chrisk60331/slack-hitl-chat/internal/clock"
	"github.com/chrisk60331/slack-hitl-chat/service/dao"
	"github.com/chrisk60331/slack-hitl-chat/service/dedup"
)

// Service stores one JSON document per claimed event id.
type Service struct {
	basePath string
	fs       afs.Service
	mu       sync.Mutex
}

// New creates a dedup store rooted at basePath.
func New(basePath string) *Service {
	return &Service{basePath: basePath, fs: afs.New()}
}

var _ dedup.Service = (*Service)(nil)

func (s *Service) recordPath(eventID string) string {
	return path.Join(s.basePath, eventID+".json")
}

func (s *Service) read(ctx context.Context, eventID string) (*dedup.Record, error) {
	location := s.recordPath(eventID)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to check dedup record %s: %w", eventID, err)
	}
	if !exists {
		return nil, dao.ErrNotFound
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read dedup record %s: %w", eventID, err)
	}
	var record dedup.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dedup record %s: %w", eventID, err)
	}
	return &record, nil
}

func (s *Service) write(ctx context.Context, record *dedup.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal dedup record: %w", err)
	}
	location := s.recordPath(record.EventID)
	if err := s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save dedup record to %s: %w", location, err)
	}
	return nil
}

// Claim registers the event id if unseen within the TTL window.
func (s *Service) Claim(ctx context.Context, eventID string, ttl time.Duration) (*dedup.Claim, error) {
	if eventID == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := clock.Now()
	existing, err := s.read(ctx, eventID)
	if err != nil && err != dao.ErrNotFound {
		return nil, err
	}
	if existing != nil && now.Before(existing.ExpiresAt) {
		return &dedup.Claim{
			FirstSeen:   false,
			OutcomeRef:  existing.OutcomeRef,
			FirstSeenAt: existing.FirstSeenAt,
		}, nil
	}
	record := &dedup.Record{EventID: eventID, FirstSeenAt: now, ExpiresAt: now.Add(ttl)}
	if err := s.write(ctx, record); err != nil {
		return nil, err
	}
	return &dedup.Claim{FirstSeen: true, FirstSeenAt: now}, nil
}

// Resolve records the outcome reference for a claimed event id.
func (s *Service) Resolve(ctx context.Context, eventID, outcomeRef string) error {
	if eventID == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	record, err := s.read(ctx, eventID)
	if err != nil {
		return err
	}
	record.OutcomeRef = outcomeRef
	return s.write(ctx, record)
}
