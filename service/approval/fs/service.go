// Package fs implements a filesystem/object-store backed approval.Store on
// top of viant/afs. Records are stored as one JSON document per request id;
// conditional transitions re-read the document and compare revisions before
// committing so a concurrent writer loses with dao.ErrConflict.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"

	"github.com/chrisk60331/slack-hitl-chat/internal/clock"
	"github.com/chrisk60331/slack-hitl-chat/service/approval"
	"github.com/chrisk60331/slack-hitl-chat/service/dao"
)

// Service implements approval.Store over a base URL (file://, s3://, ...).
type Service struct {
	basePath string
	fs       afs.Service
	mu       sync.Mutex
}

// New creates a store rooted at basePath.
func New(basePath string) *Service {
	return &Service{basePath: basePath, fs: afs.New()}
}

var _ approval.Store = (*Service)(nil)

func (s *Service) itemPath(requestID string) string {
	return path.Join(s.basePath, requestID+".json")
}

func (s *Service) read(ctx context.Context, requestID string) (*approval.Item, error) {
	location := s.itemPath(requestID)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to check approval item %s: %w", requestID, err)
	}
	if !exists {
		return nil, dao.ErrNotFound
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read approval item %s: %w", requestID, err)
	}
	var item approval.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal approval item %s: %w", requestID, err)
	}
	return &item, nil
}

func (s *Service) write(ctx context.Context, item *approval.Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal approval item: %w", err)
	}
	location := s.itemPath(item.RequestID)
	if err := s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save approval item to %s: %w", location, err)
	}
	return nil
}

// Create persists a new item; an existing record for the same request id
// fails with dao.ErrAlreadyExists.
func (s *Service) Create(ctx context.Context, item *approval.Item) error {
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
	if _, err := s.read(ctx, item.RequestID); err == nil {
		return dao.ErrAlreadyExists
	} else if err != dao.ErrNotFound {
		return err
	}
	stored := item.Clone()
	now := clock.Now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	stored.Revision = 1
	return s.write(ctx, stored)
}

// Load retrieves an item by request id.
func (s *Service) Load(ctx context.Context, requestID string) (*approval.Item, error) {
	if requestID == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx, requestID)
}

// Transition applies mutate and advances the status only when the stored
// status still equals from; otherwise dao.ErrConflict.
func (s *Service) Transition(ctx context.Context, requestID string, from, to approval.Status, mutate func(*approval.Item) error) (*approval.Item, error) {
	if requestID == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.read(ctx, requestID)
	if err != nil {
		return nil, err
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
	// Re-read to detect writers that slipped in between read and commit on
	// shared storage.
	latest, err := s.read(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if latest.Revision != current.Revision {
		return nil, dao.ErrConflict
	}
	next.Status = to
	next.UpdatedAt = clock.Now()
	next.Revision = current.Revision + 1
	if err := s.write(ctx, next); err != nil {
		return nil, err
	}
	return next.Clone(), nil
}

// List returns all items, optionally filtered by status or requester.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*approval.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	objects, err := s.fs.List(ctx, s.basePath, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list approval items: %w", err)
	}
	var out []*approval.Item
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		requestID := strings.TrimSuffix(object.Name(), ".json")
		item, err := s.read(ctx, requestID)
		if err != nil {
			continue
		}
		if !matches(item, parameters) {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func matches(item *approval.Item, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil {
			continue
		}
		value, _ := parameter.Value.(string)
		switch parameter.Name {
		case approval.ParamStatus:
			if string(item.Status) != value {
				return false
			}
		case approval.ParamRequester:
			if item.Requester != value {
				return false
			}
		}
	}
	return true
}
