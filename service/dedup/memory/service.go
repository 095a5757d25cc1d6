// Package memory provides an in-process dedup.Service backed by the generic
// conditional store.
package memory

import (
	"context"
	"errors"
	"time"

	"github.com/chrisk60331/slack-hitl-chat/internal/clock"
	"github.com/chrisk60331/slack-hitl-chat/service/dao"
	"github.com/chrisk60331/slack-hitl-chat/service/dao/store"
	"github.com/chrisk60331/slack-hitl-chat/service/dedup"
)

type service struct {
	records *store.Memory[string, dedup.Record]
}

// New creates an empty in-memory dedup service.
func New() dedup.Service {
	return &service{
		records: store.NewMemory[string, dedup.Record](func(r *dedup.Record) string { return r.EventID }),
	}
}

func (s *service) Claim(ctx context.Context, eventID string, ttl time.Duration) (*dedup.Claim, error) {
	if eventID == "" {
		return nil, dao.ErrInvalidID
	}
	now := clock.Now()
	record := &dedup.Record{
		EventID:     eventID,
		FirstSeenAt: now,
		ExpiresAt:   now.Add(ttl),
	}
	existing, err := s.records.CreateIfAbsent(ctx, record)
	if err == nil {
		return &dedup.Claim{FirstSeen: true, FirstSeenAt: now}, nil
	}
	if !errors.Is(err, dao.ErrAlreadyExists) {
		return nil, err
	}
	// An expired record is reclaimed: the upstream redelivery window has
	// passed, so the event id may be reused.
	if now.After(existing.ExpiresAt) {
		if err := s.records.Save(ctx, record); err != nil {
			return nil, err
		}
		return &dedup.Claim{FirstSeen: true, FirstSeenAt: now}, nil
	}
	return &dedup.Claim{
		FirstSeen:   false,
		OutcomeRef:  existing.OutcomeRef,
		FirstSeenAt: existing.FirstSeenAt,
	}, nil
}

func (s *service) Resolve(ctx context.Context, eventID, outcomeRef string) error {
	if eventID == "" {
		return dao.ErrInvalidID
	}
	existing, err := s.records.Load(ctx, eventID)
	if err != nil {
		return err
	}
	if existing == nil {
		return dao.ErrNotFound
	}
	updated := *existing
	updated.OutcomeRef = outcomeRef
	return s.records.Save(ctx, &updated)
}

var _ dedup.Service = (*service)(nil)
