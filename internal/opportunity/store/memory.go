// Package store persists opportunities.
package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"volunteerhub/internal/opportunity/models"
	id "volunteerhub/pkg/domain"
	"volunteerhub/pkg/platform/sentinel"
)

type InMemory struct {
	mu   sync.RWMutex
	opps map[id.OpportunityID]*models.Opportunity
}

func NewInMemory() *InMemory {
	return &InMemory{opps: make(map[id.OpportunityID]*models.Opportunity)}
}

func (s *InMemory) Create(_ context.Context, o *models.Opportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.opps[o.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *o
	s.opps[o.ID] = &cp
	return nil
}

func (s *InMemory) Update(_ context.Context, o *models.Opportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.opps[o.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *o
	s.opps[o.ID] = &cp
	return nil
}

func (s *InMemory) Delete(_ context.Context, oppID id.OpportunityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.opps[oppID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.opps, oppID)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, oppID id.OpportunityID) (*models.Opportunity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.opps[oppID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

// FindByIDs returns the opportunities that exist among ids.
func (s *InMemory) FindByIDs(_ context.Context, ids []id.OpportunityID) (map[id.OpportunityID]*models.Opportunity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.OpportunityID]*models.Opportunity, len(ids))
	for _, oppID := range ids {
		if o, ok := s.opps[oppID]; ok {
			cp := *o
			out[oppID] = &cp
		}
	}
	return out, nil
}

// List returns opportunities in listing order, optionally including archived ones.
func (s *InMemory) List(_ context.Context, includeArchived bool) ([]*models.Opportunity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Opportunity, 0, len(s.opps))
	for _, o := range s.opps {
		if o.Archived && !includeArchived {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	slices.SortFunc(out, models.Less)
	return out, nil
}

func (s *InMemory) SetArchived(_ context.Context, oppID id.OpportunityID, archived bool, now time.Time) (*models.Opportunity, error) {
	return s.mutate(oppID, func(o *models.Opportunity) {
		o.Archived = archived
		o.UpdatedAt = now
	})
}

func (s *InMemory) UpdateImage(_ context.Context, oppID id.OpportunityID, imageURL string, now time.Time) (*models.Opportunity, error) {
	return s.mutate(oppID, func(o *models.Opportunity) {
		o.ImageURL = imageURL
		o.UpdatedAt = now
	})
}

func (s *InMemory) mutate(oppID id.OpportunityID, fn func(*models.Opportunity)) (*models.Opportunity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.opps[oppID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	fn(o)
	cp := *o
	return &cp, nil
}
