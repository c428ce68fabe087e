// Package store persists enrollments keyed by (volunteer, opportunity).
package store

import (
	"context"
	"slices"
	"sync"

	"volunteerhub/internal/enrollment/models"
	id "volunteerhub/pkg/domain"
	"volunteerhub/pkg/platform/sentinel"
)

type key struct {
	volunteer   id.UserID
	opportunity id.OpportunityID
}

type InMemory struct {
	mu   sync.RWMutex
	rows map[key]*models.Enrollment
}

func NewInMemory() *InMemory {
	return &InMemory{rows: make(map[key]*models.Enrollment)}
}

// Create inserts a request; an existing pair is ErrConflict.
func (s *InMemory) Create(_ context.Context, e *models.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{e.VolunteerID, e.OpportunityID}
	if _, exists := s.rows[k]; exists {
		return sentinel.ErrConflict
	}
	cp := *e
	s.rows[k] = &cp
	return nil
}

func (s *InMemory) Find(_ context.Context, volunteerID id.UserID, oppID id.OpportunityID) (*models.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.rows[key{volunteerID, oppID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

// Update applies fn to the row under the write lock. The row is stored only
// when fn succeeds.
func (s *InMemory) Update(_ context.Context, volunteerID id.UserID, oppID id.OpportunityID, fn func(*models.Enrollment) error) (*models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{volunteerID, oppID}
	e, ok := s.rows[k]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	next := *e
	if err := fn(&next); err != nil {
		return nil, err
	}
	s.rows[k] = &next
	out := next
	return &out, nil
}

func (s *InMemory) ListByOpportunity(_ context.Context, oppID id.OpportunityID) ([]*models.Enrollment, error) {
	return s.filter(func(e *models.Enrollment) bool { return e.OpportunityID == oppID }), nil
}

func (s *InMemory) ListByVolunteer(_ context.Context, volunteerID id.UserID) ([]*models.Enrollment, error) {
	return s.filter(func(e *models.Enrollment) bool { return e.VolunteerID == volunteerID }), nil
}

func (s *InMemory) ListAll(_ context.Context) ([]*models.Enrollment, error) {
	return s.filter(func(*models.Enrollment) bool { return true }), nil
}

// PendingCounts returns, per opportunity, the enrollments awaiting approval.
func (s *InMemory) PendingCounts(_ context.Context) (map[id.OpportunityID]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.OpportunityID]int)
	for _, e := range s.rows {
		if e.Pending() {
			out[e.OpportunityID]++
		}
	}
	return out, nil
}

// DeleteByOpportunity removes every enrollment of the opportunity.
func (s *InMemory) DeleteByOpportunity(_ context.Context, oppID id.OpportunityID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.rows {
		if k.opportunity == oppID {
			delete(s.rows, k)
			n++
		}
	}
	return n, nil
}

func (s *InMemory) filter(keep func(*models.Enrollment) bool) []*models.Enrollment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Enrollment, 0)
	for _, e := range s.rows {
		if keep(e) {
			cp := *e
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, compare)
	return out
}

// compare orders by request time, then volunteer, then opportunity.
func compare(a, b *models.Enrollment) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	if a.VolunteerID != b.VolunteerID {
		if a.VolunteerID < b.VolunteerID {
			return -1
		}
		return 1
	}
	switch as, bs := a.OpportunityID.String(), b.OpportunityID.String(); {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}
