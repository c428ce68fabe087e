// Package store persists users and volunteer profiles.
package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"volunteerhub/internal/user/models"
	id "volunteerhub/pkg/domain"
	"volunteerhub/pkg/platform/sentinel"
)

// InMemory is a map-backed store for tests and single-process runs.
type InMemory struct {
	mu       sync.RWMutex
	users    map[id.UserID]*models.User
	profiles map[id.UserID]*models.Profile
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:    make(map[id.UserID]*models.User),
		profiles: make(map[id.UserID]*models.Profile),
	}
}

// EnsureProvisioned creates the user as a volunteer when absent and reports
// role and profile existence, all under one lock.
func (s *InMemory) EnsureProvisioned(_ context.Context, userID id.UserID, email string, now time.Time) (models.Provisioning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	created := false
	if !ok {
		u = &models.User{ID: userID, Email: email, Role: models.RoleVolunteer, CreatedAt: now}
		s.users[userID] = u
		created = true
	} else if email != "" && u.Email != email {
		u.Email = email
	}
	_, hasProfile := s.profiles[userID]
	return models.Provisioning{Role: u.Role, HasProfile: hasProfile, Provisioned: created}, nil
}

func (s *InMemory) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *InMemory) SetRole(_ context.Context, userID id.UserID, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	u.Role = role
	return nil
}

func (s *InMemory) CreateProfile(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[profile.UserID]; !ok {
		return sentinel.ErrNotFound
	}
	if _, exists := s.profiles[profile.UserID]; exists {
		return sentinel.ErrConflict
	}
	s.profiles[profile.UserID] = cloneProfile(profile)
	return nil
}

func (s *InMemory) FindProfile(_ context.Context, userID id.UserID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneProfile(p), nil
}

// UpdateProfile replaces the mutable fields in place; readers never observe a
// partially applied update.
func (s *InMemory) UpdateProfile(_ context.Context, userID id.UserID, details models.Details, now time.Time) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	updated := cloneProfile(p)
	updated.ApplyDetails(details, now)
	s.profiles[userID] = updated
	return cloneProfile(updated), nil
}

// ListProfiles returns every volunteer profile ordered by last then first name.
func (s *InMemory) ListProfiles(_ context.Context) ([]*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, cloneProfile(p))
	}
	slices.SortFunc(out, func(a, b *models.Profile) int {
		if c := strings.Compare(a.LastName, b.LastName); c != 0 {
			return c
		}
		if c := strings.Compare(a.FirstName, b.FirstName); c != 0 {
			return c
		}
		return strings.Compare(string(a.UserID), string(b.UserID))
	})
	return out, nil
}

// ListContacts returns contact details for the given users that have a profile.
func (s *InMemory) ListContacts(_ context.Context, userIDs []id.UserID) (map[id.UserID]models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.UserID]models.Contact, len(userIDs))
	for _, uid := range userIDs {
		p, ok := s.profiles[uid]
		if !ok {
			continue
		}
		email := ""
		if u, ok := s.users[uid]; ok {
			email = u.Email
		}
		out[uid] = models.Contact{
			UserID:    uid,
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Gender:    p.Gender,
			Phone:     p.Phone,
			Email:     email,
		}
	}
	return out, nil
}

func cloneProfile(p *models.Profile) *models.Profile {
	cp := *p
	cp.Preferences = append([]models.Preference{}, p.Preferences...)
	return &cp
}
