package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"vifm-portal/internal/profile/models"
)

// InMemoryStore keeps profile storage lightweight and testable.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]models.Profile // keyed by ID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[string]models.Profile)}
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.profiles {
		if strings.EqualFold(p.Email, email) {
			out := p
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.profiles[id]; ok {
		out := p
		return &out, nil
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		copied := p
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *InMemoryStore) Save(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.ID] = *profile
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[id]; !ok {
		return ErrNotFound
	}
	delete(s.profiles, id)
	return nil
}
