package store

import (
	"context"
	"strings"
	"sync"

	"vifm-portal/internal/auth/models"
)

// InMemoryCredentialStore keeps the initial implementation lightweight and
// testable.
type InMemoryCredentialStore struct {
	mu          sync.RWMutex
	credentials map[string]models.Credential // keyed by lowercased email
}

func NewInMemory() *InMemoryCredentialStore {
	return &InMemoryCredentialStore{credentials: make(map[string]models.Credential)}
}

func (s *InMemoryCredentialStore) FindByEmail(_ context.Context, email string) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cred, ok := s.credentials[strings.ToLower(email)]; ok {
		out := cred
		return &out, nil
	}
	return nil, ErrNotFound
}

func (s *InMemoryCredentialStore) Save(_ context.Context, credential *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[strings.ToLower(credential.Email)] = *credential
	return nil
}
