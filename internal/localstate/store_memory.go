package localstate

import (
	"context"
	"sync"
	"time"
)

// Memory is the in-process blob store used in tests and redis-less
// deployments. It favors clarity over performance.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string]memoryBlob
}

type memoryBlob struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func NewMemory() *Memory {
	return &Memory{blobs: make(map[string]memoryBlob)}
}

func (s *Memory) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	blob, ok := s.blobs[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if !blob.expiresAt.IsZero() && time.Now().After(blob.expiresAt) {
		s.mu.Lock()
		delete(s.blobs, key)
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	value := make([]byte, len(blob.value))
	copy(value, blob.value)
	return value, nil
}

func (s *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	blob := memoryBlob{value: make([]byte, len(value))}
	copy(blob.value, value)
	if ttl > 0 {
		blob.expiresAt = time.Now().Add(ttl)
	}
	s.mu.Lock()
	s.blobs[key] = blob
	s.mu.Unlock()
	return nil
}

func (s *Memory) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.blobs, key)
	s.mu.Unlock()
	return nil
}

// Has reports whether a key is present. Test helper.
func (s *Memory) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[key]
	return ok && (blob.expiresAt.IsZero() || time.Now().Before(blob.expiresAt))
}
