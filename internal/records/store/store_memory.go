package store

import (
	"context"
	"sort"
	"sync"

	"vifm-portal/internal/records/models"
)

// InMemoryOpportunityStore keeps record storage lightweight and testable.
type InMemoryOpportunityStore struct {
	mu   sync.RWMutex
	opps map[string]models.Opportunity
}

func NewInMemoryOpportunities() *InMemoryOpportunityStore {
	return &InMemoryOpportunityStore{opps: make(map[string]models.Opportunity)}
}

func (s *InMemoryOpportunityStore) List(_ context.Context) ([]*models.Opportunity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Opportunity, 0, len(s.opps))
	for _, o := range s.opps {
		copied := o
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryOpportunityStore) FindByID(_ context.Context, id string) (*models.Opportunity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if o, ok := s.opps[id]; ok {
		out := o
		return &out, nil
	}
	return nil, ErrNotFound
}

func (s *InMemoryOpportunityStore) Save(_ context.Context, opp *models.Opportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := *opp
	// Updates never rewrite creation time, same as the SQL upsert.
	if existing, ok := s.opps[opp.ID]; ok && saved.CreatedAt.IsZero() {
		saved.CreatedAt = existing.CreatedAt
	}
	s.opps[opp.ID] = saved
	return nil
}

func (s *InMemoryOpportunityStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.opps[id]; !ok {
		return ErrNotFound
	}
	delete(s.opps, id)
	return nil
}

// InMemoryPipelineStore is the pipeline-entry test double.
type InMemoryPipelineStore struct {
	mu      sync.RWMutex
	entries map[string]models.PipelineEntry
}

func NewInMemoryPipeline() *InMemoryPipelineStore {
	return &InMemoryPipelineStore{entries: make(map[string]models.PipelineEntry)}
}

func (s *InMemoryPipelineStore) ListByOpportunity(_ context.Context, opportunityID string) ([]*models.PipelineEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.PipelineEntry
	for _, e := range s.entries {
		if e.OpportunityID == opportunityID {
			copied := e
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *InMemoryPipelineStore) Save(_ context.Context, entry *models.PipelineEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = *entry
	return nil
}

func (s *InMemoryPipelineStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return ErrNotFound
	}
	delete(s.entries, id)
	return nil
}
