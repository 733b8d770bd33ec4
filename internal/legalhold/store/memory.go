package store

import (
	"context"
	"sort"
	"sync"

	"veritas/internal/legalhold"
	id "veritas/pkg/domain"
	"veritas/pkg/platform/sentinel"
)

// InMemoryStore keeps holds in memory for unit tests and local development.
type InMemoryStore struct {
	mu    sync.RWMutex
	holds map[id.HoldID]legalhold.Hold
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{holds: make(map[id.HoldID]legalhold.Hold)}
}

func (s *InMemoryStore) Create(_ context.Context, hold legalhold.Hold) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.holds[hold.HoldID]; exists {
		return sentinel.ErrConflict
	}
	s.holds[hold.HoldID] = hold
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, orgID id.OrgID, holdID id.HoldID) (legalhold.Hold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hold, ok := s.holds[holdID]
	if !ok || hold.OrgID != orgID {
		return legalhold.Hold{}, sentinel.ErrNotFound
	}
	return hold, nil
}

func (s *InMemoryStore) Update(_ context.Context, hold legalhold.Hold) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.holds[hold.HoldID]
	if !ok || existing.OrgID != hold.OrgID {
		return sentinel.ErrNotFound
	}
	s.holds[hold.HoldID] = hold
	return nil
}

// ListByOrg returns every hold for the organization, released ones
// included, ordered by issue time.
func (s *InMemoryStore) ListByOrg(_ context.Context, orgID id.OrgID) ([]legalhold.Hold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var holds []legalhold.Hold
	for _, hold := range s.holds {
		if hold.OrgID == orgID {
			holds = append(holds, hold)
		}
	}
	sort.Slice(holds, func(i, j int) bool { return holds[i].IssuedAt.Before(holds[j].IssuedAt) })
	return holds, nil
}
