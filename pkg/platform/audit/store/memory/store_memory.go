package memory

import (
	"context"
	"sync"

	id "veritas/pkg/domain"
	audit "veritas/pkg/platform/audit"
)

// InMemoryStore keeps audit events per org. Used in tests and as the
// default when no database is configured.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.OrgID][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.OrgID][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.OrgID][]audit.Event)
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.OrgID] = append(s.events[event.OrgID], event)
	return nil
}

func (s *InMemoryStore) ListByOrg(_ context.Context, orgID id.OrgID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[orgID]...), nil
}

// ListAll returns all audit events across all orgs (admin-only operation).
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []audit.Event
	for _, orgEvents := range s.events {
		all = append(all, orgEvents...)
	}
	return all, nil
}
