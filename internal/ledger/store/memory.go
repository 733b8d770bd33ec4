package store

import (
	"context"
	"sync"

	"veritas/internal/ledger"
	id "veritas/pkg/domain"
	"veritas/pkg/platform/sentinel"
)

// InMemoryStore keeps per-organization chains in memory. Used by unit tests
// and local development.
type InMemoryStore struct {
	mu     sync.RWMutex
	chains map[id.OrgID][]ledger.Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{chains: make(map[id.OrgID][]ledger.Entry)}
}

// Append adds an entry to the organization's chain. The entry's Seq must be
// exactly one past the current head; anything else is a lost-update race and
// is rejected with sentinel.ErrConflict.
func (s *InMemoryStore) Append(_ context.Context, entry ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	chain := s.chains[entry.OrgID]
	if entry.Seq != int64(len(chain)) {
		return sentinel.ErrConflict
	}
	s.chains[entry.OrgID] = append(chain, entry)
	return nil
}

// Head returns the most recent entry of the organization's chain, or
// sentinel.ErrNotFound when the chain is empty.
func (s *InMemoryStore) Head(_ context.Context, orgID id.OrgID) (ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chain := s.chains[orgID]
	if len(chain) == 0 {
		return ledger.Entry{}, sentinel.ErrNotFound
	}
	return chain[len(chain)-1], nil
}

// ListByOrg returns the organization's full chain in append order.
func (s *InMemoryStore) ListByOrg(_ context.Context, orgID id.OrgID) ([]ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ledger.Entry{}, s.chains[orgID]...), nil
}
