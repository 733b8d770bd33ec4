package store

import (
	"context"
	"sync"

	"veritas/internal/docs"
	id "veritas/pkg/domain"
	"veritas/pkg/platform/sentinel"
)

type docKey struct {
	orgID      id.OrgID
	documentID id.DocumentID
}

// InMemoryStore keeps document version chains in memory.
type InMemoryStore struct {
	mu       sync.RWMutex
	versions map[docKey][]docs.Version
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{versions: make(map[docKey][]docs.Version)}
}

// Append adds a version. The version number must be exactly one past the
// latest recorded version (or 1 for a new document).
func (s *InMemoryStore) Append(_ context.Context, version docs.Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := docKey{version.OrgID, version.DocumentID}
	chain := s.versions[key]
	if version.Version != len(chain)+1 {
		return sentinel.ErrConflict
	}
	s.versions[key] = append(chain, version)
	return nil
}

func (s *InMemoryStore) ListByDocument(_ context.Context, orgID id.OrgID, documentID id.DocumentID) ([]docs.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chain := s.versions[docKey{orgID, documentID}]
	if len(chain) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return append([]docs.Version{}, chain...), nil
}

func (s *InMemoryStore) Latest(_ context.Context, orgID id.OrgID, documentID id.DocumentID) (docs.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chain := s.versions[docKey{orgID, documentID}]
	if len(chain) == 0 {
		return docs.Version{}, sentinel.ErrNotFound
	}
	return chain[len(chain)-1], nil
}

// Delete removes a document's whole history. Callers gate this behind the
// hold check.
func (s *InMemoryStore) Delete(_ context.Context, orgID id.OrgID, documentID id.DocumentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := docKey{orgID, documentID}
	if _, ok := s.versions[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.versions, key)
	return nil
}
