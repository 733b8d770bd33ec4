package store

import (
	"context"
	"sync"

	"veritas/internal/evidence"
	id "veritas/pkg/domain"
	"veritas/pkg/platform/sentinel"
)

// InMemoryStore keeps packs in memory for unit tests and local development.
type InMemoryStore struct {
	mu    sync.RWMutex
	packs map[id.PackID]evidence.StoredPack
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{packs: make(map[id.PackID]evidence.StoredPack)}
}

func (s *InMemoryStore) Create(_ context.Context, pack evidence.StoredPack) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.packs[pack.ID]; exists {
		return sentinel.ErrConflict
	}
	s.packs[pack.ID] = pack
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, orgID id.OrgID, packID id.PackID) (evidence.StoredPack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pack, ok := s.packs[packID]
	if !ok || pack.Pack.OrgID != orgID {
		return evidence.StoredPack{}, sentinel.ErrNotFound
	}
	return pack, nil
}

// AttachSeal stores the envelope on an unsealed pack. Sealing twice is a
// conflict; seals are write-once.
func (s *InMemoryStore) AttachSeal(_ context.Context, orgID id.OrgID, packID id.PackID, seal evidence.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pack, ok := s.packs[packID]
	if !ok || pack.Pack.OrgID != orgID {
		return sentinel.ErrNotFound
	}
	if pack.Pack.Seal != nil {
		return sentinel.ErrConflict
	}
	pack.Pack.Seal = &seal
	s.packs[packID] = pack
	return nil
}

func (s *InMemoryStore) ListByOrg(_ context.Context, orgID id.OrgID) ([]evidence.StoredPack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var packs []evidence.StoredPack
	for _, pack := range s.packs {
		if pack.Pack.OrgID == orgID {
			packs = append(packs, pack)
		}
	}
	return packs, nil
}
