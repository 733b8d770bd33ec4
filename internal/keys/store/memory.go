package store

import (
	"context"
	"sort"
	"sync"

	"veritas/internal/keys"
	id "veritas/pkg/domain"
	"veritas/pkg/platform/sentinel"
)

// InMemoryStore keeps key metadata in memory for unit tests and local
// development.
type InMemoryStore struct {
	mu   sync.RWMutex
	keys map[id.KeyID]keys.Metadata
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{keys: make(map[id.KeyID]keys.Metadata)}
}

func (s *InMemoryStore) Create(_ context.Context, key keys.Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.keys[key.KeyID]; exists {
		return sentinel.ErrConflict
	}
	s.keys[key.KeyID] = key
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, keyID id.KeyID) (keys.Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.keys[keyID]
	if !ok {
		return keys.Metadata{}, sentinel.ErrNotFound
	}
	return key, nil
}

func (s *InMemoryStore) Update(_ context.Context, key keys.Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key.KeyID]; !ok {
		return sentinel.ErrNotFound
	}
	s.keys[key.KeyID] = key
	return nil
}

// List returns the full inventory ordered by key ID for determinism.
func (s *InMemoryStore) List(_ context.Context) ([]keys.Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inventory := make([]keys.Metadata, 0, len(s.keys))
	for _, key := range s.keys {
		inventory = append(inventory, key)
	}
	sort.Slice(inventory, func(i, j int) bool { return inventory[i].KeyID < inventory[j].KeyID })
	return inventory, nil
}
