package store

import (
	"context"
	"sync"

	"veritas/internal/vault"
	id "veritas/pkg/domain"
	"veritas/pkg/platform/sentinel"
)

type recordKey struct {
	orgID     id.OrgID
	subjectID string
}

// InMemoryStore keeps encrypted records in memory for unit tests and local
// development. Re-encrypting a subject overwrites its record.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[recordKey]vault.StoredRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[recordKey]vault.StoredRecord)}
}

func (s *InMemoryStore) Save(_ context.Context, record vault.StoredRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[recordKey{record.OrgID, record.SubjectID}] = record
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, orgID id.OrgID, subjectID string) (vault.StoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[recordKey{orgID, subjectID}]
	if !ok {
		return vault.StoredRecord{}, sentinel.ErrNotFound
	}
	return record, nil
}

func (s *InMemoryStore) Delete(_ context.Context, orgID id.OrgID, subjectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey{orgID, subjectID}
	if _, ok := s.records[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, key)
	return nil
}
