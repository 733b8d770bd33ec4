package store

import (
	"context"
	"sync"

	"veritas/internal/approval"
	"veritas/pkg/platform/sentinel"
)

type approvalKey struct {
	actionID   string
	approverID string
}

// InMemoryStore keeps approvals in memory. One approval per approver per
// action; repeats are rejected rather than counted twice.
type InMemoryStore struct {
	mu        sync.RWMutex
	approvals map[approvalKey]approval.Approval
	byAction  map[string][]approvalKey
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		approvals: make(map[approvalKey]approval.Approval),
		byAction:  make(map[string][]approvalKey),
	}
}

func (s *InMemoryStore) Add(_ context.Context, a approval.Approval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := approvalKey{a.ActionID, a.ApproverID}
	if _, exists := s.approvals[key]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.approvals[key] = a
	s.byAction[a.ActionID] = append(s.byAction[a.ActionID], key)
	return nil
}

func (s *InMemoryStore) ListByAction(_ context.Context, actionID string) ([]approval.Approval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.byAction[actionID]
	approvals := make([]approval.Approval, 0, len(keys))
	for _, key := range keys {
		approvals = append(approvals, s.approvals[key])
	}
	return approvals, nil
}
