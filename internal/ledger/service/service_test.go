package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"veritas/internal/ledger/store"
	"veritas/pkg/platform/audit"
	auditmemory "veritas/pkg/platform/audit/store/memory"
)

type ChainServiceSuite struct {
	suite.Suite
	svc    *Service
	chains *store.InMemoryStore
	audits *auditmemory.InMemoryStore
	ctx    context.Context
}

func (s *ChainServiceSuite) SetupTest() {
	s.chains = store.NewInMemoryStore()
	s.audits = auditmemory.NewInMemoryStore()
	s.svc = New(s.chains, WithAuditPublisher(audit.NewPublisher(s.audits)))
	s.ctx = context.Background()
}

func TestChainServiceSuite(t *testing.T) {
	suite.Run(t, new(ChainServiceSuite))
}

func (s *ChainServiceSuite) TestAppend() {
	s.Run("first entry links to the genesis sentinel", func() {
		entry, err := s.svc.Append(s.ctx, "org-a", map[string]any{"action": "login"})
		s.Require().NoError(err)
		s.Equal(int64(0), entry.Seq)
		s.Empty(entry.PreviousHash)
		s.Len(entry.Hash, 64)
	})

	s.Run("subsequent entries link to the head", func() {
		first, err := s.svc.Append(s.ctx, "org-b", map[string]any{"n": 1})
		s.Require().NoError(err)
		second, err := s.svc.Append(s.ctx, "org-b", map[string]any{"n": 2})
		s.Require().NoError(err)

		s.Equal(int64(1), second.Seq)
		s.Equal(first.Hash, second.PreviousHash)
	})

	s.Run("rejects an empty org", func() {
		_, err := s.svc.Append(s.ctx, "", map[string]any{})
		s.Require().Error(err)
	})

	s.Run("rejects a payload that cannot be canonicalized", func() {
		_, err := s.svc.Append(s.ctx, "org-c", map[string]any{"ch": make(chan int)})
		s.Require().Error(err)
	})
}

func (s *ChainServiceSuite) TestVerify() {
	s.Run("fresh chain verifies", func() {
		_, err := s.svc.Append(s.ctx, "org-a", map[string]any{"n": 1})
		s.Require().NoError(err)
		_, err = s.svc.Append(s.ctx, "org-a", map[string]any{"n": 2})
		s.Require().NoError(err)

		verdict, err := s.svc.Verify(s.ctx, "org-a")
		s.Require().NoError(err)
		s.True(verdict.Valid)
		s.Nil(verdict.BrokenAt)
	})

	s.Run("empty chain verifies trivially", func() {
		verdict, err := s.svc.Verify(s.ctx, "org-empty")
		s.Require().NoError(err)
		s.True(verdict.Valid)
	})

	s.Run("tampered payload breaks verification and leaves a compliance event", func() {
		_, err := s.svc.Append(s.ctx, "org-t", map[string]any{"amount": "100"})
		s.Require().NoError(err)
		_, err = s.svc.Append(s.ctx, "org-t", map[string]any{"amount": "200"})
		s.Require().NoError(err)

		entries, err := s.chains.ListByOrg(s.ctx, "org-t")
		s.Require().NoError(err)
		entries[0].Payload = map[string]any{"amount": "999"}

		// rebuild a store holding the tampered copy
		tampered := store.NewInMemoryStore()
		for _, e := range entries {
			s.Require().NoError(tampered.Append(s.ctx, e))
		}
		svc := New(tampered, WithAuditPublisher(audit.NewPublisher(s.audits)))

		verdict, err := svc.Verify(s.ctx, "org-t")
		s.Require().NoError(err)
		s.False(verdict.Valid)
		s.Require().NotNil(verdict.BrokenAt)
		s.Equal(0, *verdict.BrokenAt)

		events, err := s.audits.ListByOrg(s.ctx, "org-t")
		s.Require().NoError(err)
		var found bool
		for _, e := range events {
			if e.Action == string(audit.EventChainVerificationFailed) {
				found = true
				s.Equal(audit.CategoryCompliance, e.Category)
			}
		}
		s.True(found)
	})
}
