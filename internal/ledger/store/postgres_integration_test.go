//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"veritas/internal/ledger"
	"veritas/internal/ledger/store"
	id "veritas/pkg/domain"
	"veritas/pkg/platform/sentinel"
	"veritas/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "chain_entries")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) appendEntry(orgID id.OrgID, seq int64, prevHash string, payload any) ledger.Entry {
	hash, err := ledger.ComputeEntryHash(payload, prevHash)
	s.Require().NoError(err)

	entry := ledger.Entry{
		OrgID:        orgID,
		Seq:          seq,
		Hash:         hash,
		PreviousHash: prevHash,
		Payload:      payload,
		RecordedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.store.Append(context.Background(), entry))
	return entry
}

func (s *PostgresStoreSuite) TestAppendAndHead() {
	ctx := context.Background()
	orgID := id.OrgID("org-acme")

	first := s.appendEntry(orgID, 1, "", map[string]any{"action": "export", "count": 3})
	second := s.appendEntry(orgID, 2, first.Hash, map[string]any{"action": "delete"})

	head, err := s.store.Head(ctx, orgID)
	s.Require().NoError(err)
	s.Equal(second.Seq, head.Seq)
	s.Equal(second.Hash, head.Hash)
	s.Equal(first.Hash, head.PreviousHash)
	s.Equal(second.RecordedAt, head.RecordedAt)
}

func (s *PostgresStoreSuite) TestHeadEmptyChain() {
	_, err := s.store.Head(context.Background(), id.OrgID("org-empty"))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestAppendConflictOnTakenSeq() {
	ctx := context.Background()
	orgID := id.OrgID("org-race")

	first := s.appendEntry(orgID, 1, "", map[string]any{"writer": "a"})

	hash, err := ledger.ComputeEntryHash(map[string]any{"writer": "b"}, "")
	s.Require().NoError(err)
	err = s.store.Append(ctx, ledger.Entry{
		OrgID:      orgID,
		Seq:        first.Seq,
		Hash:       hash,
		Payload:    map[string]any{"writer": "b"},
		RecordedAt: time.Now().UTC(),
	})
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestListByOrgIsolatesOrganizations() {
	ctx := context.Background()
	orgA := id.OrgID("org-a")
	orgB := id.OrgID("org-b")

	first := s.appendEntry(orgA, 1, "", map[string]any{"n": 1})
	s.appendEntry(orgA, 2, first.Hash, map[string]any{"n": 2})
	s.appendEntry(orgB, 1, "", map[string]any{"n": 99})

	entries, err := s.store.ListByOrg(ctx, orgA)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(int64(1), entries[0].Seq)
	s.Equal(int64(2), entries[1].Seq)
	s.Equal(entries[0].Hash, entries[1].PreviousHash)
}

// A chain written through the store must still verify after a reload: the
// payload round-trip has to reproduce the exact bytes that were hashed.
func (s *PostgresStoreSuite) TestReloadedChainStillVerifies() {
	ctx := context.Background()
	orgID := id.OrgID("org-verify")

	payload := map[string]any{
		"amount":  1234.56,
		"count":   42,
		"nested":  map[string]any{"z": "last", "a": "first"},
		"tags":    []any{"legal", "export"},
		"unicode": "café",
	}
	first := s.appendEntry(orgID, 1, "", payload)
	s.appendEntry(orgID, 2, first.Hash, map[string]any{"follow": "up"})

	entries, err := s.store.ListByOrg(ctx, orgID)
	s.Require().NoError(err)

	verdict := ledger.VerifyChain(entries)
	s.True(verdict.Valid)
	s.Nil(verdict.BrokenAt)
}

// Exponent-form floats are where payload storage can silently diverge from
// the hashed bytes: 0.00001 canonicalizes as 1e-05 while encoding/json
// writes 0.00001, and jsonb re-renders numbers on output. The store must
// hand back the exact rendering the hash was computed over.
func (s *PostgresStoreSuite) TestReloadedExponentFloatsStillVerify() {
	ctx := context.Background()
	orgID := id.OrgID("org-floats")

	first := s.appendEntry(orgID, 1, "", map[string]any{
		"rate": 0.00001,
		"mass": 1e21,
	})
	s.appendEntry(orgID, 2, first.Hash, map[string]any{
		"readings": []any{2.5e-8, 42, 1e-300},
	})

	entries, err := s.store.ListByOrg(ctx, orgID)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)

	verdict := ledger.VerifyChain(entries)
	s.True(verdict.Valid)
	s.Nil(verdict.BrokenAt)

	head, err := s.store.Head(ctx, orgID)
	s.Require().NoError(err)
	recomputed, err := ledger.ComputeEntryHash(head.Payload, head.PreviousHash)
	s.Require().NoError(err)
	s.Equal(head.Hash, recomputed)
}
