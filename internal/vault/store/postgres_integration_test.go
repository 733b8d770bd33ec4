//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"veritas/internal/vault"
	"veritas/internal/vault/store"
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
	err := s.postgres.TruncateTables(context.Background(), "vault_records")
	s.Require().NoError(err)
}

func newStoredRecord(orgID id.OrgID, subjectID string) vault.StoredRecord {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return vault.StoredRecord{
		OrgID:     orgID,
		SubjectID: subjectID,
		Record: vault.Record{
			EncryptedPayload: "YmFzZTY0LWNpcGhlcnRleHQ=",
			IV:               "aXYtdHdlbHZlLWI=",
			AuthTag:          "dGFnLXNpeHRlZW4tYnl0ZXM=",
			KeyID:            id.KeyID("identity-vault-2026a"),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *PostgresStoreSuite) TestSaveAndFind() {
	ctx := context.Background()
	record := newStoredRecord("org-acme", "subject-1")

	s.Require().NoError(s.store.Save(ctx, record))

	found, err := s.store.Find(ctx, record.OrgID, record.SubjectID)
	s.Require().NoError(err)
	s.Equal(record.Record, found.Record)
	s.Equal(record.CreatedAt, found.CreatedAt.UTC())
}

func (s *PostgresStoreSuite) TestSaveOverwritesExistingSubject() {
	ctx := context.Background()
	record := newStoredRecord("org-acme", "subject-1")
	s.Require().NoError(s.store.Save(ctx, record))

	updated := record
	updated.Record.EncryptedPayload = "bmV3LWNpcGhlcnRleHQ="
	updated.Record.KeyID = id.KeyID("identity-vault-2026b")
	updated.UpdatedAt = record.UpdatedAt.Add(time.Minute)
	s.Require().NoError(s.store.Save(ctx, updated))

	found, err := s.store.Find(ctx, record.OrgID, record.SubjectID)
	s.Require().NoError(err)
	s.Equal(updated.Record, found.Record)
	s.Equal(updated.UpdatedAt, found.UpdatedAt.UTC())
}

func (s *PostgresStoreSuite) TestFindScopedToOrganization() {
	ctx := context.Background()
	record := newStoredRecord("org-acme", "subject-1")
	s.Require().NoError(s.store.Save(ctx, record))

	_, err := s.store.Find(ctx, id.OrgID("org-other"), record.SubjectID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDelete() {
	ctx := context.Background()
	record := newStoredRecord("org-acme", "subject-1")
	s.Require().NoError(s.store.Save(ctx, record))

	s.Require().NoError(s.store.Delete(ctx, record.OrgID, record.SubjectID))

	_, err := s.store.Find(ctx, record.OrgID, record.SubjectID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDeleteMissingRecord() {
	err := s.store.Delete(context.Background(), id.OrgID("org-acme"), "nobody")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
