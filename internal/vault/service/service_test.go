package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"veritas/internal/vault/keyring"
	"veritas/internal/vault/store"
	dErrors "veritas/pkg/domain-errors"
	"veritas/pkg/platform/audit"
	auditmemory "veritas/pkg/platform/audit/store/memory"
)

type VaultServiceSuite struct {
	suite.Suite
	svc     *Service
	records *store.InMemoryStore
	audits  *auditmemory.InMemoryStore
	ctx     context.Context
}

func (s *VaultServiceSuite) SetupTest() {
	s.records = store.NewInMemoryStore()
	s.audits = auditmemory.NewInMemoryStore()
	keys, err := keyring.New([]byte("0123456789abcdef0123456789abcdef"))
	s.Require().NoError(err)
	s.svc = New(s.records, keys, WithAuditPublisher(audit.NewPublisher(s.audits)))
	s.ctx = context.Background()
}

func TestVaultServiceSuite(t *testing.T) {
	suite.Run(t, new(VaultServiceSuite))
}

func (s *VaultServiceSuite) TestStoreAndRetrieve() {
	payload := map[string]any{"name": "Dana Oduya", "nationalId": "XK-443-21"}

	s.Run("round-trips a payload", func() {
		_, err := s.svc.StoreIdentity(s.ctx, "org-a", "subj-1", payload, "identity-vault-2026a")
		s.Require().NoError(err)

		got, err := s.svc.RetrieveIdentity(s.ctx, "org-a", "subj-1")
		s.Require().NoError(err)
		s.Equal(payload, got)
	})

	s.Run("stored record carries no plaintext", func() {
		stored, err := s.svc.StoreIdentity(s.ctx, "org-a", "subj-2", payload, "identity-vault-2026a")
		s.Require().NoError(err)
		s.NotContains(stored.Record.EncryptedPayload, "Dana")
		s.Equal("identity-vault-2026a", string(stored.Record.KeyID))
	})

	s.Run("unknown subject is not found", func() {
		_, err := s.svc.RetrieveIdentity(s.ctx, "org-a", "missing")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("requires org and subject", func() {
		_, err := s.svc.StoreIdentity(s.ctx, "", "subj", payload, "k")
		s.Require().Error(err)
		_, err = s.svc.StoreIdentity(s.ctx, "org", "", payload, "k")
		s.Require().Error(err)
	})
}

func (s *VaultServiceSuite) TestTamperedRecord() {
	s.Run("ciphertext tampering is forbidden and audited", func() {
		_, err := s.svc.StoreIdentity(s.ctx, "org-a", "subj-t",
			map[string]any{"secret": "value"}, "identity-vault-2026a")
		s.Require().NoError(err)

		stored, err := s.records.Find(s.ctx, "org-a", "subj-t")
		s.Require().NoError(err)
		tampered := []byte(stored.Record.EncryptedPayload)
		if tampered[0] == 'a' {
			tampered[0] = 'b'
		} else {
			tampered[0] = 'a'
		}
		stored.Record.EncryptedPayload = string(tampered)
		s.Require().NoError(s.records.Save(s.ctx, stored))

		_, err = s.svc.RetrieveIdentity(s.ctx, "org-a", "subj-t")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		events, err := s.audits.ListByOrg(s.ctx, "org-a")
		s.Require().NoError(err)
		var found bool
		for _, e := range events {
			if e.Action == string(audit.EventIdentityDecryptFailed) {
				found = true
				s.Equal(audit.CategorySecurity, e.Category)
			}
		}
		s.True(found)
	})
}

func (s *VaultServiceSuite) TestErase() {
	s.Run("erases and subsequent reads are not found", func() {
		_, err := s.svc.StoreIdentity(s.ctx, "org-a", "subj-e",
			map[string]any{"x": true}, "identity-vault-2026a")
		s.Require().NoError(err)

		s.Require().NoError(s.svc.EraseIdentity(s.ctx, "org-a", "subj-e"))

		_, err = s.svc.RetrieveIdentity(s.ctx, "org-a", "subj-e")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("erasing a missing subject is not found", func() {
		err := s.svc.EraseIdentity(s.ctx, "org-a", "missing")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
