package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	approvalservice "veritas/internal/approval/service"
	approvalstore "veritas/internal/approval/store"
	"veritas/internal/keys"
	"veritas/internal/keys/store"
	"veritas/internal/vault/keyring"
	dErrors "veritas/pkg/domain-errors"
	"veritas/pkg/requestcontext"
)

type KeyServiceSuite struct {
	suite.Suite
	svc       *Service
	keystore  *store.InMemoryStore
	approvals *approvalservice.Service
	ctx       context.Context
}

func (s *KeyServiceSuite) SetupTest() {
	s.keystore = store.NewInMemoryStore()
	kr, err := keyring.New([]byte("0123456789abcdef0123456789abcdef"))
	s.Require().NoError(err)
	s.approvals = approvalservice.New(approvalstore.NewInMemoryStore(), kr)
	s.svc = New(s.keystore, s.approvals)
	s.ctx = context.Background()
}

func TestKeyServiceSuite(t *testing.T) {
	suite.Run(t, new(KeyServiceSuite))
}

func (s *KeyServiceSuite) TestRegisterKey() {
	s.Run("registers with defaults", func() {
		key, err := s.svc.RegisterKey(s.ctx, keys.Metadata{
			KeyID:   "evidence-signing-2026a",
			Purpose: keys.PurposeEvidenceSigning,
		})
		s.Require().NoError(err)
		s.Equal(keys.StatusActive, key.Status)
		s.False(key.CreatedAt.IsZero())
	})

	s.Run("duplicate registration conflicts", func() {
		_, err := s.svc.RegisterKey(s.ctx, keys.Metadata{KeyID: "dup", Purpose: keys.PurposeSessionSigning})
		s.Require().NoError(err)
		_, err = s.svc.RegisterKey(s.ctx, keys.Metadata{KeyID: "dup", Purpose: keys.PurposeSessionSigning})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("requires id and purpose", func() {
		_, err := s.svc.RegisterKey(s.ctx, keys.Metadata{Purpose: keys.PurposeSessionSigning})
		s.Require().Error(err)
		_, err = s.svc.RegisterKey(s.ctx, keys.Metadata{KeyID: "nopurpose"})
		s.Require().Error(err)
	})
}

func (s *KeyServiceSuite) TestRotateKey() {
	s.Run("authorized rotation retires the old key and activates the new", func() {
		_, err := s.svc.RegisterKey(s.ctx, keys.Metadata{
			KeyID:   "vault-2025a",
			Purpose: keys.PurposeIdentityVault,
		})
		s.Require().NoError(err)

		actionID := rotationActionID("vault-2025a", "vault-2026a")
		_, err = s.approvals.RecordApproval(s.ctx, actionID, "bob")
		s.Require().NoError(err)

		outcome, err := s.svc.RotateKey(s.ctx, RotationRequest{
			KeyID:     "vault-2025a",
			NewKeyID:  "vault-2026a",
			RotatedBy: "alice",
		})
		s.Require().NoError(err)
		s.True(outcome.Decision.Authorized)
		s.Equal(keys.StatusActive, outcome.NewKey.Status)
		s.Equal(1, outcome.NewKey.RotationCount)
		s.Len(outcome.Artifact.Digest, 64)

		old, err := s.svc.GetKey(s.ctx, "vault-2025a")
		s.Require().NoError(err)
		s.Equal(keys.StatusRetired, old.Status)
	})

	s.Run("unapproved rotation is a decision, not an execution", func() {
		_, err := s.svc.RegisterKey(s.ctx, keys.Metadata{
			KeyID:   "api-2025a",
			Purpose: keys.PurposeAPIEncryption,
		})
		s.Require().NoError(err)

		outcome, err := s.svc.RotateKey(s.ctx, RotationRequest{
			KeyID:     "api-2025a",
			NewKeyID:  "api-2026a",
			RotatedBy: "alice",
		})
		s.Require().NoError(err)
		s.False(outcome.Decision.Authorized)

		_, err = s.svc.GetKey(s.ctx, "api-2026a")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("self-approval does not authorize rotation", func() {
		_, err := s.svc.RegisterKey(s.ctx, keys.Metadata{
			KeyID:   "sess-2026a",
			Purpose: keys.PurposeSessionSigning,
		})
		s.Require().NoError(err)

		actionID := rotationActionID("sess-2026a", "sess-2026b")
		_, err = s.approvals.RecordApproval(s.ctx, actionID, "alice")
		s.Require().NoError(err)

		outcome, err := s.svc.RotateKey(s.ctx, RotationRequest{
			KeyID:     "sess-2026a",
			NewKeyID:  "sess-2026b",
			RotatedBy: "alice",
		})
		s.Require().NoError(err)
		s.False(outcome.Decision.Authorized)
		s.Equal("self-approval forbidden", outcome.Decision.Reason)
	})

	s.Run("rotating a retired key conflicts", func() {
		now := time.Now().UTC()
		_, err := s.svc.RegisterKey(s.ctx, keys.Metadata{
			KeyID:     "retired-1",
			Purpose:   keys.PurposeAuditSigning,
			Status:    keys.StatusRetired,
			RotatedAt: &now,
		})
		s.Require().NoError(err)

		_, err = s.svc.RotateKey(s.ctx, RotationRequest{
			KeyID:     "retired-1",
			NewKeyID:  "retired-2",
			RotatedBy: "alice",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *KeyServiceSuite) TestAuditKeyAges() {
	s.Run("flags overdue and unknown-purpose keys", func() {
		fixed := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(s.ctx, fixed)

		_, err := s.svc.RegisterKey(ctx, keys.Metadata{
			KeyID:     "fresh",
			Purpose:   keys.PurposeSessionSigning,
			CreatedAt: fixed.AddDate(0, 0, -10),
		})
		s.Require().NoError(err)
		_, err = s.svc.RegisterKey(ctx, keys.Metadata{
			KeyID:     "stale",
			Purpose:   keys.PurposeSessionSigning,
			CreatedAt: fixed.AddDate(0, 0, -45),
		})
		s.Require().NoError(err)
		_, err = s.svc.RegisterKey(ctx, keys.Metadata{
			KeyID:     "mystery",
			Purpose:   "quantum-signing",
			CreatedAt: fixed.AddDate(0, 0, -1),
		})
		s.Require().NoError(err)

		result, err := s.svc.AuditKeyAges(ctx)
		s.Require().NoError(err)
		s.False(result.Passed)
		s.Len(result.Violations, 2)

		reasons := map[string]string{}
		for _, v := range result.Violations {
			reasons[string(v.KeyID)] = v.Reason
		}
		s.Equal("maximum age exceeded", reasons["stale"])
		s.Equal("unknown purpose", reasons["mystery"])
	})

	s.Run("empty inventory passes", func() {
		result, err := s.svc.AuditKeyAges(s.ctx)
		s.Require().NoError(err)
		s.True(result.Passed)
	})
}

func (s *KeyServiceSuite) TestRecordDRSimulation() {
	s.Run("produces a deterministic digest", func() {
		result := keys.DRSimulationResult{
			Scenario:        "regional-outage",
			SimulatedAt:     time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
			KeysRestored:    12,
			RecoverySeconds: 340,
			Success:         true,
		}

		first, err := s.svc.RecordDRSimulation(s.ctx, result)
		s.Require().NoError(err)
		second, err := s.svc.RecordDRSimulation(s.ctx, result)
		s.Require().NoError(err)
		s.Equal(first.Digest, second.Digest)
	})

	s.Run("requires a scenario", func() {
		_, err := s.svc.RecordDRSimulation(s.ctx, keys.DRSimulationResult{})
		s.Require().Error(err)
	})
}
