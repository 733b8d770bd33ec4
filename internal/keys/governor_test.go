package keys

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func keyAged(days int, purpose Purpose) Metadata {
	return Metadata{
		KeyID:     "k-test",
		Purpose:   purpose,
		Algorithm: "aes-256-gcm",
		CreatedAt: now.AddDate(0, 0, -days),
		Status:    StatusActive,
	}
}

func TestKeyAgeDays(t *testing.T) {
	t.Run("measures from creation when never rotated", func(t *testing.T) {
		assert.Equal(t, 100, KeyAgeDays(keyAged(100, PurposeAPIEncryption), now))
	})

	t.Run("measures from last rotation when rotated", func(t *testing.T) {
		key := keyAged(400, PurposeAPIEncryption)
		rotated := now.AddDate(0, 0, -10)
		key.RotatedAt = &rotated
		assert.Equal(t, 10, KeyAgeDays(key, now))
	})

	t.Run("truncates to whole days", func(t *testing.T) {
		key := keyAged(0, PurposeAPIEncryption)
		key.CreatedAt = now.Add(-47 * time.Hour)
		assert.Equal(t, 1, KeyAgeDays(key, now))
	})

	t.Run("future-created keys have age zero", func(t *testing.T) {
		key := keyAged(0, PurposeAPIEncryption)
		key.CreatedAt = now.Add(24 * time.Hour)
		assert.Equal(t, 0, KeyAgeDays(key, now))
	})
}

func TestIsExpired(t *testing.T) {
	t.Run("under threshold is fresh", func(t *testing.T) {
		assert.False(t, IsExpired(keyAged(89, PurposeAPIEncryption), now))
	})

	t.Run("at threshold is still fresh", func(t *testing.T) {
		assert.False(t, IsExpired(keyAged(90, PurposeAPIEncryption), now))
	})

	t.Run("past threshold is expired", func(t *testing.T) {
		assert.True(t, IsExpired(keyAged(91, PurposeAPIEncryption), now))
	})

	t.Run("thresholds are purpose-specific", func(t *testing.T) {
		assert.False(t, IsExpired(keyAged(91, PurposeEvidenceSigning), now))
		assert.True(t, IsExpired(keyAged(31, PurposeSessionSigning), now))
	})

	t.Run("unknown purpose fails closed", func(t *testing.T) {
		assert.True(t, IsExpired(keyAged(1, Purpose("mystery")), now))
	})
}

func TestAuditAges(t *testing.T) {
	t.Run("passes a healthy inventory", func(t *testing.T) {
		audit := AuditAges([]Metadata{
			keyAged(10, PurposeSessionSigning),
			keyAged(200, PurposeEvidenceSigning),
		}, now)
		assert.True(t, audit.Passed)
		assert.Empty(t, audit.Violations)
	})

	t.Run("flags every stale active key", func(t *testing.T) {
		stale := keyAged(400, PurposeAuditSigning)
		stale.KeyID = "k-stale"
		fresh := keyAged(5, PurposeSessionSigning)
		fresh.KeyID = "k-fresh"
		alsoStale := keyAged(200, PurposePaymentEncryption)
		alsoStale.KeyID = "k-also-stale"

		audit := AuditAges([]Metadata{stale, fresh, alsoStale}, now)
		require.False(t, audit.Passed)
		require.Len(t, audit.Violations, 2)
		assert.Equal(t, "k-stale", string(audit.Violations[0].KeyID))
		assert.Equal(t, PurposeAuditSigning, audit.Violations[0].Purpose)
		assert.Equal(t, 365, audit.Violations[0].MaxAgeDays)
		assert.Equal(t, "k-also-stale", string(audit.Violations[1].KeyID))
	})

	t.Run("ignores retired keys", func(t *testing.T) {
		retired := keyAged(1000, PurposeIdentityVault)
		retired.Status = StatusRetired

		audit := AuditAges([]Metadata{retired}, now)
		assert.True(t, audit.Passed)
	})

	t.Run("flags unknown purposes", func(t *testing.T) {
		odd := keyAged(1, Purpose("decorative"))
		audit := AuditAges([]Metadata{odd}, now)
		require.False(t, audit.Passed)
		assert.Equal(t, "unknown purpose", audit.Violations[0].Reason)
	})

	t.Run("empty inventory passes", func(t *testing.T) {
		assert.True(t, AuditAges(nil, now).Passed)
	})
}

func TestArtifacts(t *testing.T) {
	rotation := RotationEvent{
		KeyID:         "identity-vault-2026b",
		PreviousKeyID: "identity-vault-2026a",
		Purpose:       PurposeIdentityVault,
		RotatedAt:     now,
		RotatedBy:     "ops@example.test",
		RotationCount: 3,
	}

	t.Run("rotation artifact is deterministic", func(t *testing.T) {
		a1, err := CollectRotationArtifact(rotation)
		require.NoError(t, err)
		a2, err := CollectRotationArtifact(rotation)
		require.NoError(t, err)
		assert.Equal(t, a1.Digest, a2.Digest)
		assert.Len(t, a1.Digest, 64)
	})

	t.Run("any change to the event changes the digest", func(t *testing.T) {
		a1, err := CollectRotationArtifact(rotation)
		require.NoError(t, err)

		altered := rotation
		altered.RotatedBy = "intruder@example.test"
		a2, err := CollectRotationArtifact(altered)
		require.NoError(t, err)
		assert.NotEqual(t, a1.Digest, a2.Digest)
	})

	t.Run("dr simulation artifact tracks its result", func(t *testing.T) {
		result := DRSimulationResult{
			Scenario:        "regional-outage",
			SimulatedAt:     now,
			KeysRestored:    12,
			RecoverySeconds: 840,
			Success:         true,
		}
		a1, err := GenerateDRSimulationArtifact(result)
		require.NoError(t, err)

		result.Success = false
		a2, err := GenerateDRSimulationArtifact(result)
		require.NoError(t, err)
		assert.NotEqual(t, a1.Digest, a2.Digest)
	})
}
