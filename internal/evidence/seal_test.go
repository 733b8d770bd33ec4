package evidence

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePack() Pack {
	return Pack{
		OrgID:          "org-123",
		AppID:          "payroll",
		EventType:      "employee_termination",
		EntityType:     "employee",
		SubjectID:      "emp-42",
		Period:         "2026-08",
		GeneratedAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		TerminalAction: "offboard",
		Artifacts: []Artifact{
			{Name: "final_payslip.pdf", SHA256: leaf("payslip"), BlobPath: "blobs/p1", Category: "payroll"},
			{Name: "termination_letter.pdf", SHA256: leaf("letter"), BlobPath: "blobs/p2", Category: "legal"},
			{Name: "equipment_return.json", SHA256: leaf("equipment"), BlobPath: "blobs/p3", Category: "asset"},
		},
	}
}

func sealedPack(t *testing.T, key []byte) Pack {
	t.Helper()
	p := samplePack()
	opts := SealOptions{SealedAt: time.Date(2026, 8, 1, 13, 0, 0, 0, time.UTC)}
	if key != nil {
		opts.HMACKey = key
		opts.KeyID = "evidence-signing-2026a"
	}
	env, err := GenerateSeal(p, opts)
	require.NoError(t, err)
	p.Seal = &env
	return p
}

func TestGenerateSeal(t *testing.T) {
	t.Run("round-trips to a valid verdict", func(t *testing.T) {
		p := sealedPack(t, nil)
		verdict := VerifySeal(p, nil)
		assert.True(t, verdict.Valid)
		assert.True(t, verdict.DigestMatch)
		assert.True(t, verdict.MerkleMatch)
		assert.Equal(t, SignatureUnsigned, verdict.SignatureVerified)
		assert.Empty(t, verdict.Errors)
	})

	t.Run("digest excludes the seal field", func(t *testing.T) {
		p := samplePack()
		env1, err := GenerateSeal(p, SealOptions{SealedAt: time.Now()})
		require.NoError(t, err)
		p.Seal = &env1
		env2, err := GenerateSeal(p, SealOptions{SealedAt: time.Now()})
		require.NoError(t, err)
		assert.Equal(t, env1.PackDigest, env2.PackDigest)
	})

	t.Run("requires sealedAt", func(t *testing.T) {
		_, err := GenerateSeal(samplePack(), SealOptions{})
		require.Error(t, err)
	})

	t.Run("requires a key id alongside an hmac key", func(t *testing.T) {
		_, err := GenerateSeal(samplePack(), SealOptions{SealedAt: time.Now(), HMACKey: []byte("k")})
		require.Error(t, err)
	})

	t.Run("records the signing key id", func(t *testing.T) {
		p := sealedPack(t, []byte("seal-key"))
		assert.NotEmpty(t, p.Seal.HMACSignature)
		assert.Equal(t, "evidence-signing-2026a", string(p.Seal.HMACKeyID))
	})
}

func TestVerifySeal_FieldMutation(t *testing.T) {
	mutations := map[string]func(*Pack){
		"orgId":       func(p *Pack) { p.OrgID = "org-999" },
		"subjectId":   func(p *Pack) { p.SubjectID = "emp-43" },
		"eventType":   func(p *Pack) { p.EventType = "employee_raise" },
		"generatedAt": func(p *Pack) { p.GeneratedAt = p.GeneratedAt.Add(time.Second) },
	}
	for field, mutate := range mutations {
		t.Run("mutating "+field+" fails the digest check", func(t *testing.T) {
			p := sealedPack(t, nil)
			mutate(&p)
			verdict := VerifySeal(p, nil)
			assert.False(t, verdict.Valid)
			assert.False(t, verdict.DigestMatch)
			assert.NotEmpty(t, verdict.Errors)
		})
	}
}

func TestVerifySeal_ManifestTampering(t *testing.T) {
	t.Run("injected artifact fails the merkle check", func(t *testing.T) {
		p := sealedPack(t, nil)
		p.Artifacts = append(p.Artifacts, Artifact{Name: "planted.pdf", SHA256: leaf("planted")})
		verdict := VerifySeal(p, nil)
		assert.False(t, verdict.Valid)
		assert.False(t, verdict.MerkleMatch)
	})

	t.Run("removed artifact fails the merkle check", func(t *testing.T) {
		p := sealedPack(t, nil)
		p.Artifacts = p.Artifacts[:len(p.Artifacts)-1]
		verdict := VerifySeal(p, nil)
		assert.False(t, verdict.Valid)
		assert.False(t, verdict.MerkleMatch)
	})

	t.Run("reordered artifacts fail the merkle check", func(t *testing.T) {
		p := sealedPack(t, nil)
		p.Artifacts[0], p.Artifacts[1] = p.Artifacts[1], p.Artifacts[0]
		verdict := VerifySeal(p, nil)
		assert.False(t, verdict.Valid)
		assert.False(t, verdict.MerkleMatch)
	})

	t.Run("swapped artifact hash fails the merkle check", func(t *testing.T) {
		p := sealedPack(t, nil)
		p.Artifacts[1].SHA256 = leaf("substituted")
		verdict := VerifySeal(p, nil)
		assert.False(t, verdict.Valid)
		assert.False(t, verdict.MerkleMatch)
	})
}

func TestVerifySeal_Signature(t *testing.T) {
	key := []byte("correct-horse-battery-staple-32b")

	t.Run("verifies under the sealing key", func(t *testing.T) {
		p := sealedPack(t, key)
		verdict := VerifySeal(p, key)
		assert.True(t, verdict.Valid)
		assert.Equal(t, SignatureValid, verdict.SignatureVerified)
	})

	t.Run("fails under a different key regardless of data", func(t *testing.T) {
		p := sealedPack(t, key)
		verdict := VerifySeal(p, []byte("some-other-key"))
		assert.False(t, verdict.Valid)
		assert.True(t, verdict.DigestMatch)
		assert.True(t, verdict.MerkleMatch)
		assert.Equal(t, SignatureInvalid, verdict.SignatureVerified)
	})

	t.Run("unsigned seal reports unsigned even when a key is offered", func(t *testing.T) {
		p := sealedPack(t, nil)
		verdict := VerifySeal(p, key)
		assert.True(t, verdict.Valid)
		assert.Equal(t, SignatureUnsigned, verdict.SignatureVerified)
	})

	t.Run("missing seal is an invalid verdict, not an error", func(t *testing.T) {
		p := samplePack()
		verdict := VerifySeal(p, nil)
		assert.False(t, verdict.Valid)
		assert.Contains(t, verdict.Errors, "pack has no seal")
	})
}

func TestSignatureStatusJSON(t *testing.T) {
	b, err := json.Marshal(map[string]SignatureStatus{
		"valid":    SignatureValid,
		"invalid":  SignatureInvalid,
		"unsigned": SignatureUnsigned,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"valid":true,"invalid":false,"unsigned":"unsigned"}`, string(b))
}
