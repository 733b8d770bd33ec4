// Package evidence implements the seal engine: sealing an artifact-bearing
// pack with a content digest, a Merkle root over its manifest, and an
// optional HMAC signature, and verifying all three later.
package evidence

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"veritas/pkg/canonical"
	id "veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
)

// SealOptions carries the seal-time inputs. HMACKey is optional; when
// present it must be accompanied by the key's identifier so verifiers know
// which secret to fetch.
type SealOptions struct {
	SealedAt time.Time
	HMACKey  []byte
	KeyID    id.KeyID
}

// timestampFormat is the fixed wire form for timestamps entering a hash
// or signature. UTC, RFC 3339 with nanoseconds.
const timestampFormat = time.RFC3339Nano

// packDigest computes the SHA-256 digest of the pack's canonical form,
// excluding the seal field itself.
func packDigest(p Pack) (string, error) {
	artifacts := make([]any, len(p.Artifacts))
	for i, a := range p.Artifacts {
		artifacts[i] = map[string]any{
			"name":     a.Name,
			"sha256":   a.SHA256,
			"blobPath": a.BlobPath,
			"category": a.Category,
		}
	}
	return canonical.Digest(map[string]any{
		"orgId":          string(p.OrgID),
		"appId":          p.AppID,
		"eventType":      p.EventType,
		"entityType":     p.EntityType,
		"subjectId":      p.SubjectID,
		"period":         p.Period,
		"generatedAt":    p.GeneratedAt.UTC().Format(timestampFormat),
		"terminalAction": p.TerminalAction,
		"artifacts":      artifacts,
	})
}

func artifactHashes(p Pack) []string {
	hashes := make([]string, len(p.Artifacts))
	for i, a := range p.Artifacts {
		hashes[i] = a.SHA256
	}
	return hashes
}

func signSeal(key []byte, digest, root string, sealedAt time.Time) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(digest))
	mac.Write([]byte(root))
	mac.Write([]byte(sealedAt.UTC().Format(timestampFormat)))
	return hex.EncodeToString(mac.Sum(nil))
}

// GenerateSeal computes the envelope for a finalized pack. The pack must be
// logically frozen before sealing; mutations afterwards are what VerifySeal
// exists to detect.
func GenerateSeal(p Pack, opts SealOptions) (Envelope, error) {
	if opts.SealedAt.IsZero() {
		return Envelope{}, dErrors.New(dErrors.CodeInvalidInput, "sealedAt is required")
	}
	if len(opts.HMACKey) > 0 && opts.KeyID == "" {
		return Envelope{}, dErrors.New(dErrors.CodeInvalidInput, "hmac key requires a key id")
	}

	digest, err := packDigest(p)
	if err != nil {
		return Envelope{}, err
	}
	root := ComputeMerkleRoot(artifactHashes(p))

	env := Envelope{
		PackDigest: digest,
		MerkleRoot: root,
		SealedAt:   opts.SealedAt.UTC(),
	}
	if len(opts.HMACKey) > 0 {
		env.HMACSignature = signSeal(opts.HMACKey, digest, root, opts.SealedAt)
		env.HMACKeyID = opts.KeyID
	}
	return env, nil
}

// VerifySeal recomputes digest and Merkle root from the pack's current
// state and compares them against the stored seal. A supplied HMAC key is
// checked against the stored signature when one exists; a pack that was
// never signed reports SignatureUnsigned, never SignatureValid. Data
// tampering yields an invalid verdict, not an error.
func VerifySeal(p Pack, hmacKey []byte) SealVerdict {
	verdict := SealVerdict{SignatureVerified: SignatureUnsigned}

	if p.Seal == nil {
		verdict.Errors = append(verdict.Errors, "pack has no seal")
		return verdict
	}

	digest, err := packDigest(p)
	if err != nil {
		verdict.Errors = append(verdict.Errors, "pack is not canonicalizable: "+err.Error())
		return verdict
	}
	verdict.DigestMatch = digest == p.Seal.PackDigest
	if !verdict.DigestMatch {
		verdict.Errors = append(verdict.Errors, "pack digest mismatch")
	}

	root := ComputeMerkleRoot(artifactHashes(p))
	verdict.MerkleMatch = root == p.Seal.MerkleRoot
	if !verdict.MerkleMatch {
		verdict.Errors = append(verdict.Errors, "merkle root mismatch")
	}

	signatureOK := true
	if p.Seal.HMACSignature != "" && len(hmacKey) > 0 {
		expected := signSeal(hmacKey, p.Seal.PackDigest, p.Seal.MerkleRoot, p.Seal.SealedAt)
		if hmac.Equal([]byte(expected), []byte(p.Seal.HMACSignature)) {
			verdict.SignatureVerified = SignatureValid
		} else {
			verdict.SignatureVerified = SignatureInvalid
			signatureOK = false
			verdict.Errors = append(verdict.Errors, "hmac signature invalid")
		}
	}

	verdict.Valid = verdict.DigestMatch && verdict.MerkleMatch && signatureOK
	return verdict
}
