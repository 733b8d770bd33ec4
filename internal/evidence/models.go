package evidence

import (
	"time"

	id "veritas/pkg/domain"
)

// Artifact is one item in a pack's manifest. SHA256 is the artifact's
// content digest, computed by whoever produced the blob; the engine never
// reads blobs itself.
type Artifact struct {
	Name     string `json:"name"`
	SHA256   string `json:"sha256"`
	BlobPath string `json:"blobPath"`
	Category string `json:"category"`
}

// Pack is a sealed or sealable evidence package recorded when a terminal
// business event occurs. Artifact order is significant: the Merkle root
// certifies the manifest order as well as its contents.
type Pack struct {
	OrgID          id.OrgID   `json:"orgId"`
	AppID          string     `json:"appId"`
	EventType      string     `json:"eventType"`
	EntityType     string     `json:"entityType"`
	SubjectID      string     `json:"subjectId"`
	Period         string     `json:"period"`
	GeneratedAt    time.Time  `json:"generatedAt"`
	TerminalAction string     `json:"terminalAction"`
	Artifacts      []Artifact `json:"artifacts"`

	// Seal is attached once at seal time and excluded from the pack digest.
	Seal *Envelope `json:"seal,omitempty"`
}

// StoredPack is a pack at rest. The ID is assigned on intake and lives
// outside the sealed surface, so renaming or re-filing a pack never
// invalidates its seal.
type StoredPack struct {
	ID   id.PackID `json:"id"`
	Pack Pack      `json:"pack"`
}

// Envelope is the seal attached to a pack: pure functions of the pack's
// non-seal fields plus an optional keyed signature.
type Envelope struct {
	PackDigest    string    `json:"packDigest"`
	MerkleRoot    string    `json:"merkleRoot"`
	SealedAt      time.Time `json:"sealedAt"`
	HMACSignature string    `json:"hmacSignature,omitempty"`
	HMACKeyID     id.KeyID  `json:"hmacKeyId,omitempty"`
}

// SignatureStatus reports the outcome of the seal's HMAC check. Unsigned is
// distinct from a failed check so that stripping a signature and re-sealing
// (a downgrade) stays visible to auditors comparing against an expected
// level of assurance.
type SignatureStatus int

const (
	// SignatureUnsigned means no signature was ever attached, or no key was
	// supplied to check one.
	SignatureUnsigned SignatureStatus = iota
	// SignatureValid means a signature was present and verified under the
	// supplied key.
	SignatureValid
	// SignatureInvalid means a signature was present and did not verify.
	SignatureInvalid
)

// MarshalJSON renders the tri-state the way downstream tooling consumes it:
// true, false, or the literal string "unsigned".
func (s SignatureStatus) MarshalJSON() ([]byte, error) {
	switch s {
	case SignatureValid:
		return []byte("true"), nil
	case SignatureInvalid:
		return []byte("false"), nil
	default:
		return []byte(`"unsigned"`), nil
	}
}

// SealVerdict is the structured result of a seal verification. Valid is the
// conjunction of every check that applies; the sub-checks identify the
// failure class (field mutation vs. manifest tampering vs. bad signature).
type SealVerdict struct {
	Valid             bool            `json:"valid"`
	DigestMatch       bool            `json:"digestMatch"`
	MerkleMatch       bool            `json:"merkleMatch"`
	SignatureVerified SignatureStatus `json:"signatureVerified"`
	Errors            []string        `json:"errors,omitempty"`
}
