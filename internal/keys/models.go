package keys

import (
	"time"

	id "veritas/pkg/domain"
)

// Purpose classifies what a managed key protects. Each purpose carries its
// own maximum age before rotation is overdue.
type Purpose string

const (
	PurposeEvidenceSigning   Purpose = "evidence-signing"
	PurposeAuditSigning      Purpose = "audit-signing"
	PurposeIdentityVault     Purpose = "identity-vault"
	PurposeAPIEncryption     Purpose = "api-encryption"
	PurposeSessionSigning    Purpose = "session-signing"
	PurposePaymentEncryption Purpose = "payment-encryption"
)

// Status is a key's lifecycle state. Retired is terminal; retired keys are
// kept for decrypting old material but excluded from age audits.
type Status string

const (
	StatusActive  Status = "active"
	StatusPending Status = "pending"
	StatusRetired Status = "retired"
)

// Metadata describes a managed key. The key material itself never passes
// through this package.
type Metadata struct {
	KeyID         id.KeyID   `json:"keyId"`
	Purpose       Purpose    `json:"purpose"`
	Algorithm     string     `json:"algorithm"`
	CreatedAt     time.Time  `json:"createdAt"`
	RotatedAt     *time.Time `json:"rotatedAt,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	Status        Status     `json:"status"`
	RotationCount int        `json:"rotationCount"`
}

// Violation is one key found past its purpose's maximum age (or carrying a
// purpose the policy table does not know).
type Violation struct {
	KeyID      id.KeyID `json:"keyId"`
	Purpose    Purpose  `json:"purpose"`
	AgeDays    int      `json:"ageDays"`
	MaxAgeDays int      `json:"maxAgeDays"`
	Reason     string   `json:"reason"`
}

// AgeAudit is the structured outcome of auditing every active key.
type AgeAudit struct {
	Passed     bool        `json:"passed"`
	Violations []Violation `json:"violations,omitempty"`
}

// RotationEvent records a completed key rotation for artifact generation.
type RotationEvent struct {
	KeyID         id.KeyID  `json:"keyId"`
	PreviousKeyID id.KeyID  `json:"previousKeyId,omitempty"`
	Purpose       Purpose   `json:"purpose"`
	RotatedAt     time.Time `json:"rotatedAt"`
	RotatedBy     string    `json:"rotatedBy"`
	RotationCount int       `json:"rotationCount"`
}

// DRSimulationResult records the outcome of a disaster-recovery key
// restoration drill.
type DRSimulationResult struct {
	Scenario        string    `json:"scenario"`
	SimulatedAt     time.Time `json:"simulatedAt"`
	KeysRestored    int       `json:"keysRestored"`
	RecoverySeconds int       `json:"recoverySeconds"`
	Success         bool      `json:"success"`
	Notes           string    `json:"notes,omitempty"`
}

// Artifact is a deterministic, tamper-detectable record of a lifecycle
// event: any change to the underlying payload changes the digest.
type Artifact struct {
	Digest  string         `json:"digest"`
	Payload map[string]any `json:"payload"`
}
