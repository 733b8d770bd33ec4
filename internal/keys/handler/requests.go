package handler

import (
	"strings"
	"time"

	"veritas/internal/approval"
	"veritas/internal/keys"
	id "veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
)

// RegisterKeyRequest is the HTTP request body for POST /keys.
type RegisterKeyRequest struct {
	KeyID     string     `json:"keyId"`
	Purpose   string     `json:"purpose"`
	Algorithm string     `json:"algorithm"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

// Validate validates the request.
// Implements the Validator interface for httputil.DecodeAndPrepare.
func (r *RegisterKeyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.KeyID = strings.TrimSpace(r.KeyID)
	if r.KeyID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "keyId is required")
	}
	if strings.TrimSpace(r.Purpose) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "purpose is required")
	}
	return nil
}

// ToMetadata converts the validated request to key metadata.
func (r *RegisterKeyRequest) ToMetadata() keys.Metadata {
	return keys.Metadata{
		KeyID:     id.KeyID(r.KeyID),
		Purpose:   keys.Purpose(r.Purpose),
		Algorithm: r.Algorithm,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
	}
}

// RotateKeyRequest is the HTTP request body for POST /keys/{keyID}/rotate.
type RotateKeyRequest struct {
	NewKeyID  string            `json:"newKeyId"`
	RotatedBy string            `json:"rotatedBy"`
	Approvals []ApprovalRequest `json:"approvals"`
}

// ApprovalRequest is one approver's attestation supplied with a rotation.
type ApprovalRequest struct {
	ActionID     string `json:"actionId"`
	ApproverID   string `json:"approverId"`
	ApprovalHash string `json:"approvalHash"`
}

// Validate validates the request.
func (r *RotateKeyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.NewKeyID = strings.TrimSpace(r.NewKeyID)
	if r.NewKeyID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "newKeyId is required")
	}
	return nil
}

// ToApprovals converts supplied approvals to domain approvals. Nil when the
// caller expects the service to load recorded approvals itself.
func (r *RotateKeyRequest) ToApprovals() []approval.Approval {
	if len(r.Approvals) == 0 {
		return nil
	}
	approvals := make([]approval.Approval, len(r.Approvals))
	for i, a := range r.Approvals {
		approvals[i] = approval.Approval{
			ActionID:     a.ActionID,
			ApproverID:   a.ApproverID,
			ApprovalHash: a.ApprovalHash,
		}
	}
	return approvals
}

// DRSimulationRequest is the HTTP request body for POST /keys/dr-simulations.
type DRSimulationRequest struct {
	Scenario        string    `json:"scenario"`
	SimulatedAt     time.Time `json:"simulatedAt"`
	KeysRestored    int       `json:"keysRestored"`
	RecoverySeconds int       `json:"recoverySeconds"`
	Success         bool      `json:"success"`
	Notes           string    `json:"notes"`
}

// Validate validates the request.
func (r *DRSimulationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.Scenario) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "scenario is required")
	}
	return nil
}

// ToResult converts the validated request to a domain simulation result.
func (r *DRSimulationRequest) ToResult() keys.DRSimulationResult {
	return keys.DRSimulationResult{
		Scenario:        r.Scenario,
		SimulatedAt:     r.SimulatedAt,
		KeysRestored:    r.KeysRestored,
		RecoverySeconds: r.RecoverySeconds,
		Success:         r.Success,
		Notes:           r.Notes,
	}
}
