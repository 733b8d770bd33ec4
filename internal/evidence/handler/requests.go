package handler

import (
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	"veritas/internal/evidence"
	id "veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
)

// CreatePackRequest is the HTTP request body for POST /evidence/packs.
type CreatePackRequest struct {
	AppID          string            `json:"appId"`
	EventType      string            `json:"eventType"`
	EntityType     string            `json:"entityType"`
	SubjectID      string            `json:"subjectId"`
	Period         string            `json:"period"`
	GeneratedAt    time.Time         `json:"generatedAt"`
	TerminalAction string            `json:"terminalAction"`
	Artifacts      []ArtifactRequest `json:"artifacts"`
}

// ArtifactRequest is one manifest item in a create-pack request.
type ArtifactRequest struct {
	Name     string `json:"name"`
	SHA256   string `json:"sha256"`
	BlobPath string `json:"blobPath"`
	Category string `json:"category"`
}

// Validate validates the request.
// Implements the Validator interface for httputil.DecodeAndPrepare.
func (r *CreatePackRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.EventType = strings.TrimSpace(r.EventType)
	if r.EventType == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "eventType is required")
	}
	if r.GeneratedAt.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "generatedAt is required")
	}

	for i, artifact := range r.Artifacts {
		if strings.TrimSpace(artifact.Name) == "" {
			return dErrors.Newf(dErrors.CodeInvalidInput, "artifacts[%d].name is required", i)
		}
		if len(artifact.SHA256) != 64 || !govalidator.IsHexadecimal(artifact.SHA256) {
			return dErrors.Newf(dErrors.CodeInvalidInput, "artifacts[%d].sha256 must be a 64-char hex digest", i)
		}
	}
	return nil
}

// ToPack converts the validated request to a domain pack for the org.
func (r *CreatePackRequest) ToPack(orgID id.OrgID) evidence.Pack {
	artifacts := make([]evidence.Artifact, len(r.Artifacts))
	for i, a := range r.Artifacts {
		artifacts[i] = evidence.Artifact{
			Name:     a.Name,
			SHA256:   strings.ToLower(a.SHA256),
			BlobPath: a.BlobPath,
			Category: a.Category,
		}
	}
	return evidence.Pack{
		OrgID:          orgID,
		AppID:          r.AppID,
		EventType:      r.EventType,
		EntityType:     r.EntityType,
		SubjectID:      r.SubjectID,
		Period:         r.Period,
		GeneratedAt:    r.GeneratedAt,
		TerminalAction: r.TerminalAction,
		Artifacts:      artifacts,
	}
}

// SealPackRequest is the HTTP request body for POST /evidence/packs/{packID}/seal.
type SealPackRequest struct {
	KeyID string `json:"keyId"`
}

// Validate validates the request. An empty keyId produces an unsigned seal.
func (r *SealPackRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return nil
}
