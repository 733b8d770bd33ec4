package handler

import (
	"strings"
	"time"

	"veritas/internal/legalhold"
	id "veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
)

// IssueHoldRequest is the HTTP request body for POST /holds.
type IssueHoldRequest struct {
	CaseID   string       `json:"caseId"`
	EntityID string       `json:"entityId"`
	Scope    ScopeRequest `json:"scope"`
	IssuedBy string       `json:"issuedBy"`
	Reason   string       `json:"reason"`
}

// ScopeRequest describes what the hold freezes.
type ScopeRequest struct {
	DocumentIDs []string   `json:"documentIds"`
	Categories  []string   `json:"categories"`
	DateFrom    *time.Time `json:"dateFrom"`
	DateTo      *time.Time `json:"dateTo"`
}

// Validate validates the request. Scope emptiness and date-range shape are
// enforced by the service, which owns those rules.
// Implements the Validator interface for httputil.DecodeAndPrepare.
func (r *IssueHoldRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.CaseID = strings.TrimSpace(r.CaseID)
	if r.CaseID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "caseId is required")
	}
	return nil
}

// ToHold converts the validated request to a domain hold for the org.
func (r *IssueHoldRequest) ToHold(orgID id.OrgID) legalhold.Hold {
	documentIDs := make([]id.DocumentID, len(r.Scope.DocumentIDs))
	for i, d := range r.Scope.DocumentIDs {
		documentIDs[i] = id.DocumentID(d)
	}
	return legalhold.Hold{
		OrgID:    orgID,
		CaseID:   r.CaseID,
		EntityID: r.EntityID,
		Scope: legalhold.Scope{
			DocumentIDs: documentIDs,
			Categories:  r.Scope.Categories,
			DateFrom:    r.Scope.DateFrom,
			DateTo:      r.Scope.DateTo,
		},
		IssuedBy: id.ActorID(r.IssuedBy),
		Reason:   r.Reason,
	}
}

// CheckRequest is the HTTP request body for POST /holds/check.
type CheckRequest struct {
	DocumentID   string    `json:"documentId"`
	Category     string    `json:"category"`
	DocumentDate time.Time `json:"documentDate"`
	Action       string    `json:"action"`
}

// Validate validates the request.
func (r *CheckRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.DocumentID) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "documentId is required")
	}
	r.Action = strings.TrimSpace(r.Action)
	if r.Action == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "action is required")
	}
	return nil
}
