package handler

import (
	"strings"

	"veritas/internal/approval"
	dErrors "veritas/pkg/domain-errors"
)

// RecordRequest is the HTTP request body for POST /approvals.
type RecordRequest struct {
	ActionID   string `json:"actionId"`
	ApproverID string `json:"approverId"`
}

// Validate validates the request. ApproverID may be omitted when the actor
// header identifies the approver.
// Implements the Validator interface for httputil.DecodeAndPrepare.
func (r *RecordRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.ActionID = strings.TrimSpace(r.ActionID)
	if r.ActionID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "actionId is required")
	}
	return nil
}

// AuthorizeRequest is the HTTP request body for POST /approvals/authorize.
type AuthorizeRequest struct {
	ActionID    string            `json:"actionId"`
	ActionType  string            `json:"actionType"`
	EntityID    string            `json:"entityId"`
	RequestedBy string            `json:"requestedBy"`
	AmountCents int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Approvals   []ApprovalPayload `json:"approvals"`
}

// ApprovalPayload is one supplied approval; omitted approvals are loaded
// from the recorded set for the action.
type ApprovalPayload struct {
	ActionID     string `json:"actionId"`
	ApproverID   string `json:"approverId"`
	ApprovalHash string `json:"approvalHash"`
}

// Validate validates the request.
func (r *AuthorizeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.ActionID = strings.TrimSpace(r.ActionID)
	if r.ActionID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "actionId is required")
	}
	if strings.TrimSpace(r.ActionType) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "actionType is required")
	}
	if strings.TrimSpace(r.RequestedBy) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "requestedBy is required")
	}
	return nil
}

// ToRequest converts the validated request to a domain request.
func (r *AuthorizeRequest) ToRequest() approval.Request {
	return approval.Request{
		ActionID:    r.ActionID,
		ActionType:  approval.ActionType(r.ActionType),
		EntityID:    r.EntityID,
		RequestedBy: r.RequestedBy,
		AmountCents: r.AmountCents,
		Currency:    r.Currency,
	}
}

// ToApprovals converts supplied approvals, or nil to use the recorded set.
func (r *AuthorizeRequest) ToApprovals() []approval.Approval {
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
