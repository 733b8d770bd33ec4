// Package approval implements dual-control authorization for sensitive
// financial actions: no such action executes on a single person's say-so.
package approval

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"veritas/pkg/canonical"
)

// ComputeApprovalHash derives the keyed binding of an approval to its
// action and approver. Approvals are stored with this hash and re-verified
// at validation time; a tampered actionId or approverId no longer matches.
func ComputeApprovalHash(bindingKey []byte, actionID, approverID string) (string, error) {
	canon, err := canonical.Canonicalize(map[string]any{
		"actionId":   actionID,
		"approverId": approverID,
	})
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, bindingKey)
	mac.Write(canon)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// ValidateDualControl checks an accumulated approval set against a request.
// Rules are evaluated in order and the first failure decides the outcome:
//
//  1. at least one approval must be present;
//  2. no approver may be the requester;
//  3. every approval must name the request's action;
//  4. every approval hash must re-verify under the binding key.
//
// An unauthorized decision is a business outcome, never an error.
func ValidateDualControl(req Request, approvals []Approval, bindingKey []byte) Decision {
	if len(approvals) == 0 {
		return Decision{Reason: "requires at least one independent approval"}
	}

	for _, a := range approvals {
		if a.ApproverID == req.RequestedBy {
			return Decision{Reason: "self-approval forbidden"}
		}
	}

	for _, a := range approvals {
		if a.ActionID != req.ActionID {
			return Decision{Reason: "action ID mismatch"}
		}
	}

	for _, a := range approvals {
		expected, err := ComputeApprovalHash(bindingKey, a.ActionID, a.ApproverID)
		if err != nil || !hmac.Equal([]byte(expected), []byte(a.ApprovalHash)) {
			return Decision{Reason: "hash verification failed"}
		}
	}

	return Decision{Authorized: true}
}
