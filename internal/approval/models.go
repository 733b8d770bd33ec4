package approval

// ActionType classifies a financial or administrative action.
type ActionType string

const (
	ActionPaymentDisbursement ActionType = "payment-disbursement"
	ActionRefund              ActionType = "refund"
	ActionAccountAdjustment   ActionType = "account-adjustment"
	ActionKeyRotation         ActionType = "key-rotation"
	ActionRateChange          ActionType = "rate-change"
	ActionLedgerCorrection    ActionType = "ledger-correction"
)

// dualControlActions is the fixed set of action types that may not execute
// without at least one independent approver.
var dualControlActions = map[ActionType]struct{}{
	ActionPaymentDisbursement: {},
	ActionRefund:              {},
	ActionAccountAdjustment:   {},
	ActionKeyRotation:         {},
	ActionRateChange:          {},
	ActionLedgerCorrection:    {},
}

// RequiresDualControl reports whether the action type needs dual-control
// authorization. Exposed so callers can gate before ever assembling an
// approval set.
func RequiresDualControl(t ActionType) bool {
	_, ok := dualControlActions[t]
	return ok
}

// DualControlActions returns the declared action types requiring dual
// control, for configuration surfaces and documentation endpoints.
func DualControlActions() []ActionType {
	return []ActionType{
		ActionPaymentDisbursement,
		ActionRefund,
		ActionAccountAdjustment,
		ActionKeyRotation,
		ActionRateChange,
		ActionLedgerCorrection,
	}
}

// Request is a pending sensitive action awaiting independent approval.
type Request struct {
	ActionID    string     `json:"actionId"`
	ActionType  ActionType `json:"actionType"`
	EntityID    string     `json:"entityId"`
	RequestedBy string     `json:"requestedBy"`
	AmountCents int64      `json:"amount"`
	Currency    string     `json:"currency"`
}

// Approval is one approver's attestation over a specific action. The hash
// binds {actionId, approverId} under a service-held key, so an approval
// cannot be replayed for a different action or attributed to a different
// approver.
type Approval struct {
	ActionID     string `json:"actionId"`
	ApproverID   string `json:"approverId"`
	ApprovalHash string `json:"approvalHash"`
}

// Decision is the structured outcome of dual-control validation.
// Unauthorized is an expected business outcome, reported with its reason.
type Decision struct {
	Authorized bool   `json:"authorized"`
	Reason     string `json:"reason,omitempty"`
}
