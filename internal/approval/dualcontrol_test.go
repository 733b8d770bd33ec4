package approval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bindingKey = []byte("approval-binding-key-for-testing")

func sampleRequest() Request {
	return Request{
		ActionID:    "act-7781",
		ActionType:  ActionPaymentDisbursement,
		EntityID:    "vendor-19",
		RequestedBy: "alice",
		AmountCents: 250_000,
		Currency:    "EUR",
	}
}

func approvalFrom(t *testing.T, actionID, approverID string) Approval {
	t.Helper()
	hash, err := ComputeApprovalHash(bindingKey, actionID, approverID)
	require.NoError(t, err)
	return Approval{ActionID: actionID, ApproverID: approverID, ApprovalHash: hash}
}

func TestValidateDualControl(t *testing.T) {
	t.Run("one valid independent approval authorizes", func(t *testing.T) {
		d := ValidateDualControl(sampleRequest(), []Approval{
			approvalFrom(t, "act-7781", "bob"),
		}, bindingKey)
		assert.True(t, d.Authorized)
		assert.Empty(t, d.Reason)
	})

	t.Run("zero approvals is unauthorized", func(t *testing.T) {
		d := ValidateDualControl(sampleRequest(), nil, bindingKey)
		assert.False(t, d.Authorized)
		assert.Equal(t, "requires at least one independent approval", d.Reason)
	})

	t.Run("self-approval is forbidden", func(t *testing.T) {
		d := ValidateDualControl(sampleRequest(), []Approval{
			approvalFrom(t, "act-7781", "alice"),
		}, bindingKey)
		assert.False(t, d.Authorized)
		assert.Equal(t, "self-approval forbidden", d.Reason)
	})

	t.Run("self-approval hidden among valid approvals still fails", func(t *testing.T) {
		d := ValidateDualControl(sampleRequest(), []Approval{
			approvalFrom(t, "act-7781", "bob"),
			approvalFrom(t, "act-7781", "alice"),
		}, bindingKey)
		assert.False(t, d.Authorized)
		assert.Equal(t, "self-approval forbidden", d.Reason)
	})

	t.Run("mismatched action id is unauthorized", func(t *testing.T) {
		d := ValidateDualControl(sampleRequest(), []Approval{
			approvalFrom(t, "act-9999", "bob"),
		}, bindingKey)
		assert.False(t, d.Authorized)
		assert.Equal(t, "action ID mismatch", d.Reason)
	})

	t.Run("tampered approval hash is unauthorized", func(t *testing.T) {
		a := approvalFrom(t, "act-7781", "bob")
		flipped := "0"
		if a.ApprovalHash[len(a.ApprovalHash)-1] == '0' {
			flipped = "1"
		}
		a.ApprovalHash = a.ApprovalHash[:len(a.ApprovalHash)-1] + flipped
		// A re-sign under another approver's identity is the other realistic attack:
		forged := approvalFrom(t, "act-7781", "carol")
		forged.ApproverID = "bob"

		for _, bad := range []Approval{a, forged} {
			d := ValidateDualControl(sampleRequest(), []Approval{bad}, bindingKey)
			assert.False(t, d.Authorized)
			assert.Equal(t, "hash verification failed", d.Reason)
		}
	})

	t.Run("rules are checked in declared order", func(t *testing.T) {
		// Self-approval outranks an action mismatch elsewhere in the set.
		d := ValidateDualControl(sampleRequest(), []Approval{
			approvalFrom(t, "act-9999", "bob"),
			approvalFrom(t, "act-7781", "alice"),
		}, bindingKey)
		assert.Equal(t, "self-approval forbidden", d.Reason)
	})
}

func TestRequiresDualControl(t *testing.T) {
	for _, action := range DualControlActions() {
		assert.True(t, RequiresDualControl(action), string(action))
	}
	assert.False(t, RequiresDualControl(ActionType("read-report")))
	assert.Len(t, DualControlActions(), 6)
}

func TestComputeApprovalHash(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		h1, err := ComputeApprovalHash(bindingKey, "a", "b")
		require.NoError(t, err)
		h2, err := ComputeApprovalHash(bindingKey, "a", "b")
		require.NoError(t, err)
		assert.Equal(t, h1, h2)
	})

	t.Run("binds both action and approver", func(t *testing.T) {
		base, err := ComputeApprovalHash(bindingKey, "a", "b")
		require.NoError(t, err)
		other, err := ComputeApprovalHash(bindingKey, "a", "c")
		require.NoError(t, err)
		assert.NotEqual(t, base, other)
		other, err = ComputeApprovalHash(bindingKey, "x", "b")
		require.NoError(t, err)
		assert.NotEqual(t, base, other)
	})

	t.Run("key-dependent", func(t *testing.T) {
		h1, err := ComputeApprovalHash(bindingKey, "a", "b")
		require.NoError(t, err)
		h2, err := ComputeApprovalHash([]byte("a different binding key value"), "a", "b")
		require.NoError(t, err)
		assert.NotEqual(t, h1, h2)
	})
}
