// Package keys implements key-age governance: purpose-specific rotation
// thresholds, age audits over key inventories, and tamper-detectable
// artifacts for rotation and disaster-recovery events.
package keys

import (
	"time"

	"veritas/pkg/canonical"
)

// maxAgeDays maps each key purpose to the maximum age, in whole days,
// before rotation is overdue. The table is policy, fixed at build time.
var maxAgeDays = map[Purpose]int{
	PurposeEvidenceSigning:   365,
	PurposeAuditSigning:      365,
	PurposeIdentityVault:     180,
	PurposeAPIEncryption:     90,
	PurposeSessionSigning:    30,
	PurposePaymentEncryption: 90,
}

// MaxAgeDays returns the rotation threshold for a purpose. ok is false for
// purposes the policy table does not know.
func MaxAgeDays(p Purpose) (int, bool) {
	days, ok := maxAgeDays[p]
	return days, ok
}

// KeyAgeDays returns the key's age in whole days at now, measured from the
// last rotation, or from creation if the key was never rotated.
func KeyAgeDays(key Metadata, now time.Time) int {
	since := key.CreatedAt
	if key.RotatedAt != nil {
		since = *key.RotatedAt
	}
	age := now.Sub(since)
	if age < 0 {
		return 0
	}
	return int(age.Hours() / 24)
}

// IsExpired reports whether the key's age exceeds its purpose's threshold.
// Keys with an unknown purpose count as expired: a key nobody can place in
// the policy table must not quietly pass an audit.
func IsExpired(key Metadata, now time.Time) bool {
	limit, ok := maxAgeDays[key.Purpose]
	if !ok {
		return true
	}
	return KeyAgeDays(key, now) > limit
}

// AuditAges evaluates every key whose status is not retired and reports all
// threshold violations. An empty inventory passes.
func AuditAges(inventory []Metadata, now time.Time) AgeAudit {
	audit := AgeAudit{Passed: true}
	for _, key := range inventory {
		if key.Status == StatusRetired {
			continue
		}
		limit, known := maxAgeDays[key.Purpose]
		age := KeyAgeDays(key, now)
		switch {
		case !known:
			audit.Violations = append(audit.Violations, Violation{
				KeyID:   key.KeyID,
				Purpose: key.Purpose,
				AgeDays: age,
				Reason:  "unknown purpose",
			})
		case age > limit:
			audit.Violations = append(audit.Violations, Violation{
				KeyID:      key.KeyID,
				Purpose:    key.Purpose,
				AgeDays:    age,
				MaxAgeDays: limit,
				Reason:     "maximum age exceeded",
			})
		}
	}
	audit.Passed = len(audit.Violations) == 0
	return audit
}

// CollectRotationArtifact produces a deterministic record of a rotation
// event using the same canonicalize-then-hash discipline as the hash chain:
// any change to the event changes the digest.
func CollectRotationArtifact(event RotationEvent) (Artifact, error) {
	payload := map[string]any{
		"keyId":         string(event.KeyID),
		"previousKeyId": string(event.PreviousKeyID),
		"purpose":       string(event.Purpose),
		"rotatedAt":     event.RotatedAt.UTC().Format(time.RFC3339Nano),
		"rotatedBy":     event.RotatedBy,
		"rotationCount": event.RotationCount,
	}
	digest, err := canonical.Digest(payload)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Digest: digest, Payload: payload}, nil
}

// GenerateDRSimulationArtifact produces a deterministic record of a
// disaster-recovery drill outcome.
func GenerateDRSimulationArtifact(result DRSimulationResult) (Artifact, error) {
	payload := map[string]any{
		"scenario":        result.Scenario,
		"simulatedAt":     result.SimulatedAt.UTC().Format(time.RFC3339Nano),
		"keysRestored":    result.KeysRestored,
		"recoverySeconds": result.RecoverySeconds,
		"success":         result.Success,
		"notes":           result.Notes,
	}
	digest, err := canonical.Digest(payload)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Digest: digest, Payload: payload}, nil
}
