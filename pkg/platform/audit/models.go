package audit

import (
	"context"
	"time"

	id "veritas/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose. This
// enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// These require tamper-proof storage and long retention.
	// Examples: seals generated, verification failures, holds issued.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring and
	// forensics. Examples: decrypt failures, key-age violations, rejected
	// dual-control attempts.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. These can be sampled with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Kept
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	OrgID     id.OrgID
	Subject   string // entity the action concerns (chain, pack, key, hold, document)
	Action    string
	Decision  string // outcome where one applies ("valid", "blocked", "rejected")
	Reason    string
	RequestID string
	ActorID   string
}

type AuditEvent string

const (
	// Ledger events
	EventChainEntryAppended      AuditEvent = "chain_entry_appended"
	EventChainVerified           AuditEvent = "chain_verified"
	EventChainVerificationFailed AuditEvent = "chain_verification_failed"

	// Evidence events
	EventPackSealed             AuditEvent = "pack_sealed"
	EventSealVerified           AuditEvent = "seal_verified"
	EventSealVerificationFailed AuditEvent = "seal_verification_failed"

	// Vault events
	EventIdentityEncrypted     AuditEvent = "identity_encrypted"
	EventIdentityDecrypted     AuditEvent = "identity_decrypted"
	EventIdentityDecryptFailed AuditEvent = "identity_decrypt_failed"

	// Key lifecycle events
	EventKeyRotated      AuditEvent = "key_rotated"
	EventKeyAgeViolation AuditEvent = "key_age_violation"
	EventDRSimRecorded   AuditEvent = "dr_simulation_recorded"

	// Dual control events
	EventDualControlAuthorized AuditEvent = "dual_control_authorized"
	EventDualControlRejected   AuditEvent = "dual_control_rejected"

	// RBAC events
	EventRoleGraphRejected AuditEvent = "role_graph_rejected"

	// Litigation hold events
	EventHoldIssued        AuditEvent = "hold_issued"
	EventHoldReleased      AuditEvent = "hold_released"
	EventHoldBlockedAction AuditEvent = "hold_blocked_action"

	// Document events
	EventDocumentVersionRecorded AuditEvent = "document_version_recorded"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	// Compliance events - tamper-proof storage, long retention
	EventChainVerificationFailed: CategoryCompliance,
	EventPackSealed:              CategoryCompliance,
	EventSealVerificationFailed:  CategoryCompliance,
	EventHoldIssued:              CategoryCompliance,
	EventHoldReleased:            CategoryCompliance,
	EventHoldBlockedAction:       CategoryCompliance,
	EventDualControlAuthorized:   CategoryCompliance,

	// Security events - SIEM and alerting
	EventIdentityDecryptFailed: CategorySecurity,
	EventKeyAgeViolation:       CategorySecurity,
	EventDualControlRejected:   CategorySecurity,
	EventRoleGraphRejected:     CategorySecurity,
	EventKeyRotated:            CategorySecurity,

	// Operations events - routine activity
	EventChainEntryAppended:      CategoryOperations,
	EventChainVerified:           CategoryOperations,
	EventSealVerified:            CategoryOperations,
	EventIdentityEncrypted:       CategoryOperations,
	EventIdentityDecrypted:       CategoryOperations,
	EventDRSimRecorded:           CategoryOperations,
	EventDocumentVersionRecorded: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events. Implementations decide whether that means a
// queryable table, an outbox for relay, or both.
type Store interface {
	Append(ctx context.Context, event Event) error
}
