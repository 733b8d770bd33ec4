package legalhold

import (
	"time"

	id "veritas/pkg/domain"
)

// Action is an operation attempted against a held document. Only the
// destructive ones are ever blocked.
type Action string

const (
	ActionDelete Action = "delete"
	ActionModify Action = "modify"
	ActionExport Action = "export"
	ActionRead   Action = "read"
)

// Scope describes which documents a hold covers: explicit IDs, whole
// categories, or a creation-date range. A hold may combine the three; a
// document matching any of them is in scope. An entirely empty scope
// matches nothing; holds must be explicit about what they freeze.
type Scope struct {
	DocumentIDs []id.DocumentID `json:"documentIds,omitempty"`
	Categories  []string        `json:"categories,omitempty"`
	DateFrom    *time.Time      `json:"dateFrom,omitempty"`
	DateTo      *time.Time      `json:"dateTo,omitempty"`
}

// Hold is a legal directive freezing documents pending a matter. Active
// while ReleasedAt is absent or still in the future.
type Hold struct {
	HoldID     id.HoldID  `json:"holdId"`
	OrgID      id.OrgID   `json:"orgId"`
	CaseID     string     `json:"caseId"`
	EntityID   string     `json:"entityId"`
	Scope      Scope      `json:"scope"`
	IssuedBy   id.ActorID `json:"issuedBy"`
	IssuedAt   time.Time  `json:"issuedAt"`
	Reason     string     `json:"reason"`
	ReleasedAt *time.Time `json:"releasedAt,omitempty"`
}

// GateVerdict reports whether an action is blocked and, if so, by which
// hold, so callers can surface the matter to the requester.
type GateVerdict struct {
	Blocked bool       `json:"blocked"`
	HoldID  *id.HoldID `json:"holdId,omitempty"`
}
