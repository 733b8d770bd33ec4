// Package legalhold gates destructive document operations behind active
// litigation holds. The gate is advisory and pure: callers supply the
// candidate holds and the evaluation time, and act on the verdict.
package legalhold

import (
	"time"

	id "veritas/pkg/domain"
)

// destructive actions are the only ones a hold ever blocks; export and
// other non-destructive reads always proceed.
func destructive(a Action) bool {
	return a == ActionDelete || a == ActionModify
}

// Active reports whether the hold is in force at the given time.
func (h Hold) Active(at time.Time) bool {
	return h.ReleasedAt == nil || h.ReleasedAt.After(at)
}

// Matches reports whether the hold's scope covers the document, by ID
// membership, category membership, or date-range containment.
func (h Hold) Matches(documentID id.DocumentID, category string, documentDate time.Time) bool {
	for _, d := range h.Scope.DocumentIDs {
		if d == documentID {
			return true
		}
	}
	for _, c := range h.Scope.Categories {
		if c == category {
			return true
		}
	}
	if h.Scope.DateFrom != nil && h.Scope.DateTo != nil {
		if !documentDate.Before(*h.Scope.DateFrom) && !documentDate.After(*h.Scope.DateTo) {
			return true
		}
	}
	return false
}

// IsBlocked evaluates the action against every supplied hold at the given
// time. The first matching, still-active hold blocks delete and modify;
// released holds block nothing.
func IsBlocked(documentID id.DocumentID, category string, documentDate time.Time, action Action, holds []Hold, at time.Time) GateVerdict {
	if !destructive(action) {
		return GateVerdict{}
	}
	for i := range holds {
		if holds[i].Active(at) && holds[i].Matches(documentID, category, documentDate) {
			holdID := holds[i].HoldID
			return GateVerdict{Blocked: true, HoldID: &holdID}
		}
	}
	return GateVerdict{}
}
