package ledger

import (
	"time"

	id "veritas/pkg/domain"
)

// Entry is one link in an append-only audit chain. Hash covers the
// canonical payload bytes concatenated with the previous entry's hash
// (or the genesis sentinel), so mutating any stored payload, reordering,
// inserting, or deleting entries is detectable on verification.
type Entry struct {
	OrgID        id.OrgID  `json:"orgId"`
	Seq          int64     `json:"seq"`
	Hash         string    `json:"hash"`
	PreviousHash string    `json:"previousHash,omitempty"` // empty for the genesis entry
	Payload      any       `json:"payload"`
	RecordedAt   time.Time `json:"recordedAt"`
}

// Verdict is the structured result of a chain verification. Invalid is an
// expected business outcome, not an error: callers log and act on it.
type Verdict struct {
	Valid    bool `json:"valid"`
	BrokenAt *int `json:"brokenAtIndex,omitempty"`
}
