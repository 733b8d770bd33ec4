package docs

import (
	"time"

	id "veritas/pkg/domain"
)

// Version is one immutable revision of a document. ContentHash links to the
// previous revision's hash exactly the way ledger entries link, so edits,
// removals, and reordered history are detectable.
type Version struct {
	OrgID               id.OrgID      `json:"orgId"`
	DocumentID          id.DocumentID `json:"documentId"`
	Category            string        `json:"category,omitempty"`
	Version             int           `json:"version"`
	ContentHash         string        `json:"contentHash"`
	PreviousVersionHash string        `json:"previousVersionHash,omitempty"` // empty for version 1
	AuthorID            id.ActorID    `json:"authorId"`
	CreatedAt           time.Time     `json:"createdAt"`
}

// ChainVerdict reports whether a document's revision history still links.
// BrokenAt carries the first version number whose link is broken.
type ChainVerdict struct {
	Valid    bool `json:"valid"`
	BrokenAt *int `json:"brokenAtVersion,omitempty"`
}
