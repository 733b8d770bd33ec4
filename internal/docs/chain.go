// Package docs verifies hash-linked document revision histories.
package docs

import (
	"sort"

	"veritas/internal/ledger"
)

// ComputeVersionHash hashes document content against the previous
// revision's content hash. The construction is identical to the ledger's
// entry hash so both chains share one fixed discipline.
func ComputeVersionHash(content any, previousVersionHash string) (string, error) {
	return ledger.ComputeEntryHash(content, previousVersionHash)
}

// VerifyVersionChain examines revisions in ascending version order: each
// revision's previousVersionHash must equal the immediately preceding
// revision's contentHash, and the first revision must have no predecessor
// (an empty previousVersionHash or the explicit genesis sentinel, same as
// the ledger). The first break reports its version number. The input slice
// is not mutated.
func VerifyVersionChain(versions []Version) ChainVerdict {
	ordered := make([]Version, len(versions))
	copy(ordered, versions)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Version < ordered[j].Version })

	for i := range ordered {
		if i == 0 {
			if prev := ordered[i].PreviousVersionHash; prev != "" && prev != ledger.GenesisSentinel {
				return brokenAt(ordered[i].Version)
			}
			continue
		}
		if ordered[i].PreviousVersionHash != ordered[i-1].ContentHash {
			return brokenAt(ordered[i].Version)
		}
	}
	return ChainVerdict{Valid: true}
}

func brokenAt(version int) ChainVerdict {
	return ChainVerdict{Valid: false, BrokenAt: &version}
}
