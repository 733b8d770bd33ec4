// Package ledger implements the hash-chain engine: linking append-only
// records via content hashing and verifying that a stored sequence still
// forms an unbroken chain.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"veritas/pkg/canonical"
)

// GenesisSentinel stands in for the previous hash of the first entry in a
// chain. It is part of the hash construction: changing it re-roots every
// existing chain.
var GenesisSentinel = strings.Repeat("0", 64)

// ComputeEntryHash returns the SHA-256 digest, lowercase hex, of the
// canonical payload bytes concatenated with previousHash (or the genesis
// sentinel when previousHash is empty).
func ComputeEntryHash(payload any, previousHash string) (string, error) {
	canon, err := canonical.Canonicalize(payload)
	if err != nil {
		return "", err
	}
	if previousHash == "" {
		previousHash = GenesisSentinel
	}
	h := sha256.New()
	h.Write(canon)
	h.Write([]byte(previousHash))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyChain walks entries in order, recomputing each hash from the stored
// payload and the previous entry's stored hash. The first mismatch (a
// mutated payload, a broken previousHash pointer, an inserted forgery, or a
// deletion that shifts alignment) is reported via BrokenAt. Data problems
// never produce an error, only an invalid verdict.
func VerifyChain(entries []Entry) Verdict {
	for i := range entries {
		prev := GenesisSentinel
		if i > 0 {
			prev = entries[i-1].Hash
			if entries[i].PreviousHash != entries[i-1].Hash {
				return broken(i)
			}
		} else if entries[i].PreviousHash != "" && entries[i].PreviousHash != GenesisSentinel {
			return broken(i)
		}

		computed, err := ComputeEntryHash(entries[i].Payload, prev)
		if err != nil || computed != entries[i].Hash {
			return broken(i)
		}
	}
	return Verdict{Valid: true}
}

func broken(i int) Verdict {
	return Verdict{Valid: false, BrokenAt: &i}
}
