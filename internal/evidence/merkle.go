package evidence

import (
	"crypto/sha256"
	"encoding/hex"
)

// ComputeMerkleRoot builds a binary hash tree bottom-up over the ordered
// artifact digests and returns the root, lowercase hex. Parents are
// SHA-256 over the concatenated hex strings of their children. When a
// level has an odd count the last hash is duplicated upward; this rule is
// fixed, since changing it would silently re-root every sealed pack.
//
// The root is order-sensitive on purpose: the same digest set in a
// different order certifies a different manifest.
func ComputeMerkleRoot(hashes []string) string {
	if len(hashes) == 0 {
		sum := sha256.Sum256(nil)
		return hex.EncodeToString(sum[:])
	}

	level := make([]string, len(hashes))
	copy(level, hashes)

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := level[:0:0]
		for i := 0; i < len(level); i += 2 {
			sum := sha256.Sum256([]byte(level[i] + level[i+1]))
			next = append(next, hex.EncodeToString(sum[:]))
		}
		level = next
	}
	return level[0]
}
