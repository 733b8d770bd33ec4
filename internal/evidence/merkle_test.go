package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestComputeMerkleRoot(t *testing.T) {
	t.Run("deterministic for a fixed ordered input", func(t *testing.T) {
		hashes := []string{leaf("a"), leaf("b"), leaf("c")}
		assert.Equal(t, ComputeMerkleRoot(hashes), ComputeMerkleRoot(hashes))
	})

	t.Run("single leaf is its own root", func(t *testing.T) {
		h := leaf("only")
		assert.Equal(t, h, ComputeMerkleRoot([]string{h}))
	})

	t.Run("order sensitivity", func(t *testing.T) {
		forward := ComputeMerkleRoot([]string{leaf("a"), leaf("b"), leaf("c")})
		reversed := ComputeMerkleRoot([]string{leaf("c"), leaf("b"), leaf("a")})
		assert.NotEqual(t, forward, reversed)
	})

	t.Run("pair hashes concatenated hex", func(t *testing.T) {
		l, r := leaf("l"), leaf("r")
		sum := sha256.Sum256([]byte(l + r))
		assert.Equal(t, hex.EncodeToString(sum[:]), ComputeMerkleRoot([]string{l, r}))
	})

	t.Run("odd level duplicates the last hash", func(t *testing.T) {
		a, b, c := leaf("a"), leaf("b"), leaf("c")
		// Three leaves behave as [a b c c].
		assert.Equal(t,
			ComputeMerkleRoot([]string{a, b, c, c}),
			ComputeMerkleRoot([]string{a, b, c}),
		)
	})

	t.Run("root shape is stable across sizes", func(t *testing.T) {
		var hashes []string
		for i := 0; i < 9; i++ {
			hashes = append(hashes, leaf(fmt.Sprintf("artifact-%d", i)))
			root := ComputeMerkleRoot(hashes)
			require.Len(t, root, 64)
		}
	})

	t.Run("does not mutate its input", func(t *testing.T) {
		hashes := []string{leaf("a"), leaf("b"), leaf("c")}
		ComputeMerkleRoot(hashes)
		assert.Equal(t, []string{leaf("a"), leaf("b"), leaf("c")}, hashes)
	})

	t.Run("empty manifest has a fixed root", func(t *testing.T) {
		sum := sha256.Sum256(nil)
		assert.Equal(t, hex.EncodeToString(sum[:]), ComputeMerkleRoot(nil))
	})
}
