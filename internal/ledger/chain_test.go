package ledger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildChain(t *testing.T, payloads ...any) []Entry {
	t.Helper()
	var entries []Entry
	prev := ""
	for i, p := range payloads {
		hash, err := ComputeEntryHash(p, prev)
		require.NoError(t, err)
		entries = append(entries, Entry{
			Seq:          int64(i),
			Hash:         hash,
			PreviousHash: prev,
			Payload:      p,
		})
		prev = hash
	}
	return entries
}

func samplePayloads() []any {
	return []any{
		map[string]any{"action": "consent_granted", "userId": "u-1"},
		map[string]any{"action": "consent_revoked", "userId": "u-1"},
		map[string]any{"action": "user_deleted", "userId": "u-2"},
		map[string]any{"action": "export_requested", "userId": "u-3"},
	}
}

func TestComputeEntryHash(t *testing.T) {
	t.Run("is deterministic", func(t *testing.T) {
		h1, err := ComputeEntryHash(map[string]any{"a": 1, "b": 2}, "")
		require.NoError(t, err)
		h2, err := ComputeEntryHash(map[string]any{"b": 2, "a": 1}, "")
		require.NoError(t, err)
		assert.Equal(t, h1, h2)
		assert.Len(t, h1, 64)
		assert.Equal(t, h1, strings.ToLower(h1))
	})

	t.Run("incorporates the previous hash", func(t *testing.T) {
		payload := map[string]any{"a": 1}
		h1, err := ComputeEntryHash(payload, "")
		require.NoError(t, err)
		h2, err := ComputeEntryHash(payload, h1)
		require.NoError(t, err)
		assert.NotEqual(t, h1, h2)
	})

	t.Run("rejects uncanonicalizable payloads", func(t *testing.T) {
		_, err := ComputeEntryHash(struct{}{}, "")
		require.Error(t, err)
	})
}

func TestVerifyChain(t *testing.T) {
	t.Run("fresh chain verifies valid", func(t *testing.T) {
		entries := buildChain(t, samplePayloads()...)
		verdict := VerifyChain(entries)
		assert.True(t, verdict.Valid)
		assert.Nil(t, verdict.BrokenAt)
	})

	t.Run("empty chain is valid", func(t *testing.T) {
		assert.True(t, VerifyChain(nil).Valid)
	})

	t.Run("mutated payload breaks at its index", func(t *testing.T) {
		entries := buildChain(t, samplePayloads()...)
		entries[2].Payload = map[string]any{"action": "consent_granted", "userId": "attacker"}

		verdict := VerifyChain(entries)
		require.False(t, verdict.Valid)
		require.NotNil(t, verdict.BrokenAt)
		assert.Equal(t, 2, *verdict.BrokenAt)
	})

	t.Run("deleted entry breaks at the gap", func(t *testing.T) {
		entries := buildChain(t, samplePayloads()...)
		entries = append(entries[:1], entries[2:]...)

		verdict := VerifyChain(entries)
		require.False(t, verdict.Valid)
		require.NotNil(t, verdict.BrokenAt)
		assert.Equal(t, 1, *verdict.BrokenAt)
	})

	t.Run("forged insertion breaks the chain", func(t *testing.T) {
		entries := buildChain(t, samplePayloads()...)
		forgedHash, err := ComputeEntryHash(map[string]any{"action": "forged"}, entries[1].Hash)
		require.NoError(t, err)
		forged := Entry{
			Hash:         forgedHash,
			PreviousHash: entries[1].Hash,
			Payload:      map[string]any{"action": "forged"},
		}
		entries = append(entries[:2], append([]Entry{forged}, entries[2:]...)...)

		verdict := VerifyChain(entries)
		require.False(t, verdict.Valid)
		require.NotNil(t, verdict.BrokenAt)
		// The forgery itself links cleanly; the break surfaces where the
		// original successor no longer points at its true predecessor.
		assert.Equal(t, 3, *verdict.BrokenAt)
	})

	t.Run("broken previousHash pointer breaks at its index", func(t *testing.T) {
		entries := buildChain(t, samplePayloads()...)
		entries[1].PreviousHash = GenesisSentinel

		verdict := VerifyChain(entries)
		require.False(t, verdict.Valid)
		require.NotNil(t, verdict.BrokenAt)
		assert.Equal(t, 1, *verdict.BrokenAt)
	})

	t.Run("tampered genesis previousHash breaks at zero", func(t *testing.T) {
		entries := buildChain(t, samplePayloads()...)
		entries[0].PreviousHash = "deadbeef"

		verdict := VerifyChain(entries)
		require.False(t, verdict.Valid)
		require.NotNil(t, verdict.BrokenAt)
		assert.Equal(t, 0, *verdict.BrokenAt)
	})
}
