package audit_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "veritas/pkg/platform/audit"
	"veritas/pkg/platform/audit/store/memory"
)

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error {
	return errors.New("disk on fire")
}

func TestPublisher(t *testing.T) {
	ctx := context.Background()

	t.Run("compliance events are written synchronously", func(t *testing.T) {
		store := memory.NewInMemoryStore()
		inbox := make(chan audit.Event, 8)
		p := audit.NewPublisher(store, audit.WithInbox(inbox))

		err := p.Emit(ctx, audit.Event{
			OrgID:   "org-1",
			Subject: "pack-9",
			Action:  string(audit.EventPackSealed),
		})
		require.NoError(t, err)

		events, err := store.ListByOrg(ctx, "org-1")
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, audit.CategoryCompliance, events[0].Category)
		assert.False(t, events[0].Timestamp.IsZero())
		assert.Empty(t, inbox)
	})

	t.Run("compliance persist failure fails the emit", func(t *testing.T) {
		p := audit.NewPublisher(failingStore{})
		err := p.Emit(ctx, audit.Event{Action: string(audit.EventHoldIssued)})
		require.Error(t, err)
	})

	t.Run("ops events route through the inbox", func(t *testing.T) {
		store := memory.NewInMemoryStore()
		inbox := make(chan audit.Event, 8)
		p := audit.NewPublisher(store, audit.WithInbox(inbox))

		err := p.Emit(ctx, audit.Event{
			OrgID:  "org-1",
			Action: string(audit.EventChainEntryAppended),
		})
		require.NoError(t, err)

		events, err := store.ListByOrg(ctx, "org-1")
		require.NoError(t, err)
		assert.Empty(t, events)
		assert.Len(t, inbox, 1)
	})

	t.Run("full inbox drops ops events without failing", func(t *testing.T) {
		store := memory.NewInMemoryStore()
		inbox := make(chan audit.Event) // unbuffered, nobody reading
		p := audit.NewPublisher(store, audit.WithInbox(inbox))

		err := p.Emit(ctx, audit.Event{Action: string(audit.EventChainVerified)})
		assert.NoError(t, err)
	})

	t.Run("category is derived from action, not trusted from caller", func(t *testing.T) {
		store := memory.NewInMemoryStore()
		inbox := make(chan audit.Event, 8)
		p := audit.NewPublisher(store, audit.WithInbox(inbox))

		err := p.Emit(ctx, audit.Event{
			OrgID:    "org-1",
			Action:   string(audit.EventSealVerificationFailed),
			Category: audit.CategoryOperations, // lies
		})
		require.NoError(t, err)

		events, err := store.ListByOrg(ctx, "org-1")
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, audit.CategoryCompliance, events[0].Category)
	})

	t.Run("requires an action", func(t *testing.T) {
		p := audit.NewPublisher(memory.NewInMemoryStore())
		assert.Error(t, p.Emit(ctx, audit.Event{}))
	})
}
