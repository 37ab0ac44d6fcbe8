package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"trapper/pkg/requestcontext"
)

func TestEmitStampsMetadata(t *testing.T) {
	store := NewInMemoryStore()
	publisher := NewPublisher(store)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithRequestID(ctx, "req-123")
	ctx = requestcontext.WithActor(ctx, "coordinator@example.org")

	require.NoError(t, publisher.Emit(ctx, Event{
		Action:  ActionPersonMerged,
		Subject: "person-1",
	}))

	events := store.Events()
	require.Len(t, events, 1)
	require.NotEqual(t, uuid.Nil, events[0].ID)
	require.Equal(t, now, events[0].Timestamp)
	require.Equal(t, "req-123", events[0].RequestID)
	require.Equal(t, "coordinator@example.org", events[0].Actor)
}

func TestEmitKeepsExplicitFields(t *testing.T) {
	store := NewInMemoryStore()
	publisher := NewPublisher(store)

	id := uuid.New()
	stamped := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithActor(context.Background(), "someone-else")

	require.NoError(t, publisher.Emit(ctx, Event{
		ID:        id,
		Action:    ActionStatusComputed,
		Subject:   "place-1",
		Actor:     "system",
		Timestamp: stamped,
	}))

	events := store.Events()
	require.Len(t, events, 1)
	require.Equal(t, id, events[0].ID)
	require.Equal(t, stamped, events[0].Timestamp)
	require.Equal(t, "system", events[0].Actor)
}

func TestOutboxClaimSemantics(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	first := Event{ID: uuid.New(), Action: ActionPersonCreated, Subject: "a"}
	second := Event{ID: uuid.New(), Action: ActionPersonCreated, Subject: "b"}
	require.NoError(t, store.Append(ctx, first))
	require.NoError(t, store.Append(ctx, second))

	claimed, err := store.ClaimPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 2)

	// Claimed events are invisible to a second relay pass.
	again, err := store.ClaimPending(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, again)

	// A failed publish returns the event to pending; a published one is gone.
	require.NoError(t, store.MarkFailed(ctx, first.ID.String()))
	require.NoError(t, store.MarkPublished(ctx, second.ID.String()))

	retry, err := store.ClaimPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, retry, 1)
	require.Equal(t, first.ID, retry[0].ID)
}
