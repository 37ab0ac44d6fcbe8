//go:build integration

package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"trapper/pkg/testutil/containers"
)

func TestRelayDrainsOutboxToKafka(t *testing.T) {
	ctx := context.Background()

	pg := containers.NewPostgresContainer(t)
	t.Cleanup(func() {
		_ = pg.DB.Close()
		_ = pg.Container.Terminate(context.Background())
	})
	rp := containers.NewRedpandaContainer(t)
	t.Cleanup(func() {
		_ = rp.Container.Terminate(context.Background())
	})

	const topic = "trapper.audit"
	producer, err := kgo.NewClient(kgo.SeedBrokers(rp.Brokers))
	require.NoError(t, err)
	t.Cleanup(producer.Close)

	store := NewPostgresStore(pg.DB)
	first := Event{
		ID:        uuid.New(),
		Action:    ActionPersonCreated,
		Subject:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
	}
	second := Event{
		ID:        uuid.New(),
		Action:    ActionStatusComputed,
		Subject:   uuid.NewString(),
		Detail:    `{"condition":"fiv"}`,
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, store.Append(ctx, first))
	require.NoError(t, store.Append(ctx, second))

	relay := NewRelay(store, producer, topic, slog.New(slog.DiscardHandler))
	require.NoError(t, relay.relayOnce(ctx))

	// The outbox is drained.
	pending, err := store.ClaimPending(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending)

	consumer := rp.Consumer(t, topic)
	deadline, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	actions := make(map[string]bool)
	for len(actions) < 2 {
		fetches := consumer.PollFetches(deadline)
		require.Empty(t, fetches.Errors())
		fetches.EachRecord(func(record *kgo.Record) {
			var payload struct {
				ID     string `json:"id"`
				Action string `json:"action"`
			}
			require.NoError(t, json.Unmarshal(record.Value, &payload))
			actions[payload.Action] = true
		})
	}
	require.True(t, actions[string(ActionPersonCreated)])
	require.True(t, actions[string(ActionStatusComputed)])
}
