package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Relay drains the outbox into Kafka. It is safe to run several relays at
// once; claiming is atomic and a failed publish returns the event to pending.
type Relay struct {
	store     Store
	client    *kgo.Client
	topic     string
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

func NewRelay(store Store, client *kgo.Client, topic string, logger *slog.Logger) *Relay {
	return &Relay{
		store:     store,
		client:    client,
		topic:     topic,
		logger:    logger,
		interval:  2 * time.Second,
		batchSize: 100,
	}
}

func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.relayOnce(ctx); err != nil {
				r.logger.ErrorContext(ctx, "audit relay pass failed", "error", err)
			}
		}
	}
}

type wirePayload struct {
	ID        string `json:"id"`
	Action    string `json:"action"`
	Subject   string `json:"subject"`
	Actor     string `json:"actor,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Detail    string `json:"detail,omitempty"`
	Timestamp string `json:"timestamp"`
}

func (r *Relay) relayOnce(ctx context.Context) error {
	events, err := r.store.ClaimPending(ctx, r.batchSize)
	if err != nil {
		return err
	}

	for _, event := range events {
		payload, err := json.Marshal(wirePayload{
			ID:        event.ID.String(),
			Action:    string(event.Action),
			Subject:   event.Subject,
			Actor:     event.Actor,
			RequestID: event.RequestID,
			Detail:    event.Detail,
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			// Unmarshalable events would wedge the outbox forever; log and
			// drop by marking published.
			r.logger.ErrorContext(ctx, "unencodable audit event", "event_id", event.ID, "error", err)
			_ = r.store.MarkPublished(ctx, event.ID.String())
			continue
		}

		record := &kgo.Record{
			Topic: r.topic,
			Key:   []byte(event.Subject),
			Value: payload,
		}
		if err := r.client.ProduceSync(ctx, record).FirstErr(); err != nil {
			r.logger.WarnContext(ctx, "audit publish failed, returning event to pending",
				"event_id", event.ID, "error", err)
			_ = r.store.MarkFailed(ctx, event.ID.String())
			continue
		}
		if err := r.store.MarkPublished(ctx, event.ID.String()); err != nil {
			return err
		}
	}
	return nil
}
