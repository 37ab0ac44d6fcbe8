package audit

import (
	"context"

	"github.com/google/uuid"

	"trapper/pkg/requestcontext"
)

// Publisher captures structured audit events. It stamps ID, time, and request
// correlation so emitters only describe what happened.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.Actor == "" {
		event.Actor = requestcontext.Actor(ctx)
	}
	return p.store.Append(ctx, event)
}
