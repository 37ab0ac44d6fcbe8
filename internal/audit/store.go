package audit

import "context"

// Store persists events to the outbox. Claiming marks a batch as in-flight
// for the relay worker; Mark finalizes each event after the broker accepts it.
type Store interface {
	Append(ctx context.Context, event Event) error
	ClaimPending(ctx context.Context, limit int) ([]Event, error)
	MarkPublished(ctx context.Context, eventID string) error
	MarkFailed(ctx context.Context, eventID string) error
}
