// Package audit provides the append-mostly event log behind the match
// decision trail and manual overrides. Events are written to an outbox table
// in the same transaction as the change they describe and relayed to Kafka by
// a background worker; nothing outside the decision policy, propagator, and
// override service writes here.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action names what happened. The set is closed so consumers can route on it.
type Action string

const (
	ActionResolutionDecided Action = "resolution.decided"
	ActionPersonCreated     Action = "person.created"
	ActionPersonMerged      Action = "person.merged"
	ActionPlaceReclassified Action = "place.reclassified"
	ActionStatusComputed    Action = "status.computed"
	ActionStatusOverridden  Action = "status.overridden"
	ActionReviewRecorded    Action = "review.recorded"
)

// Event is one audit record. Subject is the entity the event is about; Actor
// is empty for system-generated events.
type Event struct {
	ID        uuid.UUID
	Action    Action
	Subject   string
	Actor     string
	RequestID string
	Detail    string // free-form JSON fragment, already marshalled by the emitter
	Timestamp time.Time
}
