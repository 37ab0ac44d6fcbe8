// Package geocode manages the geocoding work queue. Geocoding itself happens
// in external workers; this module hands out claims, records results, and
// tracks retry state so a flaky upstream never wedges the queue.
package geocode

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the queue state machine. Claimed jobs that never report back
// return to pending once their claim expires.
type JobStatus string

const (
	StatusPending JobStatus = "pending"
	StatusClaimed JobStatus = "claimed"
	StatusDone    JobStatus = "done"
	StatusFailed  JobStatus = "failed"
)

// Job is one geocoding request for a place's address.
type Job struct {
	ID                uuid.UUID
	PlaceID           uuid.UUID
	AddressNormalized string
	Status            JobStatus
	Attempts          int
	NextEligibleAt    time.Time
	ClaimedBy         string
	ClaimedAt         *time.Time
	LastError         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Result is what a worker reports back for a claimed job.
type Result struct {
	Latitude  float64
	Longitude float64
}
