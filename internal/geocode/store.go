package geocode

import (
	"context"
	"time"

	"github.com/google/uuid"

	dErrors "trapper/pkg/domain-errors"
)

var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")

// Store is the persistence seam for the geocode queue.
type Store interface {
	// Enqueue inserts a job unless a live one already exists for the place.
	// Returns true when a new job was created.
	Enqueue(ctx context.Context, job *Job) (bool, error)

	// ClaimBatch atomically claims up to limit eligible pending jobs for the
	// worker. Two workers claiming concurrently never receive the same job.
	ClaimBatch(ctx context.Context, workerID string, limit int, now time.Time) ([]*Job, error)

	GetJob(ctx context.Context, id uuid.UUID) (*Job, error)

	// UpdateJob persists status, attempts, and retry state.
	UpdateJob(ctx context.Context, job *Job) error

	// ReleaseExpired returns claimed jobs older than cutoff to pending.
	ReleaseExpired(ctx context.Context, cutoff time.Time) (int, error)

	// SetCoordinates writes a geocoding result onto the place.
	SetCoordinates(ctx context.Context, placeID uuid.UUID, latitude, longitude float64) error
}
