package geocode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"trapper/internal/normalize"
	dErrors "trapper/pkg/domain-errors"
	"trapper/pkg/requestcontext"
)

const (
	maxAttempts   = 5
	retryBackoff  = time.Hour
	claimDeadline = 15 * time.Minute
	maxBatchSize  = 100
)

// Service runs the claim/record contract for external geocoding workers.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Enqueue queues a place address for geocoding. Re-enqueueing a place with a
// live job is a no-op.
func (s *Service) Enqueue(ctx context.Context, placeID uuid.UUID, rawAddress string) (*Job, error) {
	if placeID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "place_id is required")
	}
	normalized := normalize.Address(rawAddress)
	if normalized == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "address is empty after normalization")
	}

	now := requestcontext.Now(ctx)
	job := &Job{
		ID:                uuid.New(),
		PlaceID:           placeID,
		AddressNormalized: normalized,
		Status:            StatusPending,
		NextEligibleAt:    now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	created, err := s.store.Enqueue(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("enqueue geocode job: %w", err)
	}
	if !created {
		s.logger.DebugContext(ctx, "geocode job already queued", "place_id", placeID)
	}
	return job, nil
}

// Claim hands out a batch of eligible jobs to a worker. Expired claims from
// crashed workers are recycled first.
func (s *Service) Claim(ctx context.Context, workerID string, limit int) ([]*Job, error) {
	if workerID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "worker_id is required")
	}
	if limit <= 0 || limit > maxBatchSize {
		limit = maxBatchSize
	}

	now := requestcontext.Now(ctx)
	released, err := s.store.ReleaseExpired(ctx, now.Add(-claimDeadline))
	if err != nil {
		return nil, fmt.Errorf("release expired claims: %w", err)
	}
	if released > 0 {
		s.logger.InfoContext(ctx, "recycled expired geocode claims", "count", released)
	}

	jobs, err := s.store.ClaimBatch(ctx, workerID, limit, now)
	if err != nil {
		return nil, fmt.Errorf("claim geocode batch: %w", err)
	}
	return jobs, nil
}

// RecordSuccess writes the worker's coordinates onto the place and completes
// the job.
func (s *Service) RecordSuccess(ctx context.Context, jobID uuid.UUID, workerID string, result Result) error {
	job, err := s.claimedJob(ctx, jobID, workerID)
	if err != nil {
		return err
	}

	if err := s.store.SetCoordinates(ctx, job.PlaceID, result.Latitude, result.Longitude); err != nil {
		return fmt.Errorf("set place coordinates: %w", err)
	}

	job.Status = StatusDone
	job.LastError = ""
	job.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("complete geocode job: %w", err)
	}
	return nil
}

// RecordFailure counts a failed attempt. The job backs off linearly per
// attempt and fails permanently once maxAttempts is reached.
func (s *Service) RecordFailure(ctx context.Context, jobID uuid.UUID, workerID, cause string) error {
	job, err := s.claimedJob(ctx, jobID, workerID)
	if err != nil {
		return err
	}

	now := requestcontext.Now(ctx)
	job.Attempts++
	job.LastError = cause
	job.ClaimedBy = ""
	job.ClaimedAt = nil
	job.UpdatedAt = now

	if job.Attempts >= maxAttempts {
		job.Status = StatusFailed
		s.logger.WarnContext(ctx, "geocode job failed permanently",
			"job_id", job.ID, "place_id", job.PlaceID, "attempts", job.Attempts, "cause", cause)
	} else {
		job.Status = StatusPending
		job.NextEligibleAt = now.Add(time.Duration(job.Attempts) * retryBackoff)
	}

	if err := s.store.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("record geocode failure: %w", err)
	}
	return nil
}

func (s *Service) claimedJob(ctx context.Context, jobID uuid.UUID, workerID string) (*Job, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get geocode job: %w", err)
	}
	if job.Status != StatusClaimed {
		return nil, dErrors.New(dErrors.CodeConflict, "job is not claimed")
	}
	if job.ClaimedBy != workerID {
		return nil, dErrors.New(dErrors.CodeConflict, "job is claimed by another worker")
	}
	return job, nil
}
