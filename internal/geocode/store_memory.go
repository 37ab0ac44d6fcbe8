package geocode

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type coordinates struct {
	latitude  float64
	longitude float64
}

// InMemoryStore mirrors the postgres store for tests and local runs.
type InMemoryStore struct {
	mu sync.Mutex

	jobs   map[uuid.UUID]*Job
	coords map[uuid.UUID]coordinates
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		jobs:   make(map[uuid.UUID]*Job),
		coords: make(map[uuid.UUID]coordinates),
	}
}

func (s *InMemoryStore) Enqueue(_ context.Context, job *Job) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.jobs {
		if existing.PlaceID == job.PlaceID &&
			(existing.Status == StatusPending || existing.Status == StatusClaimed) {
			return false, nil
		}
	}
	clone := *job
	s.jobs[job.ID] = &clone
	return true, nil
}

func (s *InMemoryStore) ClaimBatch(_ context.Context, workerID string, limit int, now time.Time) ([]*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var eligible []*Job
	for _, job := range s.jobs {
		if job.Status == StatusPending && !job.NextEligibleAt.After(now) {
			eligible = append(eligible, job)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].NextEligibleAt.Before(eligible[j].NextEligibleAt)
	})
	if len(eligible) > limit {
		eligible = eligible[:limit]
	}

	claimed := make([]*Job, 0, len(eligible))
	for _, job := range eligible {
		job.Status = StatusClaimed
		job.ClaimedBy = workerID
		at := now
		job.ClaimedAt = &at
		job.UpdatedAt = now
		clone := *job
		claimed = append(claimed, &clone)
	}
	return claimed, nil
}

func (s *InMemoryStore) GetJob(_ context.Context, id uuid.UUID) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *job
	return &clone, nil
}

func (s *InMemoryStore) UpdateJob(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; !ok {
		return ErrNotFound
	}
	clone := *job
	s.jobs[job.ID] = &clone
	return nil
}

func (s *InMemoryStore) ReleaseExpired(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	released := 0
	for _, job := range s.jobs {
		if job.Status == StatusClaimed && job.ClaimedAt != nil && job.ClaimedAt.Before(cutoff) {
			job.Status = StatusPending
			job.ClaimedBy = ""
			job.ClaimedAt = nil
			released++
		}
	}
	return released, nil
}

func (s *InMemoryStore) SetCoordinates(_ context.Context, placeID uuid.UUID, latitude, longitude float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coords[placeID] = coordinates{latitude, longitude}
	return nil
}

// Coordinates reports the stored result for a place, for assertions.
func (s *InMemoryStore) Coordinates(placeID uuid.UUID) (float64, float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.coords[placeID]
	return c.latitude, c.longitude, ok
}
