package geocode

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	dErrors "trapper/pkg/domain-errors"
	"trapper/pkg/requestcontext"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func frozenContext() context.Context {
	return requestcontext.WithTime(context.Background(), testNow)
}

func newTestService(store Store) *Service {
	return NewService(store, slog.New(slog.DiscardHandler))
}

func TestEnqueueIsIdempotentPerPlace(t *testing.T) {
	store := NewInMemoryStore()
	svc := newTestService(store)
	placeID := uuid.New()

	first, err := svc.Enqueue(frozenContext(), placeID, "114 Oak Street, Austin TX")
	require.NoError(t, err)
	require.Equal(t, StatusPending, first.Status)

	_, err = svc.Enqueue(frozenContext(), placeID, "114 Oak St")
	require.NoError(t, err)

	jobs, err := svc.Claim(frozenContext(), "worker-1", 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
}

func TestClaimPartitionsBetweenWorkers(t *testing.T) {
	store := NewInMemoryStore()
	svc := newTestService(store)

	for range 3 {
		_, err := svc.Enqueue(frozenContext(), uuid.New(), "200 Elm St")
		require.NoError(t, err)
	}

	first, err := svc.Claim(frozenContext(), "worker-1", 2)
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := svc.Claim(frozenContext(), "worker-2", 2)
	require.NoError(t, err)
	require.Len(t, second, 1)

	seen := map[uuid.UUID]bool{}
	for _, job := range append(first, second...) {
		require.False(t, seen[job.ID])
		seen[job.ID] = true
	}
}

func TestRecordSuccessWritesCoordinates(t *testing.T) {
	store := NewInMemoryStore()
	svc := newTestService(store)
	placeID := uuid.New()

	_, err := svc.Enqueue(frozenContext(), placeID, "114 Oak St")
	require.NoError(t, err)
	jobs, err := svc.Claim(frozenContext(), "worker-1", 1)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	err = svc.RecordSuccess(frozenContext(), jobs[0].ID, "worker-1", Result{Latitude: 30.2672, Longitude: -97.7431})
	require.NoError(t, err)

	lat, lng, ok := store.Coordinates(placeID)
	require.True(t, ok)
	require.Equal(t, 30.2672, lat)
	require.Equal(t, -97.7431, lng)

	job, err := store.GetJob(context.Background(), jobs[0].ID)
	require.NoError(t, err)
	require.Equal(t, StatusDone, job.Status)
}

func TestRecordSuccessRejectsWrongWorker(t *testing.T) {
	store := NewInMemoryStore()
	svc := newTestService(store)

	_, err := svc.Enqueue(frozenContext(), uuid.New(), "114 Oak St")
	require.NoError(t, err)
	jobs, err := svc.Claim(frozenContext(), "worker-1", 1)
	require.NoError(t, err)

	err = svc.RecordSuccess(frozenContext(), jobs[0].ID, "worker-2", Result{Latitude: 1, Longitude: 1})
	require.Equal(t, dErrors.CodeConflict, dErrors.CodeOf(err))
}

func TestRecordFailureBacksOffThenFailsPermanently(t *testing.T) {
	store := NewInMemoryStore()
	svc := newTestService(store)
	placeID := uuid.New()

	_, err := svc.Enqueue(frozenContext(), placeID, "114 Oak St")
	require.NoError(t, err)

	now := testNow
	var jobID uuid.UUID
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ctx := requestcontext.WithTime(context.Background(), now)
		jobs, err := svc.Claim(ctx, "worker-1", 1)
		require.NoError(t, err)
		require.Len(t, jobs, 1, "attempt %d", attempt)
		jobID = jobs[0].ID

		require.NoError(t, svc.RecordFailure(ctx, jobID, "worker-1", "upstream timeout"))

		job, err := store.GetJob(context.Background(), jobID)
		require.NoError(t, err)
		require.Equal(t, attempt, job.Attempts)

		if attempt < maxAttempts {
			require.Equal(t, StatusPending, job.Status)
			require.Equal(t, now.Add(time.Duration(attempt)*retryBackoff), job.NextEligibleAt)
			// Not eligible before the backoff elapses.
			early, err := svc.Claim(requestcontext.WithTime(context.Background(), now.Add(time.Minute)), "worker-1", 1)
			require.NoError(t, err)
			require.Empty(t, early)
			now = job.NextEligibleAt
		} else {
			require.Equal(t, StatusFailed, job.Status)
			require.Equal(t, "upstream timeout", job.LastError)
		}
	}

	// Permanently failed jobs never come back.
	jobs, err := svc.Claim(requestcontext.WithTime(context.Background(), now.AddDate(0, 0, 7)), "worker-1", 10)
	require.NoError(t, err)
	require.Empty(t, jobs)
}

func TestClaimRecyclesExpiredClaims(t *testing.T) {
	store := NewInMemoryStore()
	svc := newTestService(store)

	_, err := svc.Enqueue(frozenContext(), uuid.New(), "114 Oak St")
	require.NoError(t, err)

	jobs, err := svc.Claim(frozenContext(), "worker-1", 1)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	// The worker crashes; after the claim deadline another worker gets the job.
	later := requestcontext.WithTime(context.Background(), testNow.Add(claimDeadline+time.Minute))
	recycled, err := svc.Claim(later, "worker-2", 1)
	require.NoError(t, err)
	require.Len(t, recycled, 1)
	require.Equal(t, jobs[0].ID, recycled[0].ID)
}
