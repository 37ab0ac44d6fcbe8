package status

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"trapper/internal/domain"
	dErrors "trapper/pkg/domain-errors"
	"trapper/pkg/requestcontext"
)

func newTestService(store Store) (*Service, *stubSink) {
	sink := &stubSink{}
	return NewService(store, sink, slog.New(slog.DiscardHandler)), sink
}

func TestRecordResultSingleCondition(t *testing.T) {
	store := NewInMemoryStore()
	svc, _ := newTestService(store)
	catID := uuid.New()

	results, err := svc.RecordResult(frozenContext(), ResultInput{
		CatID:        catID,
		TestType:     "fiv",
		ResultRaw:    "Positive",
		SourceSystem: "clinic_hq",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, domain.ConditionFIV, results[0].Condition)
	require.True(t, results[0].Positive)
	require.Equal(t, testNow, results[0].TestedAt)
}

func TestRecordResultComboSplits(t *testing.T) {
	store := NewInMemoryStore()
	svc, _ := newTestService(store)
	catID := uuid.New()

	results, err := svc.RecordResult(frozenContext(), ResultInput{
		CatID:        catID,
		TestType:     "fiv_felv_combo",
		ResultRaw:    "negative/positive",
		SourceSystem: "clinic_hq",
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.Equal(t, domain.ConditionFIV, results[0].Condition)
	require.False(t, results[0].Positive)
	require.Equal(t, domain.ConditionFeLV, results[1].Condition)
	require.True(t, results[1].Positive)
	require.Len(t, store.Results(), 2)
}

func TestRecordResultRejectsMalformedCombo(t *testing.T) {
	svc, _ := newTestService(NewInMemoryStore())

	_, err := svc.RecordResult(frozenContext(), ResultInput{
		CatID:     uuid.New(),
		TestType:  "fiv_felv_combo",
		ResultRaw: "positive",
	})
	require.Error(t, err)
	require.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
}

func TestRecordResultRejectsUnknownTestType(t *testing.T) {
	svc, _ := newTestService(NewInMemoryStore())

	_, err := svc.RecordResult(frozenContext(), ResultInput{
		CatID:     uuid.New(),
		TestType:  "rabies",
		ResultRaw: "positive",
	})
	require.Error(t, err)
	require.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
}

func TestOverrideRequiresActor(t *testing.T) {
	svc, _ := newTestService(NewInMemoryStore())

	_, err := svc.Override(frozenContext(), uuid.New(), domain.ConditionFIV, domain.StatusPerpetual)
	require.Error(t, err)
	require.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
}

func TestOverrideRejectsComputedStates(t *testing.T) {
	svc, _ := newTestService(NewInMemoryStore())
	ctx := requestcontext.WithActor(frozenContext(), "coordinator@example.org")

	_, err := svc.Override(ctx, uuid.New(), domain.ConditionFIV, domain.StatusConfirmedActive)
	require.Error(t, err)
	require.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
}

func TestOverridePinsStateAndPreservesEvidence(t *testing.T) {
	store := NewInMemoryStore()
	svc, sink := newTestService(store)
	placeID := uuid.New()

	require.NoError(t, store.UpsertStatus(context.Background(), &domain.PlaceStatus{
		ID: uuid.New(), PlaceID: placeID, Condition: domain.ConditionFeLV,
		State: domain.StatusConfirmedActive, PositiveCount: 4, CatCount: 2,
		SetBy: "system", UpdatedAt: testNow,
	}))

	ctx := requestcontext.WithActor(frozenContext(), "coordinator@example.org")
	result, err := svc.Override(ctx, placeID, domain.ConditionFeLV, domain.StatusFalseFlag)
	require.NoError(t, err)
	require.Equal(t, domain.StatusFalseFlag, result.State)
	require.Equal(t, "coordinator@example.org", result.SetBy)
	require.Equal(t, 4, result.PositiveCount)
	require.Equal(t, 2, result.CatCount)

	stored, err := store.GetStatus(context.Background(), placeID, domain.ConditionFeLV)
	require.NoError(t, err)
	require.Equal(t, domain.StatusFalseFlag, stored.State)
	require.Len(t, sink.events, 1)
}
