package status

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"trapper/internal/audit"
	"trapper/internal/domain"
	"trapper/pkg/requestcontext"
)

type stubGate struct {
	listed map[uuid.UUID]bool
}

func (g *stubGate) PlaceListed(_ context.Context, placeID uuid.UUID) (bool, error) {
	return g.listed[placeID], nil
}

type stubSink struct {
	events []audit.Event
}

func (s *stubSink) Emit(_ context.Context, event audit.Event) error {
	s.events = append(s.events, event)
	return nil
}

var testNow = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		FIVWindow:  36 * 30 * 24 * time.Hour,
		FeLVWindow: 36 * 30 * 24 * time.Hour,
	}
}

func newTestPropagator(store Store, gate PlaceGate, sink AuditSink) *Propagator {
	return NewPropagator(store, gate, sink, slog.New(slog.DiscardHandler), nil, testConfig())
}

func frozenContext() context.Context {
	return requestcontext.WithTime(context.Background(), testNow)
}

func seedResidentCat(store *InMemoryStore, placeID uuid.UUID, confidence domain.ConfidenceLevel) uuid.UUID {
	catID := uuid.New()
	store.AddCat(&domain.Cat{ID: catID, Supersession: domain.Active()})
	store.AddEdge(&domain.Edge{
		ID: uuid.New(), SubjectID: catID, ObjectID: placeID,
		Relationship: domain.RelResidence, Evidence: domain.EvidenceVisitRecord,
		Confidence: confidence, UpdatedAt: testNow,
	})
	return catID
}

func seedPlace(store *InMemoryStore, kind domain.PlaceKind) uuid.UUID {
	id := uuid.New()
	store.AddPlace(&domain.Place{ID: id, Kind: kind, Supersession: domain.Active()})
	return id
}

func addPositive(store *InMemoryStore, catID uuid.UUID, condition domain.Condition, testedAt time.Time) {
	_ = store.InsertResult(context.Background(), &domain.TestResult{
		ID: uuid.New(), CatID: catID, Condition: condition,
		Positive: true, ResultRaw: "positive", TestedAt: testedAt,
	})
}

func TestPropagatorFreshPositiveConfirms(t *testing.T) {
	store := NewInMemoryStore()
	placeID := seedPlace(store, domain.PlaceResidential)
	catID := seedResidentCat(store, placeID, domain.ConfidenceHigh)
	addPositive(store, catID, domain.ConditionFIV, testNow.AddDate(0, -2, 0))

	sink := &stubSink{}
	stats, err := newTestPropagator(store, &stubGate{listed: map[uuid.UUID]bool{}}, sink).Run(frozenContext())
	require.NoError(t, err)
	require.Equal(t, 1, stats.PlacesEvaluated)
	require.Equal(t, 1, stats.Transitions)

	status, err := store.GetStatus(context.Background(), placeID, domain.ConditionFIV)
	require.NoError(t, err)
	require.Equal(t, domain.StatusConfirmedActive, status.State)
	require.Equal(t, 1, status.PositiveCount)
	require.Equal(t, 1, status.CatCount)
	require.Equal(t, "system", status.SetBy)
	require.Len(t, sink.events, 1)
	require.Equal(t, audit.ActionStatusComputed, sink.events[0].Action)
}

func TestPropagatorDecayBoundary(t *testing.T) {
	// 36-month window: a positive 35 months old is still active, one 37
	// months old has decayed.
	cases := []struct {
		name      string
		monthsAgo int
		want      domain.StatusState
	}{
		{"inside window", 35, domain.StatusConfirmedActive},
		{"outside window", 37, domain.StatusHistorical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := NewInMemoryStore()
			placeID := seedPlace(store, domain.PlaceResidential)
			catID := seedResidentCat(store, placeID, domain.ConfidenceHigh)
			addPositive(store, catID, domain.ConditionFeLV, testNow.Add(-time.Duration(tc.monthsAgo)*30*24*time.Hour))

			_, err := newTestPropagator(store, &stubGate{listed: map[uuid.UUID]bool{}}, &stubSink{}).Run(frozenContext())
			require.NoError(t, err)

			status, err := store.GetStatus(context.Background(), placeID, domain.ConditionFeLV)
			require.NoError(t, err)
			require.Equal(t, tc.want, status.State)
		})
	}
}

func TestPropagatorInferredEdgeSuspects(t *testing.T) {
	store := NewInMemoryStore()
	placeID := seedPlace(store, domain.PlaceResidential)
	catID := seedResidentCat(store, placeID, domain.ConfidenceMedium)
	addPositive(store, catID, domain.ConditionFIV, testNow.AddDate(0, -1, 0))

	_, err := newTestPropagator(store, &stubGate{listed: map[uuid.UUID]bool{}}, &stubSink{}).Run(frozenContext())
	require.NoError(t, err)

	status, err := store.GetStatus(context.Background(), placeID, domain.ConditionFIV)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSuspected, status.State)
}

func TestPropagatorNeverOverwritesManualStates(t *testing.T) {
	for _, manual := range []domain.StatusState{domain.StatusPerpetual, domain.StatusFalseFlag, domain.StatusCleared} {
		t.Run(string(manual), func(t *testing.T) {
			store := NewInMemoryStore()
			placeID := seedPlace(store, domain.PlaceResidential)
			catID := seedResidentCat(store, placeID, domain.ConfidenceHigh)
			addPositive(store, catID, domain.ConditionFIV, testNow.AddDate(0, -1, 0))

			require.NoError(t, store.UpsertStatus(context.Background(), &domain.PlaceStatus{
				ID: uuid.New(), PlaceID: placeID, Condition: domain.ConditionFIV,
				State: manual, SetBy: "coordinator@example.org", UpdatedAt: testNow,
			}))

			stats, err := newTestPropagator(store, &stubGate{listed: map[uuid.UUID]bool{}}, &stubSink{}).Run(frozenContext())
			require.NoError(t, err)
			require.Equal(t, 1, stats.ManualSkipped)

			status, err := store.GetStatus(context.Background(), placeID, domain.ConditionFIV)
			require.NoError(t, err)
			require.Equal(t, manual, status.State)
			require.Equal(t, "coordinator@example.org", status.SetBy)
		})
	}
}

func TestPropagatorSkipsIneligiblePlaces(t *testing.T) {
	store := NewInMemoryStore()
	clinic := seedPlace(store, domain.PlaceClinic)
	listed := seedPlace(store, domain.PlaceResidential)
	gate := &stubGate{listed: map[uuid.UUID]bool{listed: true}}

	for _, placeID := range []uuid.UUID{clinic, listed} {
		catID := seedResidentCat(store, placeID, domain.ConfidenceHigh)
		addPositive(store, catID, domain.ConditionFIV, testNow.AddDate(0, -1, 0))
	}

	stats, err := newTestPropagator(store, gate, &stubSink{}).Run(frozenContext())
	require.NoError(t, err)
	require.Equal(t, 0, stats.Transitions)

	for _, placeID := range []uuid.UUID{clinic, listed} {
		_, err := store.GetStatus(context.Background(), placeID, domain.ConditionFIV)
		require.ErrorIs(t, err, ErrNotFound)
	}
}

func TestPropagatorSkipsPlacesWithNonResidentialContext(t *testing.T) {
	addFosterEdge := func(store *InMemoryStore, placeID uuid.UUID, supersession domain.Supersession) {
		fosterID := uuid.New()
		store.AddCat(&domain.Cat{ID: fosterID, Supersession: supersession})
		store.AddEdge(&domain.Edge{
			ID: uuid.New(), SubjectID: fosterID, ObjectID: placeID,
			Relationship: domain.RelFosterTemporary, Evidence: domain.EvidenceVisitRecord,
			Confidence: domain.ConfidenceHigh, UpdatedAt: testNow,
		})
	}

	t.Run("active foster edge suppresses status", func(t *testing.T) {
		store := NewInMemoryStore()
		placeID := seedPlace(store, domain.PlaceResidential)
		catID := seedResidentCat(store, placeID, domain.ConfidenceHigh)
		addPositive(store, catID, domain.ConditionFIV, testNow.AddDate(0, -1, 0))
		addFosterEdge(store, placeID, domain.Active())

		stats, err := newTestPropagator(store, &stubGate{listed: map[uuid.UUID]bool{}}, &stubSink{}).Run(frozenContext())
		require.NoError(t, err)
		require.Equal(t, 0, stats.Transitions)

		_, err = store.GetStatus(context.Background(), placeID, domain.ConditionFIV)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("superseded foster cat leaves the place eligible", func(t *testing.T) {
		store := NewInMemoryStore()
		placeID := seedPlace(store, domain.PlaceResidential)
		catID := seedResidentCat(store, placeID, domain.ConfidenceHigh)
		addPositive(store, catID, domain.ConditionFIV, testNow.AddDate(0, -1, 0))
		addFosterEdge(store, placeID, domain.SupersededBy(uuid.New()))

		_, err := newTestPropagator(store, &stubGate{listed: map[uuid.UUID]bool{}}, &stubSink{}).Run(frozenContext())
		require.NoError(t, err)

		status, err := store.GetStatus(context.Background(), placeID, domain.ConditionFIV)
		require.NoError(t, err)
		require.Equal(t, domain.StatusConfirmedActive, status.State)
	})
}

func TestPropagatorRunIsIdempotent(t *testing.T) {
	store := NewInMemoryStore()
	placeID := seedPlace(store, domain.PlaceResidential)
	catID := seedResidentCat(store, placeID, domain.ConfidenceHigh)
	addPositive(store, catID, domain.ConditionFIV, testNow.AddDate(0, -2, 0))

	prop := newTestPropagator(store, &stubGate{listed: map[uuid.UUID]bool{}}, &stubSink{})
	first, err := prop.Run(frozenContext())
	require.NoError(t, err)
	require.Equal(t, 1, first.Transitions)

	second, err := prop.Run(frozenContext())
	require.NoError(t, err)
	require.Equal(t, 0, second.Transitions)
}

func TestPropagatorAggregatesAcrossCats(t *testing.T) {
	store := NewInMemoryStore()
	placeID := seedPlace(store, domain.PlaceResidential)
	catA := seedResidentCat(store, placeID, domain.ConfidenceHigh)
	catB := seedResidentCat(store, placeID, domain.ConfidenceHigh)

	early := testNow.AddDate(0, -6, 0)
	late := testNow.AddDate(0, -1, 0)
	addPositive(store, catA, domain.ConditionFIV, early)
	addPositive(store, catA, domain.ConditionFIV, late)
	addPositive(store, catB, domain.ConditionFIV, testNow.AddDate(0, -3, 0))

	_, err := newTestPropagator(store, &stubGate{listed: map[uuid.UUID]bool{}}, &stubSink{}).Run(frozenContext())
	require.NoError(t, err)

	status, err := store.GetStatus(context.Background(), placeID, domain.ConditionFIV)
	require.NoError(t, err)
	require.Equal(t, 3, status.PositiveCount)
	require.Equal(t, 2, status.CatCount)
	require.Equal(t, early, *status.FirstPositiveAt)
	require.Equal(t, late, *status.LastPositiveAt)
}
