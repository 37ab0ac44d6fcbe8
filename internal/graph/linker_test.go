package graph

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"trapper/internal/domain"
)

type stubGate struct {
	listed map[uuid.UUID]bool
}

func (g *stubGate) PlaceListed(_ context.Context, placeID uuid.UUID) (bool, error) {
	return g.listed[placeID], nil
}

func newTestLinker(store Store, gate PlaceGate) *Linker {
	return NewLinker(store, gate, slog.New(slog.DiscardHandler))
}

func seedPlace(store *InMemoryStore, kind domain.PlaceKind) uuid.UUID {
	id := uuid.New()
	store.AddPlace(&domain.Place{
		ID:               id,
		DisplayName:      "place",
		FormattedAddress: "123 main st",
		Kind:             kind,
		Supersession:     domain.Active(),
	})
	return id
}

func TestLinkerLatestVisitWins(t *testing.T) {
	store := NewInMemoryStore()
	gate := &stubGate{listed: map[uuid.UUID]bool{}}

	catID := uuid.New()
	oldHome := seedPlace(store, domain.PlaceResidential)
	newHome := seedPlace(store, domain.PlaceResidential)
	clinic := seedPlace(store, domain.PlaceClinic)

	store.AddVisit(&domain.Visit{
		ID: uuid.New(), CatID: catID, ClinicPlaceID: clinic,
		HomePlaceID: &oldHome, VisitedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	store.AddVisit(&domain.Visit{
		ID: uuid.New(), CatID: catID, ClinicPlaceID: clinic,
		HomePlaceID: &newHome, VisitedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})

	stats, err := newTestLinker(store, gate).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stats.HomeEdges)

	edges := store.Edges(domain.EdgeCatPlace)
	require.Len(t, edges, 1)
	require.Equal(t, newHome, edges[0].ObjectID)
	require.Equal(t, domain.RelResidence, edges[0].Relationship)
	require.Equal(t, domain.ConfidenceHigh, edges[0].Confidence)
}

func TestLinkerNeverFallsBackToClinic(t *testing.T) {
	store := NewInMemoryStore()
	gate := &stubGate{listed: map[uuid.UUID]bool{}}

	catID := uuid.New()
	clinic := seedPlace(store, domain.PlaceClinic)
	store.AddVisit(&domain.Visit{
		ID: uuid.New(), CatID: catID, ClinicPlaceID: clinic,
		HomePlaceID: nil, VisitedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})

	stats, err := newTestLinker(store, gate).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stats.SkippedNoHome)
	require.Empty(t, store.Edges(domain.EdgeCatPlace))
}

func TestLinkerGatesNonResidentialAndBlacklisted(t *testing.T) {
	store := NewInMemoryStore()

	catA := uuid.New()
	catB := uuid.New()
	clinic := seedPlace(store, domain.PlaceClinic)
	shelter := seedPlace(store, domain.PlaceShelter)
	listed := seedPlace(store, domain.PlaceResidential)
	gate := &stubGate{listed: map[uuid.UUID]bool{listed: true}}

	store.AddVisit(&domain.Visit{
		ID: uuid.New(), CatID: catA, ClinicPlaceID: clinic,
		HomePlaceID: &shelter, VisitedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	store.AddVisit(&domain.Visit{
		ID: uuid.New(), CatID: catB, ClinicPlaceID: clinic,
		HomePlaceID: &listed, VisitedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})

	stats, err := newTestLinker(store, gate).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, stats.SkippedGated)
	require.Empty(t, store.Edges(domain.EdgeCatPlace))
}

func TestLinkerCaretakerInferenceOnePlacePerPerson(t *testing.T) {
	store := NewInMemoryStore()
	gate := &stubGate{listed: map[uuid.UUID]bool{}}

	personID := uuid.New()
	catID := uuid.New()
	oldHome := seedPlace(store, domain.PlaceResidential)
	newHome := seedPlace(store, domain.PlaceResidential)

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	_, err := store.UpsertEdge(ctx, domain.EdgePersonCat, &domain.Edge{
		ID: uuid.New(), SubjectID: personID, ObjectID: catID,
		Relationship: domain.RelCaretaker, Evidence: domain.EvidenceWebForm,
		Confidence: domain.ConfidenceHigh, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	// Two candidate homes; only the more recent, equally confident one links.
	_, err = store.UpsertEdge(ctx, domain.EdgePersonPlace, &domain.Edge{
		ID: uuid.New(), SubjectID: personID, ObjectID: oldHome,
		Relationship: domain.RelResident, Evidence: domain.EvidenceWebForm,
		Confidence: domain.ConfidenceMedium, CreatedAt: now.AddDate(-1, 0, 0), UpdatedAt: now.AddDate(-1, 0, 0),
	})
	require.NoError(t, err)
	_, err = store.UpsertEdge(ctx, domain.EdgePersonPlace, &domain.Edge{
		ID: uuid.New(), SubjectID: personID, ObjectID: newHome,
		Relationship: domain.RelResident, Evidence: domain.EvidenceWebForm,
		Confidence: domain.ConfidenceMedium, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	stats, err := newTestLinker(store, gate).Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.InferredEdges)

	edges := store.Edges(domain.EdgeCatPlace)
	require.Len(t, edges, 1)
	require.Equal(t, catID, edges[0].SubjectID)
	require.Equal(t, newHome, edges[0].ObjectID)
	require.Equal(t, domain.ConfidenceMedium, edges[0].Confidence)
	require.Equal(t, domain.EvidenceInferred, edges[0].Evidence)
}

func TestLinkerVisitCoverageSuppressesInference(t *testing.T) {
	store := NewInMemoryStore()
	gate := &stubGate{listed: map[uuid.UUID]bool{}}

	personID := uuid.New()
	catID := uuid.New()
	visitHome := seedPlace(store, domain.PlaceResidential)
	personHome := seedPlace(store, domain.PlaceResidential)
	clinic := seedPlace(store, domain.PlaceClinic)

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	store.AddVisit(&domain.Visit{
		ID: uuid.New(), CatID: catID, ClinicPlaceID: clinic,
		HomePlaceID: &visitHome, VisitedAt: now,
	})
	_, err := store.UpsertEdge(ctx, domain.EdgePersonCat, &domain.Edge{
		ID: uuid.New(), SubjectID: personID, ObjectID: catID,
		Relationship: domain.RelOwner, Evidence: domain.EvidenceWebForm,
		Confidence: domain.ConfidenceHigh, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	_, err = store.UpsertEdge(ctx, domain.EdgePersonPlace, &domain.Edge{
		ID: uuid.New(), SubjectID: personID, ObjectID: personHome,
		Relationship: domain.RelResident, Evidence: domain.EvidenceWebForm,
		Confidence: domain.ConfidenceHigh, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	stats, err := newTestLinker(store, gate).Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.HomeEdges)
	require.Equal(t, 0, stats.InferredEdges)

	edges := store.Edges(domain.EdgeCatPlace)
	require.Len(t, edges, 1)
	require.Equal(t, visitHome, edges[0].ObjectID)
}

func TestLinkerStaffContactDoesNotInfer(t *testing.T) {
	store := NewInMemoryStore()
	gate := &stubGate{listed: map[uuid.UUID]bool{}}

	personID := uuid.New()
	catID := uuid.New()
	home := seedPlace(store, domain.PlaceResidential)

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	_, err := store.UpsertEdge(ctx, domain.EdgePersonCat, &domain.Edge{
		ID: uuid.New(), SubjectID: personID, ObjectID: catID,
		Relationship: domain.RelStaffContact, Evidence: domain.EvidenceStaffEntry,
		Confidence: domain.ConfidenceHigh, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	_, err = store.UpsertEdge(ctx, domain.EdgePersonPlace, &domain.Edge{
		ID: uuid.New(), SubjectID: personID, ObjectID: home,
		Relationship: domain.RelResident, Evidence: domain.EvidenceWebForm,
		Confidence: domain.ConfidenceHigh, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	stats, err := newTestLinker(store, gate).Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, stats.InferredEdges)
	require.Empty(t, store.Edges(domain.EdgeCatPlace))
}

func TestLinkerRunIsIdempotent(t *testing.T) {
	store := NewInMemoryStore()
	gate := &stubGate{listed: map[uuid.UUID]bool{}}

	catID := uuid.New()
	home := seedPlace(store, domain.PlaceResidential)
	clinic := seedPlace(store, domain.PlaceClinic)
	store.AddVisit(&domain.Visit{
		ID: uuid.New(), CatID: catID, ClinicPlaceID: clinic,
		HomePlaceID: &home, VisitedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})

	linker := newTestLinker(store, gate)
	first, err := linker.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, first.HomeEdges)

	second, err := linker.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, second.HomeEdges)
	require.Len(t, store.Edges(domain.EdgeCatPlace), 1)
}
