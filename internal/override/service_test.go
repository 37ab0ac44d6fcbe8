package override

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"trapper/internal/audit"
	"trapper/internal/domain"
	dErrors "trapper/pkg/domain-errors"
	"trapper/pkg/requestcontext"
)

type stubSink struct {
	events []audit.Event
}

func (s *stubSink) Emit(_ context.Context, event audit.Event) error {
	s.events = append(s.events, event)
	return nil
}

type stubInvalidator struct {
	calls []string
}

func (s *stubInvalidator) Invalidate(_ context.Context, kind string, ids ...uuid.UUID) {
	for range ids {
		s.calls = append(s.calls, kind)
	}
}

func newTestService(store Store) (*Service, *stubSink, *stubInvalidator) {
	sink := &stubSink{}
	inv := &stubInvalidator{}
	return NewService(store, sink, inv, slog.New(slog.DiscardHandler)), sink, inv
}

func staffContext() context.Context {
	return requestcontext.WithActor(context.Background(), "coordinator@example.org")
}

func TestMergeMovesIdentifiersAndEdges(t *testing.T) {
	store := NewInMemoryStore()
	svc, sink, inv := newTestService(store)

	loserID := uuid.New()
	survivorID := uuid.New()
	catID := uuid.New()
	store.AddPerson(&domain.Person{ID: loserID, DisplayName: "M. Gonzalez", Supersession: domain.Active()})
	store.AddPerson(&domain.Person{ID: survivorID, DisplayName: "Maria Gonzalez", Supersession: domain.Active()})

	// One identifier collides with the survivor, one is unique.
	store.AddIdentifier(&domain.PersonIdentifier{
		ID: uuid.New(), PersonID: loserID, Type: domain.IdentifierEmail, ValueNormalized: "maria@example.org",
	})
	store.AddIdentifier(&domain.PersonIdentifier{
		ID: uuid.New(), PersonID: loserID, Type: domain.IdentifierPhone, ValueNormalized: "5125550101",
	})
	store.AddIdentifier(&domain.PersonIdentifier{
		ID: uuid.New(), PersonID: survivorID, Type: domain.IdentifierEmail, ValueNormalized: "maria@example.org",
	})
	store.AddEdge(domain.EdgePersonCat, &domain.Edge{
		ID: uuid.New(), SubjectID: loserID, ObjectID: catID, Relationship: domain.RelCaretaker,
	})

	result, err := svc.MergePeople(staffContext(), loserID, survivorID)
	require.NoError(t, err)
	require.Equal(t, 1, result.IdentifiersMoved)
	require.Equal(t, 1, result.EdgesMoved)

	merged, err := store.GetPerson(context.Background(), loserID)
	require.NoError(t, err)
	require.False(t, merged.Supersession.IsActive())
	survivor, _ := merged.Supersession.Survivor()
	require.Equal(t, survivorID, survivor)

	require.Empty(t, store.IdentifiersOf(loserID))
	require.Len(t, store.IdentifiersOf(survivorID), 2)
	require.Len(t, store.EdgesOf(domain.EdgePersonCat, survivorID), 1)

	require.Len(t, sink.events, 1)
	require.Equal(t, audit.ActionPersonMerged, sink.events[0].Action)
	require.Equal(t, []string{"person", "person"}, inv.calls)
}

func TestMergeRequiresActor(t *testing.T) {
	svc, _, _ := newTestService(NewInMemoryStore())
	_, err := svc.MergePeople(context.Background(), uuid.New(), uuid.New())
	require.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
}

func TestMergeRejectsSelfMerge(t *testing.T) {
	svc, _, _ := newTestService(NewInMemoryStore())
	id := uuid.New()
	_, err := svc.MergePeople(staffContext(), id, id)
	require.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
}

func TestMergeRejectsAlreadyMergedLoser(t *testing.T) {
	store := NewInMemoryStore()
	svc, _, _ := newTestService(store)

	loserID := uuid.New()
	survivorID := uuid.New()
	elsewhere := uuid.New()
	store.AddPerson(&domain.Person{ID: loserID, Supersession: domain.SupersededBy(elsewhere)})
	store.AddPerson(&domain.Person{ID: survivorID, Supersession: domain.Active()})

	_, err := svc.MergePeople(staffContext(), loserID, survivorID)
	require.Equal(t, dErrors.CodeConflict, dErrors.CodeOf(err))
}

func TestReclassifyPlace(t *testing.T) {
	store := NewInMemoryStore()
	svc, sink, inv := newTestService(store)

	placeID := uuid.New()
	store.AddPlace(&domain.Place{ID: placeID, Kind: domain.PlaceUnknown, Supersession: domain.Active()})

	place, err := svc.ReclassifyPlace(staffContext(), placeID, domain.PlaceClinic)
	require.NoError(t, err)
	require.Equal(t, domain.PlaceClinic, place.Kind)

	stored, err := store.GetPlace(context.Background(), placeID)
	require.NoError(t, err)
	require.Equal(t, domain.PlaceClinic, stored.Kind)
	require.Len(t, sink.events, 1)
	require.Equal(t, audit.ActionPlaceReclassified, sink.events[0].Action)
	require.Equal(t, []string{"place"}, inv.calls)
}

func TestReclassifyRejectsUnknownKind(t *testing.T) {
	svc, _, _ := newTestService(NewInMemoryStore())
	_, err := svc.ReclassifyPlace(staffContext(), uuid.New(), domain.PlaceKind("parking_lot"))
	require.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
}

func TestReclassifySameKindIsNoOp(t *testing.T) {
	store := NewInMemoryStore()
	svc, sink, _ := newTestService(store)

	placeID := uuid.New()
	store.AddPlace(&domain.Place{ID: placeID, Kind: domain.PlaceClinic, Supersession: domain.Active()})

	_, err := svc.ReclassifyPlace(staffContext(), placeID, domain.PlaceClinic)
	require.NoError(t, err)
	require.Empty(t, sink.events)
}
