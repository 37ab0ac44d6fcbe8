package projection

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"trapper/internal/domain"
	dErrors "trapper/pkg/domain-errors"
)

type fakeCache struct {
	data map[string][]byte
	sets int
	gets int
	hits int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	c.gets++
	if v, ok := c.data[key]; ok {
		c.hits++
		return v, nil
	}
	return nil, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.sets++
	c.data[key] = value
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.data, key)
	}
	return nil
}

func newTestService(store Store, cache Cache) *Service {
	return NewService(store, cache, slog.New(slog.DiscardHandler), time.Minute)
}

func TestPersonViewAssemblesAggregates(t *testing.T) {
	store := NewInMemoryStore()
	personID := uuid.New()
	catID := uuid.New()
	placeID := uuid.New()

	store.AddPerson(&domain.Person{
		ID: personID, DisplayName: "Maria Gonzalez", FirstName: "Maria", LastName: "Gonzalez",
		DataQuality: domain.QualityOK, Supersession: domain.Active(),
	})
	store.AddCat(&domain.Cat{ID: catID, Name: "Pumpkin", Supersession: domain.Active()})
	store.AddPlace(&domain.Place{ID: placeID, DisplayName: "114 Oak St", Supersession: domain.Active()})
	store.AddIdentifier(&domain.PersonIdentifier{
		ID: uuid.New(), PersonID: personID, Type: domain.IdentifierEmail,
		ValueNormalized: "maria@example.org", Confidence: 0.9,
	})
	store.AddEdge(domain.EdgePersonCat, &domain.Edge{
		ID: uuid.New(), SubjectID: personID, ObjectID: catID,
		Relationship: domain.RelCaretaker, Confidence: domain.ConfidenceHigh,
	})
	store.AddEdge(domain.EdgePersonPlace, &domain.Edge{
		ID: uuid.New(), SubjectID: personID, ObjectID: placeID,
		Relationship: domain.RelResident, Confidence: domain.ConfidenceHigh,
	})

	view, err := newTestService(store, newFakeCache()).PersonView(context.Background(), personID)
	require.NoError(t, err)
	require.Equal(t, "Maria Gonzalez", view.DisplayName)
	require.Len(t, view.Identifiers, 1)
	require.Equal(t, "maria@example.org", view.Identifiers[0].Value)
	require.Len(t, view.Cats, 1)
	require.Equal(t, "Pumpkin", view.Cats[0].DisplayName)
	require.Len(t, view.Places, 1)
	require.Equal(t, "114 Oak St", view.Places[0].DisplayName)
}

func TestPersonViewFollowsSupersession(t *testing.T) {
	store := NewInMemoryStore()
	loserID := uuid.New()
	survivorID := uuid.New()

	store.AddPerson(&domain.Person{
		ID: loserID, DisplayName: "M. Gonzalez", Supersession: domain.SupersededBy(survivorID),
	})
	store.AddPerson(&domain.Person{
		ID: survivorID, DisplayName: "Maria Gonzalez", Supersession: domain.Active(),
	})

	view, err := newTestService(store, newFakeCache()).PersonView(context.Background(), loserID)
	require.NoError(t, err)
	require.Equal(t, survivorID, view.ID)
	require.Equal(t, "Maria Gonzalez", view.DisplayName)
}

func TestPersonViewNotFound(t *testing.T) {
	_, err := newTestService(NewInMemoryStore(), newFakeCache()).PersonView(context.Background(), uuid.New())
	require.Error(t, err)
	require.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func TestPlaceViewIncludesStatusesAndResidents(t *testing.T) {
	store := NewInMemoryStore()
	placeID := uuid.New()
	catID := uuid.New()
	last := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	store.AddPlace(&domain.Place{
		ID: placeID, DisplayName: "114 Oak St", FormattedAddress: "114 oak st",
		Kind: domain.PlaceResidential, Supersession: domain.Active(),
	})
	store.AddCat(&domain.Cat{ID: catID, Name: "Pumpkin", Supersession: domain.Active()})
	store.AddStatus(&domain.PlaceStatus{
		ID: uuid.New(), PlaceID: placeID, Condition: domain.ConditionFeLV,
		State: domain.StatusConfirmedActive, LastPositiveAt: &last,
		PositiveCount: 2, CatCount: 1, SetBy: "system",
	})
	store.AddEdge(domain.EdgeCatPlace, &domain.Edge{
		ID: uuid.New(), SubjectID: catID, ObjectID: placeID,
		Relationship: domain.RelResidence, Confidence: domain.ConfidenceHigh,
	})
	// Non-residential edges stay out of the resident list.
	store.AddEdge(domain.EdgeCatPlace, &domain.Edge{
		ID: uuid.New(), SubjectID: uuid.New(), ObjectID: placeID,
		Relationship: domain.RelTrappedAt, Confidence: domain.ConfidenceHigh,
	})

	view, err := newTestService(store, newFakeCache()).PlaceView(context.Background(), placeID)
	require.NoError(t, err)
	require.Len(t, view.Statuses, 1)
	require.Equal(t, "confirmed_active", view.Statuses[0].State)
	require.Len(t, view.ResidentCats, 1)
	require.Equal(t, catID, view.ResidentCats[0].EntityID)
}

func TestCatViewIncludesResultsAndCaretakers(t *testing.T) {
	store := NewInMemoryStore()
	catID := uuid.New()
	personID := uuid.New()

	store.AddCat(&domain.Cat{ID: catID, Name: "Pumpkin", Sex: domain.SexFemale, Altered: domain.AlteredYes, Supersession: domain.Active()})
	store.AddPerson(&domain.Person{ID: personID, DisplayName: "Maria Gonzalez", Supersession: domain.Active()})
	store.AddEdge(domain.EdgePersonCat, &domain.Edge{
		ID: uuid.New(), SubjectID: personID, ObjectID: catID,
		Relationship: domain.RelCaretaker, Confidence: domain.ConfidenceHigh,
	})
	store.AddResult(&domain.TestResult{
		ID: uuid.New(), CatID: catID, Condition: domain.ConditionFIV, Positive: true,
		TestedAt: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	})

	view, err := newTestService(store, newFakeCache()).CatView(context.Background(), catID)
	require.NoError(t, err)
	require.Equal(t, "Pumpkin", view.Name)
	require.Len(t, view.Caretakers, 1)
	require.Len(t, view.TestResults, 1)
	require.True(t, view.TestResults[0].Positive)
}

func TestViewsAreCachedAndInvalidated(t *testing.T) {
	store := NewInMemoryStore()
	cache := newFakeCache()
	personID := uuid.New()
	store.AddPerson(&domain.Person{ID: personID, DisplayName: "Maria Gonzalez", Supersession: domain.Active()})

	svc := newTestService(store, cache)
	ctx := context.Background()

	_, err := svc.PersonView(ctx, personID)
	require.NoError(t, err)
	require.Equal(t, 1, cache.sets)

	_, err = svc.PersonView(ctx, personID)
	require.NoError(t, err)
	require.Equal(t, 1, cache.hits)
	require.Equal(t, 1, cache.sets)

	svc.Invalidate(ctx, "person", personID)
	_, err = svc.PersonView(ctx, personID)
	require.NoError(t, err)
	require.Equal(t, 2, cache.sets)
}
