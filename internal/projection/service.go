package projection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"trapper/internal/domain"
	dErrors "trapper/pkg/domain-errors"
)

// supersessionDepthLimit bounds redirect chains so a cyclic merge in bad data
// cannot loop a read forever.
const supersessionDepthLimit = 10

// Service assembles and caches read views. Reads of a superseded entity
// transparently follow the chain to its survivor.
type Service struct {
	store  Store
	cache  Cache
	logger *slog.Logger
	ttl    time.Duration
}

func NewService(store Store, cache Cache, logger *slog.Logger, ttl time.Duration) *Service {
	return &Service{store: store, cache: cache, logger: logger, ttl: ttl}
}

// PersonView returns the aggregate view for a person, following supersession.
func (s *Service) PersonView(ctx context.Context, id uuid.UUID) (*PersonView, error) {
	person, err := s.resolvePerson(ctx, id)
	if err != nil {
		return nil, err
	}

	key := cacheKey("person", person.ID)
	if view, ok := cachedView[PersonView](ctx, s, key); ok {
		return view, nil
	}

	view, err := s.buildPersonView(ctx, person)
	if err != nil {
		return nil, err
	}
	s.cacheView(ctx, key, view)
	return view, nil
}

// PlaceView returns the aggregate view for a place, following supersession.
func (s *Service) PlaceView(ctx context.Context, id uuid.UUID) (*PlaceView, error) {
	place, err := s.resolvePlace(ctx, id)
	if err != nil {
		return nil, err
	}

	key := cacheKey("place", place.ID)
	if view, ok := cachedView[PlaceView](ctx, s, key); ok {
		return view, nil
	}

	view, err := s.buildPlaceView(ctx, place)
	if err != nil {
		return nil, err
	}
	s.cacheView(ctx, key, view)
	return view, nil
}

// CatView returns the aggregate view for a cat, following supersession.
func (s *Service) CatView(ctx context.Context, id uuid.UUID) (*CatView, error) {
	cat, err := s.resolveCat(ctx, id)
	if err != nil {
		return nil, err
	}

	key := cacheKey("cat", cat.ID)
	if view, ok := cachedView[CatView](ctx, s, key); ok {
		return view, nil
	}

	view, err := s.buildCatView(ctx, cat)
	if err != nil {
		return nil, err
	}
	s.cacheView(ctx, key, view)
	return view, nil
}

// Invalidate drops cached views for the given entities. Callers pass the
// entity kind ("person", "place", "cat") with each ID.
func (s *Service) Invalidate(ctx context.Context, kind string, ids ...uuid.UUID) {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, cacheKey(kind, id))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.WarnContext(ctx, "cache invalidation failed", "kind", kind, "error", err)
	}
}

func (s *Service) resolvePerson(ctx context.Context, id uuid.UUID) (*domain.Person, error) {
	for range supersessionDepthLimit {
		person, err := s.store.GetPerson(ctx, id)
		if err != nil {
			return nil, err
		}
		if person.Supersession.IsActive() {
			return person, nil
		}
		id, _ = person.Supersession.Survivor()
	}
	return nil, dErrors.New(dErrors.CodeInternal, "supersession chain too deep")
}

func (s *Service) resolvePlace(ctx context.Context, id uuid.UUID) (*domain.Place, error) {
	for range supersessionDepthLimit {
		place, err := s.store.GetPlace(ctx, id)
		if err != nil {
			return nil, err
		}
		if place.Supersession.IsActive() {
			return place, nil
		}
		id, _ = place.Supersession.Survivor()
	}
	return nil, dErrors.New(dErrors.CodeInternal, "supersession chain too deep")
}

func (s *Service) resolveCat(ctx context.Context, id uuid.UUID) (*domain.Cat, error) {
	for range supersessionDepthLimit {
		cat, err := s.store.GetCat(ctx, id)
		if err != nil {
			return nil, err
		}
		if cat.Supersession.IsActive() {
			return cat, nil
		}
		id, _ = cat.Supersession.Survivor()
	}
	return nil, dErrors.New(dErrors.CodeInternal, "supersession chain too deep")
}

func (s *Service) buildPersonView(ctx context.Context, person *domain.Person) (*PersonView, error) {
	idents, err := s.store.IdentifiersByPerson(ctx, person.ID)
	if err != nil {
		return nil, fmt.Errorf("load identifiers: %w", err)
	}
	catEdges, err := s.store.EdgesBySubject(ctx, domain.EdgePersonCat, person.ID)
	if err != nil {
		return nil, fmt.Errorf("load cat edges: %w", err)
	}
	placeEdges, err := s.store.EdgesBySubject(ctx, domain.EdgePersonPlace, person.ID)
	if err != nil {
		return nil, fmt.Errorf("load place edges: %w", err)
	}

	view := &PersonView{
		ID:          person.ID,
		DisplayName: person.DisplayName,
		FirstName:   person.FirstName,
		LastName:    person.LastName,
		DataQuality: string(person.DataQuality),
		Identifiers: make([]IdentifierView, 0, len(idents)),
		UpdatedAt:   person.UpdatedAt,
	}
	for _, ident := range idents {
		view.Identifiers = append(view.Identifiers, IdentifierView{
			Type:       string(ident.Type),
			Value:      ident.ValueNormalized,
			Confidence: ident.Confidence,
		})
	}
	view.Cats = s.catEdgeViews(ctx, catEdges)
	view.Places = s.placeEdgeViews(ctx, placeEdges)
	return view, nil
}

func (s *Service) buildPlaceView(ctx context.Context, place *domain.Place) (*PlaceView, error) {
	statuses, err := s.store.StatusesForPlace(ctx, place.ID)
	if err != nil {
		return nil, fmt.Errorf("load statuses: %w", err)
	}
	catEdges, err := s.store.EdgesByObject(ctx, domain.EdgeCatPlace, place.ID)
	if err != nil {
		return nil, fmt.Errorf("load resident cats: %w", err)
	}
	personEdges, err := s.store.EdgesByObject(ctx, domain.EdgePersonPlace, place.ID)
	if err != nil {
		return nil, fmt.Errorf("load people: %w", err)
	}

	view := &PlaceView{
		ID:               place.ID,
		DisplayName:      place.DisplayName,
		FormattedAddress: place.FormattedAddress,
		Kind:             string(place.Kind),
		Latitude:         place.Latitude,
		Longitude:        place.Longitude,
		Statuses:         make([]StatusView, 0, len(statuses)),
		UpdatedAt:        place.UpdatedAt,
	}
	for _, st := range statuses {
		view.Statuses = append(view.Statuses, StatusView{
			Condition:      string(st.Condition),
			State:          string(st.State),
			LastPositiveAt: st.LastPositiveAt,
			PositiveCount:  st.PositiveCount,
			CatCount:       st.CatCount,
		})
	}

	view.ResidentCats = make([]EdgeView, 0, len(catEdges))
	for _, edge := range catEdges {
		if !edge.Relationship.Residential() {
			continue
		}
		name := ""
		if cat, err := s.store.GetCat(ctx, edge.SubjectID); err == nil && cat.Supersession.IsActive() {
			name = cat.Name
		}
		view.ResidentCats = append(view.ResidentCats, EdgeView{
			EntityID:     edge.SubjectID,
			DisplayName:  name,
			Relationship: string(edge.Relationship),
			Confidence:   string(edge.Confidence),
		})
	}

	view.People = make([]EdgeView, 0, len(personEdges))
	for _, edge := range personEdges {
		name := ""
		if person, err := s.store.GetPerson(ctx, edge.SubjectID); err == nil && person.Supersession.IsActive() {
			name = person.DisplayName
		}
		view.People = append(view.People, EdgeView{
			EntityID:     edge.SubjectID,
			DisplayName:  name,
			Relationship: string(edge.Relationship),
			Confidence:   string(edge.Confidence),
		})
	}
	return view, nil
}

func (s *Service) buildCatView(ctx context.Context, cat *domain.Cat) (*CatView, error) {
	residences, err := s.store.EdgesBySubject(ctx, domain.EdgeCatPlace, cat.ID)
	if err != nil {
		return nil, fmt.Errorf("load residences: %w", err)
	}
	caretakers, err := s.store.EdgesByObject(ctx, domain.EdgePersonCat, cat.ID)
	if err != nil {
		return nil, fmt.Errorf("load caretakers: %w", err)
	}
	results, err := s.store.ResultsByCat(ctx, cat.ID)
	if err != nil {
		return nil, fmt.Errorf("load test results: %w", err)
	}

	view := &CatView{
		ID:          cat.ID,
		Name:        cat.Name,
		Sex:         string(cat.Sex),
		Altered:     string(cat.Altered),
		Descriptors: cat.Descriptors,
		TestResults: make([]ResultView, 0, len(results)),
		UpdatedAt:   cat.UpdatedAt,
	}
	view.Residences = s.placeEdgeViews(ctx, residences)

	view.Caretakers = make([]EdgeView, 0, len(caretakers))
	for _, edge := range caretakers {
		name := ""
		if person, err := s.store.GetPerson(ctx, edge.SubjectID); err == nil && person.Supersession.IsActive() {
			name = person.DisplayName
		}
		view.Caretakers = append(view.Caretakers, EdgeView{
			EntityID:     edge.SubjectID,
			DisplayName:  name,
			Relationship: string(edge.Relationship),
			Confidence:   string(edge.Confidence),
		})
	}

	for _, r := range results {
		view.TestResults = append(view.TestResults, ResultView{
			Condition: string(r.Condition),
			Positive:  r.Positive,
			TestedAt:  r.TestedAt,
		})
	}
	return view, nil
}

func (s *Service) catEdgeViews(ctx context.Context, edges []*domain.Edge) []EdgeView {
	out := make([]EdgeView, 0, len(edges))
	for _, edge := range edges {
		name := ""
		if cat, err := s.store.GetCat(ctx, edge.ObjectID); err == nil && cat.Supersession.IsActive() {
			name = cat.Name
		}
		out = append(out, EdgeView{
			EntityID:     edge.ObjectID,
			DisplayName:  name,
			Relationship: string(edge.Relationship),
			Confidence:   string(edge.Confidence),
		})
	}
	return out
}

func (s *Service) placeEdgeViews(ctx context.Context, edges []*domain.Edge) []EdgeView {
	out := make([]EdgeView, 0, len(edges))
	for _, edge := range edges {
		name := ""
		if place, err := s.store.GetPlace(ctx, edge.ObjectID); err == nil && place.Supersession.IsActive() {
			name = place.DisplayName
		}
		out = append(out, EdgeView{
			EntityID:     edge.ObjectID,
			DisplayName:  name,
			Relationship: string(edge.Relationship),
			Confidence:   string(edge.Confidence),
		})
	}
	return out
}

// cachedView loads a cached view, treating every cache failure as a miss.
func cachedView[T any](ctx context.Context, s *Service, key string) (*T, bool) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
		return nil, false
	}
	if raw == nil {
		return nil, false
	}
	var view T
	if err := json.Unmarshal(raw, &view); err != nil {
		s.logger.WarnContext(ctx, "cached view corrupt", "key", key, "error", err)
		return nil, false
	}
	return &view, true
}

func (s *Service) cacheView(ctx context.Context, key string, view any) {
	raw, err := marshalView(view)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
}
