package status

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"trapper/internal/domain"
)

type statusKey struct {
	placeID   uuid.UUID
	condition domain.Condition
}

// InMemoryStore mirrors the postgres store for tests and local runs.
type InMemoryStore struct {
	mu sync.Mutex

	results  []*domain.TestResult
	edges    []*domain.Edge
	places   map[uuid.UUID]*domain.Place
	cats     map[uuid.UUID]*domain.Cat
	statuses map[statusKey]*domain.PlaceStatus
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		places:   make(map[uuid.UUID]*domain.Place),
		cats:     make(map[uuid.UUID]*domain.Cat),
		statuses: make(map[statusKey]*domain.PlaceStatus),
	}
}

func (s *InMemoryStore) InsertResult(_ context.Context, result *domain.TestResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *result
	s.results = append(s.results, &clone)
	return nil
}

func (s *InMemoryStore) PositiveResults(_ context.Context) ([]*domain.TestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.TestResult
	for _, r := range s.results {
		if !r.Positive {
			continue
		}
		clone := *r
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TestedAt.Before(out[j].TestedAt) })
	return out, nil
}

func (s *InMemoryStore) ResidenceEdges(_ context.Context) ([]*domain.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Edge
	for _, edge := range s.edges {
		if !edge.Relationship.Residential() {
			continue
		}
		if cat, ok := s.cats[edge.SubjectID]; ok && !cat.Supersession.IsActive() {
			continue
		}
		clone := *edge
		out = append(out, &clone)
	}
	return out, nil
}

func (s *InMemoryStore) HasNonResidentialContext(_ context.Context, placeID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, edge := range s.edges {
		if edge.ObjectID != placeID || edge.Relationship.Residential() {
			continue
		}
		if cat, ok := s.cats[edge.SubjectID]; ok && !cat.Supersession.IsActive() {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (s *InMemoryStore) GetPlace(_ context.Context, id uuid.UUID) (*domain.Place, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	place, ok := s.places[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *place
	return &clone, nil
}

func (s *InMemoryStore) GetStatus(_ context.Context, placeID uuid.UUID, condition domain.Condition) (*domain.PlaceStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.statuses[statusKey{placeID, condition}]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *status
	return &clone, nil
}

func (s *InMemoryStore) UpsertStatus(_ context.Context, status *domain.PlaceStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *status
	s.statuses[statusKey{status.PlaceID, status.Condition}] = &clone
	return nil
}

func (s *InMemoryStore) StatusesForPlace(_ context.Context, placeID uuid.UUID) ([]*domain.PlaceStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.PlaceStatus
	for key, status := range s.statuses {
		if key.placeID == placeID {
			clone := *status
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Condition < out[j].Condition })
	return out, nil
}

// Seed helpers for tests.

func (s *InMemoryStore) AddEdge(edge *domain.Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *edge
	s.edges = append(s.edges, &clone)
}

func (s *InMemoryStore) AddPlace(place *domain.Place) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *place
	s.places[place.ID] = &clone
}

func (s *InMemoryStore) AddCat(cat *domain.Cat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *cat
	s.cats[cat.ID] = &clone
}

// Results snapshots all stored test results, for assertions.
func (s *InMemoryStore) Results() []*domain.TestResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.TestResult, 0, len(s.results))
	for _, r := range s.results {
		clone := *r
		out = append(out, &clone)
	}
	return out
}
