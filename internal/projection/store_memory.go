package projection

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"trapper/internal/domain"
)

// InMemoryStore mirrors the postgres store for tests and local runs.
type InMemoryStore struct {
	mu sync.Mutex

	people      map[uuid.UUID]*domain.Person
	places      map[uuid.UUID]*domain.Place
	cats        map[uuid.UUID]*domain.Cat
	identifiers []*domain.PersonIdentifier
	edges       map[domain.EdgeKind][]*domain.Edge
	statuses    []*domain.PlaceStatus
	results     []*domain.TestResult
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		people: make(map[uuid.UUID]*domain.Person),
		places: make(map[uuid.UUID]*domain.Place),
		cats:   make(map[uuid.UUID]*domain.Cat),
		edges:  make(map[domain.EdgeKind][]*domain.Edge),
	}
}

func (s *InMemoryStore) GetPerson(_ context.Context, id uuid.UUID) (*domain.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	person, ok := s.people[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *person
	return &clone, nil
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

func (s *InMemoryStore) GetCat(_ context.Context, id uuid.UUID) (*domain.Cat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cat, ok := s.cats[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *cat
	return &clone, nil
}

func (s *InMemoryStore) IdentifiersByPerson(_ context.Context, personID uuid.UUID) ([]*domain.PersonIdentifier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.PersonIdentifier
	for _, ident := range s.identifiers {
		if ident.PersonID == personID {
			clone := *ident
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *InMemoryStore) EdgesBySubject(_ context.Context, kind domain.EdgeKind, subjectID uuid.UUID) ([]*domain.Edge, error) {
	return s.filterEdges(kind, func(e *domain.Edge) bool { return e.SubjectID == subjectID })
}

func (s *InMemoryStore) EdgesByObject(_ context.Context, kind domain.EdgeKind, objectID uuid.UUID) ([]*domain.Edge, error) {
	return s.filterEdges(kind, func(e *domain.Edge) bool { return e.ObjectID == objectID })
}

func (s *InMemoryStore) filterEdges(kind domain.EdgeKind, keep func(*domain.Edge) bool) ([]*domain.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Edge
	for _, edge := range s.edges[kind] {
		if keep(edge) {
			clone := *edge
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *InMemoryStore) StatusesForPlace(_ context.Context, placeID uuid.UUID) ([]*domain.PlaceStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.PlaceStatus
	for _, st := range s.statuses {
		if st.PlaceID == placeID {
			clone := *st
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Condition < out[j].Condition })
	return out, nil
}

func (s *InMemoryStore) ResultsByCat(_ context.Context, catID uuid.UUID) ([]*domain.TestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.TestResult
	for _, r := range s.results {
		if r.CatID == catID {
			clone := *r
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TestedAt.After(out[j].TestedAt) })
	return out, nil
}

// Seed helpers for tests.

func (s *InMemoryStore) AddPerson(person *domain.Person) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *person
	s.people[person.ID] = &clone
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

func (s *InMemoryStore) AddIdentifier(ident *domain.PersonIdentifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *ident
	s.identifiers = append(s.identifiers, &clone)
}

func (s *InMemoryStore) AddEdge(kind domain.EdgeKind, edge *domain.Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *edge
	s.edges[kind] = append(s.edges[kind], &clone)
}

func (s *InMemoryStore) AddStatus(status *domain.PlaceStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *status
	s.statuses = append(s.statuses, &clone)
}

func (s *InMemoryStore) AddResult(result *domain.TestResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *result
	s.results = append(s.results, &clone)
}
