package override

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"trapper/internal/domain"
)

type identifierKey struct {
	idType domain.IdentifierType
	value  string
}

type edgeKey struct {
	kind         domain.EdgeKind
	objectID     uuid.UUID
	relationship domain.RelationshipType
}

// InMemoryStore mirrors the postgres store for tests and local runs. InTx is
// a plain passthrough; the single mutex already serializes writers.
type InMemoryStore struct {
	mu sync.Mutex

	people      map[uuid.UUID]*domain.Person
	places      map[uuid.UUID]*domain.Place
	identifiers map[uuid.UUID]map[identifierKey]*domain.PersonIdentifier
	edges       map[uuid.UUID]map[edgeKey]*domain.Edge
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		people:      make(map[uuid.UUID]*domain.Person),
		places:      make(map[uuid.UUID]*domain.Place),
		identifiers: make(map[uuid.UUID]map[identifierKey]*domain.PersonIdentifier),
		edges:       make(map[uuid.UUID]map[edgeKey]*domain.Edge),
	}
}

func (s *InMemoryStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
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

func (s *InMemoryStore) SupersedePerson(_ context.Context, loserID, survivorID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	person, ok := s.people[loserID]
	if !ok || !person.Supersession.IsActive() {
		return ErrNotFound
	}
	person.Supersession = domain.SupersededBy(survivorID)
	return nil
}

func (s *InMemoryStore) MoveIdentifiers(_ context.Context, loserID, survivorID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.identifiers[loserID]
	to := s.identifiers[survivorID]
	if to == nil {
		to = make(map[identifierKey]*domain.PersonIdentifier)
		s.identifiers[survivorID] = to
	}

	moved := 0
	for key, ident := range from {
		if _, exists := to[key]; !exists {
			ident.PersonID = survivorID
			to[key] = ident
			moved++
		}
	}
	delete(s.identifiers, loserID)
	return moved, nil
}

func (s *InMemoryStore) MoveEdges(_ context.Context, kind domain.EdgeKind, loserID, survivorID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.edges[loserID]
	to := s.edges[survivorID]
	if to == nil {
		to = make(map[edgeKey]*domain.Edge)
		s.edges[survivorID] = to
	}

	moved := 0
	for key, edge := range from {
		if key.kind != kind {
			continue
		}
		if _, exists := to[key]; !exists {
			edge.SubjectID = survivorID
			to[key] = edge
			moved++
		}
		delete(from, key)
	}
	return moved, nil
}

func (s *InMemoryStore) UpdatePlaceKind(_ context.Context, placeID uuid.UUID, kind domain.PlaceKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	place, ok := s.places[placeID]
	if !ok {
		return ErrNotFound
	}
	place.Kind = kind
	return nil
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

func (s *InMemoryStore) AddIdentifier(ident *domain.PersonIdentifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owned := s.identifiers[ident.PersonID]
	if owned == nil {
		owned = make(map[identifierKey]*domain.PersonIdentifier)
		s.identifiers[ident.PersonID] = owned
	}
	clone := *ident
	owned[identifierKey{ident.Type, ident.ValueNormalized}] = &clone
}

func (s *InMemoryStore) AddEdge(kind domain.EdgeKind, edge *domain.Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owned := s.edges[edge.SubjectID]
	if owned == nil {
		owned = make(map[edgeKey]*domain.Edge)
		s.edges[edge.SubjectID] = owned
	}
	clone := *edge
	owned[edgeKey{kind, edge.ObjectID, edge.Relationship}] = &clone
}

// IdentifiersOf snapshots a person's identifiers, for assertions.
func (s *InMemoryStore) IdentifiersOf(personID uuid.UUID) []*domain.PersonIdentifier {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.PersonIdentifier
	for _, ident := range s.identifiers[personID] {
		clone := *ident
		out = append(out, &clone)
	}
	return out
}

// EdgesOf snapshots a person's edges of a kind, for assertions.
func (s *InMemoryStore) EdgesOf(kind domain.EdgeKind, personID uuid.UUID) []*domain.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Edge
	for key, edge := range s.edges[personID] {
		if key.kind == kind {
			clone := *edge
			out = append(out, &clone)
		}
	}
	return out
}
