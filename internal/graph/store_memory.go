package graph

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"trapper/internal/domain"
)

type edgeKey struct {
	kind         domain.EdgeKind
	subjectID    uuid.UUID
	objectID     uuid.UUID
	relationship domain.RelationshipType
}

// InMemoryStore mirrors the postgres store for tests and local runs.
type InMemoryStore struct {
	mu sync.Mutex

	edges      map[edgeKey]*domain.Edge
	visits     []*domain.Visit
	places     map[uuid.UUID]*domain.Place
	people     map[uuid.UUID]*domain.Person
	cats       map[uuid.UUID]*domain.Cat
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		edges:  make(map[edgeKey]*domain.Edge),
		places: make(map[uuid.UUID]*domain.Place),
		people: make(map[uuid.UUID]*domain.Person),
		cats:   make(map[uuid.UUID]*domain.Cat),
	}
}

func (s *InMemoryStore) UpsertEdge(_ context.Context, kind domain.EdgeKind, edge *domain.Edge) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := edgeKey{kind, edge.SubjectID, edge.ObjectID, edge.Relationship}
	existing, ok := s.edges[key]
	if !ok {
		clone := *edge
		s.edges[key] = &clone
		return true, nil
	}
	if existing.Confidence == domain.ConfidenceHigh && edge.Confidence != domain.ConfidenceHigh {
		return false, nil
	}
	existing.Evidence = edge.Evidence
	existing.Confidence = edge.Confidence
	existing.UpdatedAt = edge.UpdatedAt
	return false, nil
}

func (s *InMemoryStore) EdgesBySubject(_ context.Context, kind domain.EdgeKind, subjectID uuid.UUID) ([]*domain.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Edge
	for key, edge := range s.edges {
		if key.kind == kind && key.subjectID == subjectID {
			clone := *edge
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *InMemoryStore) LatestVisits(_ context.Context) ([]*domain.Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest := make(map[uuid.UUID]*domain.Visit)
	for _, visit := range s.visits {
		best, ok := latest[visit.CatID]
		if !ok || visit.VisitedAt.After(best.VisitedAt) {
			latest[visit.CatID] = visit
		}
	}

	out := make([]*domain.Visit, 0, len(latest))
	for _, visit := range latest {
		clone := *visit
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CatID.String() < out[j].CatID.String()
	})
	return out, nil
}

func (s *InMemoryStore) PersonCatEdges(_ context.Context) ([]*domain.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Edge
	for key, edge := range s.edges {
		if key.kind != domain.EdgePersonCat {
			continue
		}
		if person, ok := s.people[edge.SubjectID]; ok && !person.Supersession.IsActive() {
			continue
		}
		if cat, ok := s.cats[edge.ObjectID]; ok && !cat.Supersession.IsActive() {
			continue
		}
		clone := *edge
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubjectID != out[j].SubjectID {
			return out[i].SubjectID.String() < out[j].SubjectID.String()
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
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

// Seed helpers for tests.

func (s *InMemoryStore) AddVisit(visit *domain.Visit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *visit
	s.visits = append(s.visits, &clone)
}

func (s *InMemoryStore) AddPlace(place *domain.Place) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *place
	s.places[place.ID] = &clone
}

func (s *InMemoryStore) AddPerson(person *domain.Person) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *person
	s.people[person.ID] = &clone
}

func (s *InMemoryStore) AddCat(cat *domain.Cat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *cat
	s.cats[cat.ID] = &clone
}

// Edges snapshots all stored edges of a kind, for assertions.
func (s *InMemoryStore) Edges(kind domain.EdgeKind) []*domain.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Edge
	for key, edge := range s.edges {
		if key.kind == kind {
			clone := *edge
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubjectID != out[j].SubjectID {
			return out[i].SubjectID.String() < out[j].SubjectID.String()
		}
		return out[i].ObjectID.String() < out[j].ObjectID.String()
	})
	return out
}
