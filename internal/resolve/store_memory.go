package resolve

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

// InMemoryStore backs tests and local development. One mutex covers person
// and identifier state so insert-or-get stays atomic, mirroring the postgres
// uniqueness constraint.
type InMemoryStore struct {
	mu          sync.RWMutex
	people      map[uuid.UUID]*domain.Person
	identifiers map[identifierKey]*domain.PersonIdentifier
	byPerson    map[uuid.UUID][]*domain.PersonIdentifier
	addresses   map[uuid.UUID][]string
	decisions   map[uuid.UUID]*domain.MatchDecision
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		people:      make(map[uuid.UUID]*domain.Person),
		identifiers: make(map[identifierKey]*domain.PersonIdentifier),
		byPerson:    make(map[uuid.UUID][]*domain.PersonIdentifier),
		addresses:   make(map[uuid.UUID][]string),
		decisions:   make(map[uuid.UUID]*domain.MatchDecision),
	}
}

func (s *InMemoryStore) FindOwners(_ context.Context, idType domain.IdentifierType, value string, minConfidence float64) ([]*domain.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ident, ok := s.identifiers[identifierKey{idType, value}]
	if !ok || ident.Confidence < minConfidence {
		return nil, nil
	}
	person, ok := s.people[ident.PersonID]
	if !ok || !person.Supersession.IsActive() {
		return nil, nil
	}
	copied := *person
	return []*domain.Person{&copied}, nil
}

func (s *InMemoryStore) GetPerson(_ context.Context, id uuid.UUID) (*domain.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	person, ok := s.people[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *person
	return &copied, nil
}

func (s *InMemoryStore) CreatePerson(_ context.Context, person *domain.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *person
	s.people[person.ID] = &copied
	return nil
}

func (s *InMemoryStore) SupersedePerson(_ context.Context, loserID, survivorID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	loser, ok := s.people[loserID]
	if !ok {
		return ErrNotFound
	}
	loser.Supersession = domain.SupersededBy(survivorID)
	return nil
}

func (s *InMemoryStore) AttachIdentifier(_ context.Context, ident *domain.PersonIdentifier) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := identifierKey{ident.Type, ident.ValueNormalized}
	if existing, ok := s.identifiers[key]; ok {
		return existing.PersonID, nil
	}
	copied := *ident
	s.identifiers[key] = &copied
	s.byPerson[ident.PersonID] = append(s.byPerson[ident.PersonID], &copied)
	return ident.PersonID, nil
}

func (s *InMemoryStore) IdentifiersByPerson(_ context.Context, personID uuid.UUID) ([]*domain.PersonIdentifier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idents := s.byPerson[personID]
	out := make([]*domain.PersonIdentifier, 0, len(idents))
	for _, ident := range idents {
		copied := *ident
		out = append(out, &copied)
	}
	return out, nil
}

func (s *InMemoryStore) AddressesByPerson(_ context.Context, personID uuid.UUID) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.addresses[personID]...), nil
}

// LinkAddress associates a known address with a person, for tests.
func (s *InMemoryStore) LinkAddress(personID uuid.UUID, address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addresses[personID] = append(s.addresses[personID], address)
}

func (s *InMemoryStore) AppendDecision(_ context.Context, decision *domain.MatchDecision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *decision
	s.decisions[decision.ID] = &copied
	return nil
}

func (s *InMemoryStore) GetDecision(_ context.Context, id uuid.UUID) (*domain.MatchDecision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	decision, ok := s.decisions[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *decision
	return &copied, nil
}

func (s *InMemoryStore) AttachReview(_ context.Context, decisionID uuid.UUID, review domain.ReviewOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	decision, ok := s.decisions[decisionID]
	if !ok {
		return ErrNotFound
	}
	decision.Review = &review
	return nil
}

// Decisions returns every decision logged, for assertions.
func (s *InMemoryStore) Decisions() []*domain.MatchDecision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.MatchDecision, 0, len(s.decisions))
	for _, d := range s.decisions {
		copied := *d
		out = append(out, &copied)
	}
	return out
}
