package audit

import (
	"context"
	"sync"
)

// InMemoryStore backs tests; pending/published bookkeeping mirrors the outbox
// semantics of the postgres store.
type InMemoryStore struct {
	mu        sync.Mutex
	events    []Event
	published map[string]bool
	claimed   map[string]bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		published: make(map[string]bool),
		claimed:   make(map[string]bool),
	}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ClaimPending(_ context.Context, limit int) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if len(out) >= limit {
			break
		}
		id := e.ID.String()
		if s.published[id] || s.claimed[id] {
			continue
		}
		s.claimed[id] = true
		out = append(out, e)
	}
	return out, nil
}

func (s *InMemoryStore) MarkPublished(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published[eventID] = true
	delete(s.claimed, eventID)
	return nil
}

func (s *InMemoryStore) MarkFailed(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claimed, eventID)
	return nil
}

// Events returns a copy of everything appended, for assertions.
func (s *InMemoryStore) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event{}, s.events...)
}
