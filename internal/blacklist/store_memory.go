package blacklist

import (
	"context"
	"sync"
)

type memoryKey struct {
	valueType ValueType
	value     string
}

// InMemoryStore backs tests and local development.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[memoryKey]*Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[memoryKey]*Entry)}
}

func (s *InMemoryStore) Find(_ context.Context, valueType ValueType, value string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[memoryKey{valueType, value}]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *entry
	return &copied, nil
}

func (s *InMemoryStore) Save(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *entry
	s.entries[memoryKey{entry.Type, entry.Value}] = &copied
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		copied := *entry
		out = append(out, &copied)
	}
	return out, nil
}
