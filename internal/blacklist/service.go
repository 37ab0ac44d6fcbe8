package blacklist

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Service answers blacklist questions for the resolver, linker, and
// propagator. A miss is the common case and is not an error.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Lookup returns the entry for a normalized identifier value, or nil when the
// value is not listed.
func (s *Service) Lookup(ctx context.Context, valueType ValueType, value string) (*Entry, error) {
	if value == "" {
		return nil, nil
	}
	entry, err := s.store.Find(ctx, valueType, value)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("blacklist lookup: %w", err)
	}
	return entry, nil
}

// PlaceListed reports whether a place is on the blacklist. Place entries key
// on the place's UUID so reclassifying an address does not orphan the entry.
func (s *Service) PlaceListed(ctx context.Context, placeID uuid.UUID) (bool, error) {
	entry, err := s.Lookup(ctx, ValuePlace, placeID.String())
	if err != nil {
		return false, err
	}
	return entry != nil, nil
}

// Add registers or updates an entry.
func (s *Service) Add(ctx context.Context, entry *Entry) error {
	if entry.RequiredSimilarity < 0 || entry.RequiredSimilarity > 1 {
		return fmt.Errorf("required similarity must be within [0,1], got %v", entry.RequiredSimilarity)
	}
	return s.store.Save(ctx, entry)
}

// All returns every entry, for the review UI.
func (s *Service) All(ctx context.Context) ([]*Entry, error) {
	return s.store.List(ctx)
}
