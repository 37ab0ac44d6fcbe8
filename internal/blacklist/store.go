package blacklist

import (
	"context"

	dErrors "trapper/pkg/domain-errors"
)

// ErrNotFound keeps store-level misses consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "blacklist entry not found")

// Store persists blacklist entries. Lookups are by normalized value.
type Store interface {
	Find(ctx context.Context, valueType ValueType, value string) (*Entry, error)
	Save(ctx context.Context, entry *Entry) error
	List(ctx context.Context) ([]*Entry, error)
}
