// Package override holds the staff-only corrections that the automated
// passes must never make on their own: merging duplicate people and
// reclassifying places. Merges are soft; nothing is hard-deleted.
package override

import (
	"context"

	"github.com/google/uuid"

	"trapper/internal/domain"
	dErrors "trapper/pkg/domain-errors"
)

var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")

// Store is the persistence seam for manual corrections.
type Store interface {
	// InTx runs fn inside one transaction; every store call fn makes through
	// its context joins that transaction.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error

	GetPerson(ctx context.Context, id uuid.UUID) (*domain.Person, error)
	GetPlace(ctx context.Context, id uuid.UUID) (*domain.Place, error)

	SupersedePerson(ctx context.Context, loserID, survivorID uuid.UUID) error

	// MoveIdentifiers reassigns the loser's identifiers to the survivor,
	// dropping any whose normalized value the survivor already owns.
	MoveIdentifiers(ctx context.Context, loserID, survivorID uuid.UUID) (int, error)

	// MoveEdges reassigns the loser's person edges to the survivor, dropping
	// duplicates the survivor already carries.
	MoveEdges(ctx context.Context, kind domain.EdgeKind, loserID, survivorID uuid.UUID) (int, error)

	UpdatePlaceKind(ctx context.Context, placeID uuid.UUID, kind domain.PlaceKind) error
}
