package resolve

import (
	"context"

	"github.com/google/uuid"

	"trapper/internal/domain"
	dErrors "trapper/pkg/domain-errors"
)

// ErrNotFound keeps store-level misses consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")

// Store is the persistence seam for resolution. Implementations must make
// AttachIdentifier an atomic insert-or-get on the (type, normalized value)
// uniqueness constraint: two concurrent attaches of the same value both
// resolve to the single winning owner.
type Store interface {
	// FindOwners returns the non-superseded people owning an exact
	// identifier match at or above the confidence floor.
	FindOwners(ctx context.Context, idType domain.IdentifierType, value string, minConfidence float64) ([]*domain.Person, error)

	GetPerson(ctx context.Context, id uuid.UUID) (*domain.Person, error)
	CreatePerson(ctx context.Context, person *domain.Person) error

	// SupersedePerson soft-deletes loser in favor of survivor.
	SupersedePerson(ctx context.Context, loserID, survivorID uuid.UUID) error

	// AttachIdentifier inserts the identifier or, when the value is already
	// owned, returns the existing owner's ID without modifying anything.
	AttachIdentifier(ctx context.Context, ident *domain.PersonIdentifier) (uuid.UUID, error)

	IdentifiersByPerson(ctx context.Context, personID uuid.UUID) ([]*domain.PersonIdentifier, error)

	// AddressesByPerson returns the formatted addresses of places linked to a
	// person, feeding the weakest scorer signal.
	AddressesByPerson(ctx context.Context, personID uuid.UUID) ([]string, error)

	AppendDecision(ctx context.Context, decision *domain.MatchDecision) error
	GetDecision(ctx context.Context, id uuid.UUID) (*domain.MatchDecision, error)
	AttachReview(ctx context.Context, decisionID uuid.UUID, review domain.ReviewOutcome) error
}
