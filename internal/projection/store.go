package projection

import (
	"context"

	"github.com/google/uuid"

	"trapper/internal/domain"
	dErrors "trapper/pkg/domain-errors"
)

var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")

// Store is the read seam behind view assembly. All lookups resolve against
// current rows; supersession following happens in the service.
type Store interface {
	GetPerson(ctx context.Context, id uuid.UUID) (*domain.Person, error)
	GetPlace(ctx context.Context, id uuid.UUID) (*domain.Place, error)
	GetCat(ctx context.Context, id uuid.UUID) (*domain.Cat, error)

	IdentifiersByPerson(ctx context.Context, personID uuid.UUID) ([]*domain.PersonIdentifier, error)

	EdgesBySubject(ctx context.Context, kind domain.EdgeKind, subjectID uuid.UUID) ([]*domain.Edge, error)
	EdgesByObject(ctx context.Context, kind domain.EdgeKind, objectID uuid.UUID) ([]*domain.Edge, error)

	StatusesForPlace(ctx context.Context, placeID uuid.UUID) ([]*domain.PlaceStatus, error)
	ResultsByCat(ctx context.Context, catID uuid.UUID) ([]*domain.TestResult, error)
}
