// Package status derives per-place disease statuses from resident cats' test
// results and decays them over time. Computed states are recomputed on every
// propagator run; manually set states are terminal.
package status

import (
	"context"

	"github.com/google/uuid"

	"trapper/internal/domain"
	dErrors "trapper/pkg/domain-errors"
)

var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")

// Store is the persistence seam for test results and place statuses.
type Store interface {
	InsertResult(ctx context.Context, result *domain.TestResult) error

	// PositiveResults returns every positive test result, oldest first.
	PositiveResults(ctx context.Context) ([]*domain.TestResult, error)

	// ResidenceEdges returns cat-place edges with a residential relationship
	// whose cat endpoint is non-superseded.
	ResidenceEdges(ctx context.Context) ([]*domain.Edge, error)

	// HasNonResidentialContext reports whether any non-superseded cat holds a
	// non-residential edge (treated_at, trapped_at, foster_temporary) at the
	// place. Such a place is processing animals, not housing them.
	HasNonResidentialContext(ctx context.Context, placeID uuid.UUID) (bool, error)

	GetPlace(ctx context.Context, id uuid.UUID) (*domain.Place, error)

	// GetStatus returns the current row for (place, condition), ErrNotFound
	// when none exists yet.
	GetStatus(ctx context.Context, placeID uuid.UUID, condition domain.Condition) (*domain.PlaceStatus, error)

	UpsertStatus(ctx context.Context, status *domain.PlaceStatus) error

	StatusesForPlace(ctx context.Context, placeID uuid.UUID) ([]*domain.PlaceStatus, error)
}
