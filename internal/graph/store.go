// Package graph builds directional relationship edges between canonical
// entities under bounded rules. The linker is a re-runnable batch pass, not a
// service: it holds no lock across a scan and leans on per-edge uniqueness to
// stay idempotent.
package graph

import (
	"context"

	"github.com/google/uuid"

	"trapper/internal/domain"
	dErrors "trapper/pkg/domain-errors"
)

// ErrNotFound keeps store-level misses consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")

// Store is the persistence seam for the linker.
type Store interface {
	// UpsertEdge inserts an edge unless one already exists for the same
	// (kind, subject, object, relationship). Returns true when a new edge
	// was created.
	UpsertEdge(ctx context.Context, kind domain.EdgeKind, edge *domain.Edge) (bool, error)

	EdgesBySubject(ctx context.Context, kind domain.EdgeKind, subjectID uuid.UUID) ([]*domain.Edge, error)

	// LatestVisits returns the most recent clinic visit per cat.
	LatestVisits(ctx context.Context) ([]*domain.Visit, error)

	// PersonCatEdges returns all person-cat edges whose endpoints are both
	// non-superseded.
	PersonCatEdges(ctx context.Context) ([]*domain.Edge, error)

	GetPlace(ctx context.Context, id uuid.UUID) (*domain.Place, error)
}
