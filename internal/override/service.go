package override

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"trapper/internal/audit"
	"trapper/internal/domain"
	dErrors "trapper/pkg/domain-errors"
	"trapper/pkg/requestcontext"
)

// AuditSink receives override audit events.
type AuditSink interface {
	Emit(ctx context.Context, event audit.Event) error
}

// CacheInvalidator drops cached read views after a correction.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, kind string, ids ...uuid.UUID)
}

// MergeResult reports what a merge moved.
type MergeResult struct {
	SurvivorID       uuid.UUID `json:"survivor_id"`
	LoserID          uuid.UUID `json:"loser_id"`
	IdentifiersMoved int       `json:"identifiers_moved"`
	EdgesMoved       int       `json:"edges_moved"`
}

// Service applies staff corrections.
type Service struct {
	store  Store
	audit  AuditSink
	cache  CacheInvalidator
	logger *slog.Logger
}

func NewService(store Store, sink AuditSink, cache CacheInvalidator, logger *slog.Logger) *Service {
	return &Service{store: store, audit: sink, cache: cache, logger: logger}
}

// MergePeople folds the loser into the survivor: the loser's identifiers and
// edges move over, then the loser is marked superseded. Reads of the loser's
// ID keep working through the supersession reference.
func (s *Service) MergePeople(ctx context.Context, loserID, survivorID uuid.UUID) (*MergeResult, error) {
	actor := requestcontext.Actor(ctx)
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "merge requires an authenticated actor")
	}
	if loserID == survivorID {
		return nil, dErrors.New(dErrors.CodeBadRequest, "cannot merge a person into itself")
	}

	result := &MergeResult{SurvivorID: survivorID, LoserID: loserID}
	err := s.store.InTx(ctx, func(ctx context.Context) error {
		loser, err := s.store.GetPerson(ctx, loserID)
		if err != nil {
			return err
		}
		if !loser.Supersession.IsActive() {
			return dErrors.New(dErrors.CodeConflict, "person is already merged")
		}
		survivor, err := s.store.GetPerson(ctx, survivorID)
		if err != nil {
			return err
		}
		if !survivor.Supersession.IsActive() {
			return dErrors.New(dErrors.CodeConflict, "survivor is already merged")
		}

		moved, err := s.store.MoveIdentifiers(ctx, loserID, survivorID)
		if err != nil {
			return fmt.Errorf("move identifiers: %w", err)
		}
		result.IdentifiersMoved = moved

		for _, kind := range []domain.EdgeKind{domain.EdgePersonCat, domain.EdgePersonPlace} {
			n, err := s.store.MoveEdges(ctx, kind, loserID, survivorID)
			if err != nil {
				return fmt.Errorf("move %s edges: %w", kind, err)
			}
			result.EdgesMoved += n
		}

		return s.store.SupersedePerson(ctx, loserID, survivorID)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, "person", loserID, survivorID)
	if err := s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionPersonMerged,
		Subject: loserID.String(),
		Detail:  fmt.Sprintf(`{"survivor_id":%q,"identifiers_moved":%d,"edges_moved":%d}`, survivorID, result.IdentifiersMoved, result.EdgesMoved),
	}); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", audit.ActionPersonMerged, "error", err)
	}
	return result, nil
}

// ReclassifyPlace changes a place's kind. Reclassifying away from residential
// takes effect on the next linker and propagator runs; existing statuses stay
// until then.
func (s *Service) ReclassifyPlace(ctx context.Context, placeID uuid.UUID, kind domain.PlaceKind) (*domain.Place, error) {
	actor := requestcontext.Actor(ctx)
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "reclassification requires an authenticated actor")
	}
	switch kind {
	case domain.PlaceResidential, domain.PlaceClinic, domain.PlaceShelter, domain.PlaceOffice, domain.PlaceUnknown:
	default:
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown place kind %q", kind)
	}

	place, err := s.store.GetPlace(ctx, placeID)
	if err != nil {
		return nil, err
	}
	if !place.Supersession.IsActive() {
		return nil, dErrors.New(dErrors.CodeConflict, "place is superseded")
	}
	previous := place.Kind
	if previous == kind {
		return place, nil
	}

	if err := s.store.UpdatePlaceKind(ctx, placeID, kind); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update place kind: %w", err)
	}
	place.Kind = kind

	s.cache.Invalidate(ctx, "place", placeID)
	if err := s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionPlaceReclassified,
		Subject: placeID.String(),
		Detail:  fmt.Sprintf(`{"from":%q,"to":%q}`, previous, kind),
	}); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", audit.ActionPlaceReclassified, "error", err)
	}
	return place, nil
}
