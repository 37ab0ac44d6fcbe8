package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"trapper/internal/domain"
	"trapper/pkg/requestcontext"
)

// PlaceGate answers whether a place is blacklisted.
type PlaceGate interface {
	PlaceListed(ctx context.Context, placeID uuid.UUID) (bool, error)
}

// Stats summarizes one linker pass.
type Stats struct {
	VisitsSeen     int `json:"visits_seen"`
	HomeEdges      int `json:"home_edges"`
	InferredEdges  int `json:"inferred_edges"`
	SkippedNoHome  int `json:"skipped_no_home"`
	SkippedGated   int `json:"skipped_gated"`
	RecordFailures int `json:"record_failures"`
}

// Linker computes cat-place residence edges with two strategies: visit-time
// home locations first, caretaker residence inference second. Per-record
// failures are logged and skipped so one bad row never aborts the pass.
type Linker struct {
	store  Store
	gate   PlaceGate
	logger *slog.Logger
	tracer trace.Tracer
}

func NewLinker(store Store, gate PlaceGate, logger *slog.Logger) *Linker {
	return &Linker{
		store:  store,
		gate:   gate,
		logger: logger,
		tracer: otel.Tracer("trapper/graph"),
	}
}

// Run executes one full linking pass. Safe to re-run from scratch: existing
// edges are never duplicated and partially-resolved data is skipped for the
// next pass.
func (l *Linker) Run(ctx context.Context) (Stats, error) {
	ctx, span := l.tracer.Start(ctx, "graph.link")
	defer span.End()

	var stats Stats

	covered, err := l.linkFromVisits(ctx, &stats)
	if err != nil {
		return stats, err
	}
	if err := l.linkFromCaretakers(ctx, covered, &stats); err != nil {
		return stats, err
	}

	l.logger.InfoContext(ctx, "linker pass complete",
		"visits_seen", stats.VisitsSeen,
		"home_edges", stats.HomeEdges,
		"inferred_edges", stats.InferredEdges,
		"skipped_no_home", stats.SkippedNoHome,
		"skipped_gated", stats.SkippedGated,
		"record_failures", stats.RecordFailures,
	)
	return stats, nil
}

// linkFromVisits is the primary strategy: each cat's latest visit carries a
// home location inferred from the visit-time contact address. Only the latest
// visit counts, and an ungated home location means the edge is skipped
// entirely; the clinic's own address is never a fallback.
func (l *Linker) linkFromVisits(ctx context.Context, stats *Stats) (map[uuid.UUID]bool, error) {
	visits, err := l.store.LatestVisits(ctx)
	if err != nil {
		return nil, fmt.Errorf("load latest visits: %w", err)
	}

	covered := make(map[uuid.UUID]bool, len(visits))
	for _, visit := range visits {
		stats.VisitsSeen++

		if visit.HomePlaceID == nil {
			stats.SkippedNoHome++
			l.logger.DebugContext(ctx, "visit has no resolvable home location",
				"cat_id", visit.CatID, "visit_id", visit.ID)
			continue
		}

		ok, err := l.placePassesGate(ctx, *visit.HomePlaceID)
		if err != nil {
			stats.RecordFailures++
			l.logger.WarnContext(ctx, "home location gate check failed",
				"cat_id", visit.CatID, "place_id", *visit.HomePlaceID, "error", err)
			continue
		}
		if !ok {
			stats.SkippedGated++
			continue
		}

		created, err := l.store.UpsertEdge(ctx, domain.EdgeCatPlace, &domain.Edge{
			ID:           uuid.New(),
			SubjectID:    visit.CatID,
			ObjectID:     *visit.HomePlaceID,
			Relationship: domain.RelResidence,
			Evidence:     domain.EvidenceVisitRecord,
			Confidence:   domain.ConfidenceHigh,
			SourceSystem: visit.SourceSystem,
			CreatedAt:    requestcontext.Now(ctx),
			UpdatedAt:    requestcontext.Now(ctx),
		})
		if err != nil {
			stats.RecordFailures++
			l.logger.WarnContext(ctx, "residence edge upsert failed",
				"cat_id", visit.CatID, "place_id", *visit.HomePlaceID, "error", err)
			continue
		}
		if created {
			stats.HomeEdges++
		}
		covered[visit.CatID] = true
	}
	return covered, nil
}

// linkFromCaretakers is the secondary strategy for cats the visit pass did
// not cover: follow caretaking person-cat edges to each person's single best
// person-place edge. The one-location-per-person cap keeps an animal from
// linking to every address its caretaker has ever occupied.
func (l *Linker) linkFromCaretakers(ctx context.Context, covered map[uuid.UUID]bool, stats *Stats) error {
	edges, err := l.store.PersonCatEdges(ctx)
	if err != nil {
		return fmt.Errorf("load person-cat edges: %w", err)
	}

	bestByPerson := make(map[uuid.UUID]*domain.Edge)
	for _, edge := range edges {
		if covered[edge.ObjectID] {
			continue
		}
		if !edge.Relationship.CaretakingRole() {
			continue
		}

		best, found := bestByPerson[edge.SubjectID]
		if !found {
			best, err = l.bestPlaceEdge(ctx, edge.SubjectID)
			if err != nil {
				stats.RecordFailures++
				l.logger.WarnContext(ctx, "best place edge lookup failed",
					"person_id", edge.SubjectID, "error", err)
				continue
			}
			bestByPerson[edge.SubjectID] = best
		}
		if best == nil {
			continue
		}

		ok, err := l.placePassesGate(ctx, best.ObjectID)
		if err != nil {
			stats.RecordFailures++
			continue
		}
		if !ok {
			stats.SkippedGated++
			continue
		}

		created, err := l.store.UpsertEdge(ctx, domain.EdgeCatPlace, &domain.Edge{
			ID:           uuid.New(),
			SubjectID:    edge.ObjectID,
			ObjectID:     best.ObjectID,
			Relationship: domain.RelResidence,
			Evidence:     domain.EvidenceInferred,
			Confidence:   domain.ConfidenceMedium,
			SourceSystem: edge.SourceSystem,
			CreatedAt:    requestcontext.Now(ctx),
			UpdatedAt:    requestcontext.Now(ctx),
		})
		if err != nil {
			stats.RecordFailures++
			l.logger.WarnContext(ctx, "inferred residence upsert failed",
				"cat_id", edge.ObjectID, "place_id", best.ObjectID, "error", err)
			continue
		}
		if created {
			stats.InferredEdges++
		}
	}
	return nil
}

// bestPlaceEdge picks the person's single strongest person-place edge,
// ranked by confidence then recency. Nil when the person has none.
func (l *Linker) bestPlaceEdge(ctx context.Context, personID uuid.UUID) (*domain.Edge, error) {
	edges, err := l.store.EdgesBySubject(ctx, domain.EdgePersonPlace, personID)
	if err != nil {
		return nil, err
	}
	if len(edges) == 0 {
		return nil, nil
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Confidence.Rank() != edges[j].Confidence.Rank() {
			return edges[i].Confidence.Rank() > edges[j].Confidence.Rank()
		}
		return edges[i].UpdatedAt.After(edges[j].UpdatedAt)
	})
	return edges[0], nil
}

// placePassesGate excludes clinics, shelters, offices, blacklisted places,
// and superseded places from home inference.
func (l *Linker) placePassesGate(ctx context.Context, placeID uuid.UUID) (bool, error) {
	place, err := l.store.GetPlace(ctx, placeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if !place.Supersession.IsActive() {
		return false, nil
	}
	if !place.Kind.Residentialish() {
		return false, nil
	}
	listed, err := l.gate.PlaceListed(ctx, placeID)
	if err != nil {
		return false, err
	}
	return !listed, nil
}
