package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"trapper/internal/audit"
	"trapper/internal/domain"
	"trapper/internal/status/metrics"
	"trapper/pkg/requestcontext"
)

// PlaceGate answers whether a place is blacklisted.
type PlaceGate interface {
	PlaceListed(ctx context.Context, placeID uuid.UUID) (bool, error)
}

// Config holds per-condition decay windows.
type Config struct {
	FIVWindow  time.Duration
	FeLVWindow time.Duration
}

func (c Config) window(condition domain.Condition) time.Duration {
	if condition == domain.ConditionFeLV {
		return c.FeLVWindow
	}
	return c.FIVWindow
}

// Stats summarizes one propagator run.
type Stats struct {
	PlacesEvaluated int `json:"places_evaluated"`
	Transitions     int `json:"transitions"`
	ManualSkipped   int `json:"manual_skipped"`
	RecordFailures  int `json:"record_failures"`
}

const propagateConcurrency = 8

// Propagator recomputes place statuses from resident cats' positive test
// results. Evidence within the condition's decay window keeps a place active;
// older evidence decays to historical. A run is a pure function of the current
// data plus manual pins, so it is safe to re-run at any time.
type Propagator struct {
	store   Store
	gate    PlaceGate
	audit   AuditSink
	logger  *slog.Logger
	metrics *metrics.Metrics
	cfg     Config
	tracer  trace.Tracer
}

func NewPropagator(store Store, gate PlaceGate, sink AuditSink, logger *slog.Logger, m *metrics.Metrics, cfg Config) *Propagator {
	return &Propagator{
		store:   store,
		gate:    gate,
		audit:   sink,
		logger:  logger,
		metrics: m,
		cfg:     cfg,
		tracer:  otel.Tracer("trapper/status"),
	}
}

// catEvidence is the per-cat, per-condition rollup of positive results.
type catEvidence struct {
	first time.Time
	last  time.Time
	count int
}

// placeEvidence is the per-place, per-condition aggregate over resident cats.
type placeEvidence struct {
	first      time.Time
	last       time.Time
	positives  int
	cats       int
	directEdge bool
}

// Run executes one full propagation pass.
func (p *Propagator) Run(ctx context.Context) (Stats, error) {
	ctx, span := p.tracer.Start(ctx, "status.propagate")
	defer span.End()

	start := time.Now()
	defer func() { p.metrics.ObservePropagateLatency(time.Since(start)) }()

	results, err := p.store.PositiveResults(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("load positive results: %w", err)
	}
	edges, err := p.store.ResidenceEdges(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("load residence edges: %w", err)
	}

	byCat := rollupByCat(results)
	byPlace := rollupByPlace(edges, byCat)

	var mu sync.Mutex
	var stats Stats

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(propagateConcurrency)
	for placeID, evidence := range byPlace {
		g.Go(func() error {
			transitions, manualSkipped, err := p.evaluatePlace(gctx, placeID, evidence)

			mu.Lock()
			defer mu.Unlock()
			stats.PlacesEvaluated++
			stats.Transitions += transitions
			stats.ManualSkipped += manualSkipped
			if err != nil {
				// One bad place never aborts the pass.
				stats.RecordFailures++
				p.logger.WarnContext(gctx, "place evaluation failed", "place_id", placeID, "error", err)
			}
			p.metrics.IncrementPlacesEvaluated()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	p.logger.InfoContext(ctx, "propagator run complete",
		"places_evaluated", stats.PlacesEvaluated,
		"transitions", stats.Transitions,
		"manual_skipped", stats.ManualSkipped,
		"record_failures", stats.RecordFailures,
	)
	return stats, nil
}

func rollupByCat(results []*domain.TestResult) map[uuid.UUID]map[domain.Condition]*catEvidence {
	byCat := make(map[uuid.UUID]map[domain.Condition]*catEvidence)
	for _, r := range results {
		if !r.Positive {
			continue
		}
		conditions := byCat[r.CatID]
		if conditions == nil {
			conditions = make(map[domain.Condition]*catEvidence)
			byCat[r.CatID] = conditions
		}
		ev := conditions[r.Condition]
		if ev == nil {
			ev = &catEvidence{first: r.TestedAt, last: r.TestedAt}
			conditions[r.Condition] = ev
		}
		if r.TestedAt.Before(ev.first) {
			ev.first = r.TestedAt
		}
		if r.TestedAt.After(ev.last) {
			ev.last = r.TestedAt
		}
		ev.count++
	}
	return byCat
}

func rollupByPlace(edges []*domain.Edge, byCat map[uuid.UUID]map[domain.Condition]*catEvidence) map[uuid.UUID]map[domain.Condition]*placeEvidence {
	byPlace := make(map[uuid.UUID]map[domain.Condition]*placeEvidence)
	for _, edge := range edges {
		conditions, ok := byCat[edge.SubjectID]
		if !ok {
			continue
		}
		placeConditions := byPlace[edge.ObjectID]
		if placeConditions == nil {
			placeConditions = make(map[domain.Condition]*placeEvidence)
			byPlace[edge.ObjectID] = placeConditions
		}
		for condition, catEv := range conditions {
			ev := placeConditions[condition]
			if ev == nil {
				ev = &placeEvidence{first: catEv.first, last: catEv.last}
				placeConditions[condition] = ev
			}
			if catEv.first.Before(ev.first) {
				ev.first = catEv.first
			}
			if catEv.last.After(ev.last) {
				ev.last = catEv.last
			}
			ev.positives += catEv.count
			ev.cats++
			if edge.Confidence == domain.ConfidenceHigh {
				ev.directEdge = true
			}
		}
	}
	return byPlace
}

// evaluatePlace applies the eligibility gate and writes one status row per
// condition with evidence.
func (p *Propagator) evaluatePlace(ctx context.Context, placeID uuid.UUID, evidence map[domain.Condition]*placeEvidence) (transitions, manualSkipped int, err error) {
	eligible, err := p.placeEligible(ctx, placeID)
	if err != nil {
		return 0, 0, err
	}
	if !eligible {
		return 0, 0, nil
	}

	for condition, ev := range evidence {
		current, err := p.store.GetStatus(ctx, placeID, condition)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return transitions, manualSkipped, err
		}
		if current != nil && current.State.Manual() {
			manualSkipped++
			continue
		}

		state := p.computeState(ctx, condition, ev)
		next := &domain.PlaceStatus{
			ID:              uuid.New(),
			PlaceID:         placeID,
			Condition:       condition,
			State:           state,
			FirstPositiveAt: &ev.first,
			LastPositiveAt:  &ev.last,
			PositiveCount:   ev.positives,
			CatCount:        ev.cats,
			SetBy:           "system",
			UpdatedAt:       requestcontext.Now(ctx),
		}
		if current != nil {
			next.ID = current.ID
		}
		if err := p.store.UpsertStatus(ctx, next); err != nil {
			return transitions, manualSkipped, fmt.Errorf("upsert status: %w", err)
		}

		if current == nil || current.State != state {
			transitions++
			p.metrics.IncrementTransition(string(condition), string(state))
			p.emitComputed(ctx, next, current)
		}
	}
	return transitions, manualSkipped, nil
}

// computeState maps evidence age and edge strength to a state. Fresh evidence
// through a high-confidence residence edge confirms the place; fresh evidence
// known only through inferred edges keeps it suspected. Evidence older than
// the condition's decay window is historical either way.
func (p *Propagator) computeState(ctx context.Context, condition domain.Condition, ev *placeEvidence) domain.StatusState {
	age := requestcontext.Now(ctx).Sub(ev.last)
	if age > p.cfg.window(condition) {
		return domain.StatusHistorical
	}
	if ev.directEdge {
		return domain.StatusConfirmedActive
	}
	return domain.StatusSuspected
}

func (p *Propagator) placeEligible(ctx context.Context, placeID uuid.UUID) (bool, error) {
	place, err := p.store.GetPlace(ctx, placeID)
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
	listed, err := p.gate.PlaceListed(ctx, placeID)
	if err != nil {
		return false, err
	}
	if listed {
		return false, nil
	}

	// A residential-tagged address currently serving as a foster or treatment
	// site describes where animals are processed, not where they live.
	processing, err := p.store.HasNonResidentialContext(ctx, placeID)
	if err != nil {
		return false, err
	}
	return !processing, nil
}

func (p *Propagator) emitComputed(ctx context.Context, next *domain.PlaceStatus, previous *domain.PlaceStatus) {
	var from domain.StatusState
	if previous != nil {
		from = previous.State
	}
	detail, _ := json.Marshal(map[string]any{
		"condition":      next.Condition,
		"from":           from,
		"to":             next.State,
		"positive_count": next.PositiveCount,
		"cat_count":      next.CatCount,
	})
	if err := p.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionStatusComputed,
		Subject: next.PlaceID.String(),
		Detail:  string(detail),
	}); err != nil {
		p.logger.WarnContext(ctx, "audit emit failed", "action", audit.ActionStatusComputed, "error", err)
	}
}
