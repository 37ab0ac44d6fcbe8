package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"trapper/internal/audit"
	"trapper/internal/domain"
	dErrors "trapper/pkg/domain-errors"
	"trapper/pkg/requestcontext"
)

// AuditSink receives status audit events.
type AuditSink interface {
	Emit(ctx context.Context, event audit.Event) error
}

// ResultInput is a raw test observation as ingested. TestType may be a single
// condition or the combined snap test; combined results fan out to one stored
// result per condition.
type ResultInput struct {
	CatID        uuid.UUID
	TestType     string // "fiv", "felv", or "fiv_felv_combo"
	ResultRaw    string
	SourceSystem string
}

const comboTestType = "fiv_felv_combo"

// Service records test results and applies manual status overrides.
type Service struct {
	store  Store
	audit  AuditSink
	logger *slog.Logger
}

func NewService(store Store, sink AuditSink, logger *slog.Logger) *Service {
	return &Service{store: store, audit: sink, logger: logger}
}

// RecordResult stores a test observation. The combined FIV/FeLV snap test
// reports both conditions in one raw value ("negative/positive", FIV first);
// it is split into one result row per condition so the propagator never has
// to parse raw strings.
func (s *Service) RecordResult(ctx context.Context, input ResultInput) ([]*domain.TestResult, error) {
	if input.CatID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "cat_id is required")
	}

	type reading struct {
		condition domain.Condition
		raw       string
	}
	var readings []reading

	switch strings.ToLower(strings.TrimSpace(input.TestType)) {
	case string(domain.ConditionFIV):
		readings = []reading{{domain.ConditionFIV, input.ResultRaw}}
	case string(domain.ConditionFeLV):
		readings = []reading{{domain.ConditionFeLV, input.ResultRaw}}
	case comboTestType:
		parts := strings.SplitN(input.ResultRaw, "/", 2)
		if len(parts) != 2 {
			return nil, dErrors.Newf(dErrors.CodeBadRequest, "combo result %q must be fiv/felv", input.ResultRaw)
		}
		readings = []reading{
			{domain.ConditionFIV, strings.TrimSpace(parts[0])},
			{domain.ConditionFeLV, strings.TrimSpace(parts[1])},
		}
	default:
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown test type %q", input.TestType)
	}

	results := make([]*domain.TestResult, 0, len(readings))
	for _, r := range readings {
		result := &domain.TestResult{
			ID:           uuid.New(),
			CatID:        input.CatID,
			Condition:    r.condition,
			Positive:     parsePositive(r.raw),
			ResultRaw:    r.raw,
			TestedAt:     requestcontext.Now(ctx),
			SourceSystem: input.SourceSystem,
		}
		if err := s.store.InsertResult(ctx, result); err != nil {
			return nil, fmt.Errorf("insert test result: %w", err)
		}
		results = append(results, result)
	}
	return results, nil
}

func parsePositive(raw string) bool {
	v := strings.ToLower(strings.TrimSpace(raw))
	return v == "positive" || v == "pos" || v == "+"
}

// Override pins a (place, condition) to a manual terminal state. Manual states
// survive every subsequent propagator run until another override replaces
// them.
func (s *Service) Override(ctx context.Context, placeID uuid.UUID, condition domain.Condition, state domain.StatusState) (*domain.PlaceStatus, error) {
	actor := requestcontext.Actor(ctx)
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "status override requires an authenticated actor")
	}
	if !state.Manual() {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "state %q is not a manual state", state)
	}

	current, err := s.store.GetStatus(ctx, placeID, condition)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	next := &domain.PlaceStatus{
		ID:        uuid.New(),
		PlaceID:   placeID,
		Condition: condition,
		State:     state,
		SetBy:     actor,
		UpdatedAt: requestcontext.Now(ctx),
	}
	if current != nil {
		next.ID = current.ID
		next.FirstPositiveAt = current.FirstPositiveAt
		next.LastPositiveAt = current.LastPositiveAt
		next.PositiveCount = current.PositiveCount
		next.CatCount = current.CatCount
	}
	if err := s.store.UpsertStatus(ctx, next); err != nil {
		return nil, fmt.Errorf("upsert status override: %w", err)
	}

	if err := s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionStatusOverridden,
		Subject: placeID.String(),
		Detail:  fmt.Sprintf(`{"condition":%q,"state":%q}`, condition, state),
	}); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", audit.ActionStatusOverridden, "error", err)
	}
	return next, nil
}

// StatusesForPlace lists current statuses for one place.
func (s *Service) StatusesForPlace(ctx context.Context, placeID uuid.UUID) ([]*domain.PlaceStatus, error) {
	return s.store.StatusesForPlace(ctx, placeID)
}
