package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"trapper/internal/audit"
	"trapper/internal/blacklist"
	"trapper/internal/domain"
	"trapper/internal/normalize"
	"trapper/internal/resolve/metrics"
	dErrors "trapper/pkg/domain-errors"
	"trapper/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// BlacklistChecker is the blacklist seam the policy needs.
type BlacklistChecker interface {
	Lookup(ctx context.Context, valueType blacklist.ValueType, value string) (*blacklist.Entry, error)
}

// AuditSink receives decision audit events.
type AuditSink interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the decision policy and gatekeeper. Every call produces exactly
// one match decision row, whatever the outcome.
type Service struct {
	store     Store
	blacklist BlacklistChecker
	audit     AuditSink
	logger    *slog.Logger
	metrics   *metrics.Metrics
	cfg       Config
}

func NewService(store Store, bl BlacklistChecker, sink AuditSink, logger *slog.Logger, m *metrics.Metrics, cfg Config) *Service {
	return &Service{
		store:     store,
		blacklist: bl,
		audit:     sink,
		logger:    logger,
		metrics:   m,
		cfg:       cfg,
	}
}

// Resolve runs the full policy: entry gate, direct-lookup short-circuit,
// scoring, then one of the four terminal outcomes.
func (s *Service) Resolve(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveResolveLatency(time.Since(start)) }()

	input := req.normalize()
	decision := &domain.MatchDecision{
		ID:             uuid.New(),
		SourceSystem:   req.SourceSystem,
		SourceRecordID: req.SourceRecordID,
		InputEmail:     input.Email,
		InputPhone:     input.Phone,
		InputName:      input.DisplayName,
		InputAddress:   input.Address,
		CreatedAt:      requestcontext.Now(ctx),
	}

	rejection, err := s.checkGate(ctx, input)
	if err != nil {
		return nil, err
	}
	if rejection != nil {
		return s.finishRejected(ctx, decision, rejection)
	}

	bl, err := s.fetchBlacklist(ctx, input)
	if err != nil {
		return nil, err
	}

	// Direct-lookup short-circuit: the primary defense against duplicate
	// creation. The scorer never runs when a unique owner already holds one
	// of the identifiers.
	owner, err := s.directLookup(ctx, input, bl)
	if err != nil {
		return nil, err
	}
	if owner != nil {
		if _, err := s.attachIdentifiers(ctx, owner.ID, req, input, bl); err != nil {
			return nil, err
		}
		decision.Outcome = domain.OutcomeAutoMatched
		decision.PersonID = &owner.ID
		decision.BestCandidateID = &owner.ID
		decision.Score = 1.0
		decision.Breakdown = domain.SignalBreakdown{MatchedOn: []string{"direct_identifier"}}
		return s.finish(ctx, decision)
	}

	candidates, err := s.score(ctx, input, bl)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveCandidates(len(candidates))

	if len(candidates) > 0 {
		top := candidates[0]
		decision.BestCandidateID = &top.Person.ID
		decision.Score = top.Score
		decision.Breakdown = top.Breakdown

		switch {
		case top.Score >= s.cfg.AutoMatchThreshold:
			if _, err := s.attachIdentifiers(ctx, top.Person.ID, req, input, bl); err != nil {
				return nil, err
			}
			decision.Outcome = domain.OutcomeAutoMatched
			decision.PersonID = &top.Person.ID
			return s.finish(ctx, decision)

		case top.Score >= s.cfg.ReviewThreshold:
			// The existing candidate is returned flagged; no identifiers are
			// attached until a human confirms.
			decision.Outcome = domain.OutcomeReviewPending
			decision.PersonID = &top.Person.ID
			return s.finish(ctx, decision)
		}
	}

	personID, raced, err := s.createPerson(ctx, req, input, bl)
	if err != nil {
		return nil, err
	}
	if raced {
		// A concurrent resolution won the identifier; this call resolves to
		// the winning owner instead of reporting a second new entity.
		decision.Outcome = domain.OutcomeAutoMatched
		decision.Breakdown = domain.SignalBreakdown{MatchedOn: []string{"direct_identifier"}}
	} else {
		decision.Outcome = domain.OutcomeNewEntity
	}
	decision.PersonID = &personID
	return s.finish(ctx, decision)
}

// fetchBlacklist pre-loads shared-entry state for both identifiers.
func (s *Service) fetchBlacklist(ctx context.Context, input normalizedInput) (blacklistContext, error) {
	var bl blacklistContext
	var err error
	if input.Email != "" {
		if bl.email, err = s.blacklist.Lookup(ctx, blacklist.ValueEmail, input.Email); err != nil {
			return bl, err
		}
	}
	if input.Phone != "" {
		if bl.phone, err = s.blacklist.Lookup(ctx, blacklist.ValuePhone, input.Phone); err != nil {
			return bl, err
		}
	}
	return bl, nil
}

// directLookup returns the unique non-superseded owner of the input's email
// or phone, if one exists. A shared-blacklisted identifier only short-circuits
// when the input name clears the entry's required similarity against the
// owner; otherwise resolution falls through to scoring, where the shared
// signal is dampened instead.
func (s *Service) directLookup(ctx context.Context, input normalizedInput, bl blacklistContext) (*domain.Person, error) {
	type probe struct {
		idType domain.IdentifierType
		value  string
		entry  *blacklist.Entry
	}
	probes := []probe{
		{domain.IdentifierEmail, input.Email, bl.email},
		{domain.IdentifierPhone, input.Phone, bl.phone},
	}

	for _, p := range probes {
		if p.value == "" {
			continue
		}
		owners, err := s.store.FindOwners(ctx, p.idType, p.value, s.cfg.MinIdentifierConfidence)
		if err != nil {
			return nil, fmt.Errorf("direct lookup %s: %w", p.idType, err)
		}
		if len(owners) != 1 {
			continue
		}
		owner := owners[0]
		if p.entry != nil {
			sim := nameSimilarityTo(input, owner)
			if sim < p.entry.RequiredSimilarity {
				continue
			}
		}
		return owner, nil
	}
	return nil, nil
}

// createPerson creates a new canonical person and attaches the input's
// identifiers. When an attach loses a concurrency race, the fresh person is
// superseded in favor of the winning owner and that owner's ID is returned
// with raced=true; the conflict is resolution, not an error.
func (s *Service) createPerson(ctx context.Context, req Request, input normalizedInput, bl blacklistContext) (uuid.UUID, bool, error) {
	now := requestcontext.Now(ctx)
	person := &domain.Person{
		ID:             uuid.New(),
		DisplayName:    req.displayName(),
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		DataQuality:    domain.QualityOK,
		SourceSystem:   req.SourceSystem,
		SourceRecordID: req.SourceRecordID,
		Supersession:   domain.Active(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreatePerson(ctx, person); err != nil {
		return uuid.Nil, false, fmt.Errorf("create person: %w", err)
	}

	resolvedID, err := s.attachIdentifiers(ctx, person.ID, req, input, bl)
	if err != nil {
		return uuid.Nil, false, err
	}
	if resolvedID != person.ID {
		if err := s.store.SupersedePerson(ctx, person.ID, resolvedID); err != nil {
			return uuid.Nil, false, fmt.Errorf("supersede raced person: %w", err)
		}
		return resolvedID, true, nil
	}

	if err := s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionPersonCreated,
		Subject: person.ID.String(),
		Detail:  fmt.Sprintf(`{"source_system":%q}`, req.SourceSystem),
	}); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", audit.ActionPersonCreated, "error", err)
	}
	return person.ID, false, nil
}

// attachIdentifiers attaches the input's identifiers idempotently and returns
// the person every identifier ultimately resolved to. Attaching a value
// already owned elsewhere routes to that owner instead of erroring, except
// for shared-blacklisted values: those stay with their current holder, since
// a shared inbox or community phone is never grounds for folding two people
// together.
func (s *Service) attachIdentifiers(ctx context.Context, personID uuid.UUID, req Request, input normalizedInput, bl blacklistContext) (uuid.UUID, error) {
	resolved := personID
	attach := func(idType domain.IdentifierType, raw, normalized string, entry *blacklist.Entry) error {
		if normalized == "" {
			return nil
		}
		ownerID, err := s.store.AttachIdentifier(ctx, &domain.PersonIdentifier{
			ID:              uuid.New(),
			PersonID:        resolved,
			Type:            idType,
			ValueRaw:        raw,
			ValueNormalized: normalized,
			Confidence:      defaultIdentifierConfidence,
			SourceSystem:    req.SourceSystem,
			CreatedAt:       requestcontext.Now(ctx),
		})
		if err != nil {
			return fmt.Errorf("attach %s identifier: %w", idType, err)
		}
		if ownerID != resolved {
			if entry != nil {
				s.logger.InfoContext(ctx, "shared identifier left with current holder",
					"identifier_type", idType,
					"holder_id", ownerID,
				)
				return nil
			}
			s.logger.InfoContext(ctx, "identifier already owned, routing to existing owner",
				"identifier_type", idType,
				"owner_id", ownerID,
			)
			resolved = ownerID
		}
		return nil
	}

	if err := attach(domain.IdentifierEmail, req.Email, input.Email, bl.email); err != nil {
		return uuid.Nil, err
	}
	if err := attach(domain.IdentifierPhone, req.Phone, input.Phone, bl.phone); err != nil {
		return uuid.Nil, err
	}
	return resolved, nil
}

const defaultIdentifierConfidence = 0.9

func (s *Service) finishRejected(ctx context.Context, decision *domain.MatchDecision, rejection *gateRejection) (*Result, error) {
	decision.Outcome = domain.OutcomeRejected
	decision.RejectReason = rejection.Err.Description
	decision.RejectClass = string(rejection.Err.Code)
	if s.cfg.PseudoAccountID != uuid.Nil {
		pseudo := s.cfg.PseudoAccountID
		decision.PersonID = &pseudo
	}
	return s.finish(ctx, decision)
}

// finish persists the decision, emits the audit event, and shapes the result.
// Every resolution path ends here exactly once.
func (s *Service) finish(ctx context.Context, decision *domain.MatchDecision) (*Result, error) {
	if err := s.store.AppendDecision(ctx, decision); err != nil {
		return nil, fmt.Errorf("append match decision: %w", err)
	}
	s.metrics.IncrementOutcome(string(decision.Outcome), decision.SourceSystem)

	detail, _ := json.Marshal(map[string]any{
		"outcome":       decision.Outcome,
		"score":         decision.Score,
		"reject_reason": decision.RejectReason,
		"reject_class":  decision.RejectClass,
	})
	if err := s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionResolutionDecided,
		Subject: decision.ID.String(),
		Detail:  string(detail),
	}); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", audit.ActionResolutionDecided, "error", err)
	}

	return &Result{
		Outcome:  decision.Outcome,
		PersonID: decision.PersonID,
		Decision: decision,
	}, nil
}

// AttachReview records a human review outcome on a pending decision. The
// decision row itself stays immutable apart from this attachment.
func (s *Service) AttachReview(ctx context.Context, decisionID uuid.UUID, confirmed bool) error {
	actor := requestcontext.Actor(ctx)
	if actor == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "review requires an authenticated actor")
	}
	decision, err := s.store.GetDecision(ctx, decisionID)
	if err != nil {
		return err
	}
	if decision.Outcome != domain.OutcomeReviewPending {
		return dErrors.New(dErrors.CodeConflict, "decision is not pending review")
	}

	review := domain.ReviewOutcome{
		Confirmed:  confirmed,
		ReviewedBy: actor,
		ReviewedAt: requestcontext.Now(ctx),
	}
	if err := s.store.AttachReview(ctx, decisionID, review); err != nil {
		return fmt.Errorf("attach review: %w", err)
	}

	if err := s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionReviewRecorded,
		Subject: decisionID.String(),
		Detail:  fmt.Sprintf(`{"confirmed":%t}`, confirmed),
	}); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", audit.ActionReviewRecorded, "error", err)
	}
	return nil
}

func nameSimilarityTo(input normalizedInput, person *domain.Person) float64 {
	return normalize.NameSimilarity(input.DisplayName, person.DisplayName)
}
