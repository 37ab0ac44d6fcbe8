package domain

import (
	"time"

	"github.com/google/uuid"
)

// MatchOutcome is the terminal result of one resolution attempt.
type MatchOutcome string

const (
	OutcomeRejected      MatchOutcome = "rejected"
	OutcomeAutoMatched   MatchOutcome = "auto_matched"
	OutcomeReviewPending MatchOutcome = "review_pending"
	OutcomeNewEntity     MatchOutcome = "new_entity"
)

// SignalBreakdown is the per-signal contribution behind a candidate score.
// Stored with every decision so a reviewer can reconstruct why the policy
// chose what it chose.
type SignalBreakdown struct {
	Email     float64  `json:"email"`
	Phone     float64  `json:"phone"`
	Name      float64  `json:"name"`
	Address   float64  `json:"address"`
	MatchedOn []string `json:"matched_on"`
}

// Total sums the weighted signals.
func (b SignalBreakdown) Total() float64 {
	return b.Email + b.Phone + b.Name + b.Address
}

// ReviewOutcome is attached once a human works a review-pending decision.
type ReviewOutcome struct {
	Confirmed  bool
	ReviewedBy string
	ReviewedAt time.Time
}

// MatchDecision is the immutable audit record of one resolution attempt.
// Exactly one row per call; only a review outcome may be attached later.
type MatchDecision struct {
	ID             uuid.UUID
	SourceSystem   string
	SourceRecordID string

	// Normalized inputs, exactly as the gate and scorer saw them.
	InputEmail   string
	InputPhone   string
	InputName    string
	InputAddress string

	BestCandidateID *uuid.UUID
	Score           float64
	Breakdown       SignalBreakdown

	Outcome      MatchOutcome
	RejectReason string
	// RejectClass is the rejection error code ("validation_rejected" or
	// "classification_rejected"); empty for non-rejected outcomes.
	RejectClass string
	PersonID    *uuid.UUID

	Review    *ReviewOutcome
	CreatedAt time.Time
}
