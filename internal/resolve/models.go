// Package resolve implements probabilistic identity resolution: candidate
// scoring, the decision policy gate, and the match decision audit trail.
package resolve

import (
	"github.com/google/uuid"

	"trapper/internal/domain"
	"trapper/internal/normalize"
)

// Request is one identity fragment pushed by an ingestion adapter.
type Request struct {
	SourceSystem   string
	SourceRecordID string
	Email          string
	Phone          string
	FirstName      string
	LastName       string
	DisplayName    string
	Address        string
}

// normalizedInput is the request after canonicalization, the only form the
// gate, scorer, and decision log ever see.
type normalizedInput struct {
	Email       string
	Phone       string
	FirstName   string
	DisplayName string
	Address     string
}

func (r Request) normalize() normalizedInput {
	display := r.DisplayName
	if display == "" {
		display = stringsJoinNonEmpty(r.FirstName, r.LastName)
	}
	return normalizedInput{
		Email:       normalize.Email(r.Email),
		Phone:       normalize.Phone(r.Phone),
		FirstName:   normalize.Name(r.FirstName),
		DisplayName: display,
		Address:     normalize.Address(r.Address),
	}
}

// displayName prefers the source's display name, falling back to joined name
// parts, preserving original casing for display.
func (r Request) displayName() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	return stringsJoinNonEmpty(r.FirstName, r.LastName)
}

func stringsJoinNonEmpty(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p
	}
	return out
}

// Candidate is one scored existing person.
type Candidate struct {
	Person    *domain.Person
	Score     float64
	Breakdown domain.SignalBreakdown
}

// Result is what the caller gets back: the terminal outcome, the person the
// input resolved to (nil only when rejected with no pseudo-account
// configured), and the persisted decision.
type Result struct {
	Outcome  domain.MatchOutcome
	PersonID *uuid.UUID
	Decision *domain.MatchDecision
}

// Config carries the injected scorer weights and policy thresholds.
type Config struct {
	WeightEmail   float64
	WeightPhone   float64
	WeightName    float64
	WeightAddress float64

	AutoMatchThreshold float64
	ReviewThreshold    float64

	MinIdentifierConfidence float64

	PseudoAccountID uuid.UUID
}
