package domain

import (
	"time"

	"github.com/google/uuid"
)

// Condition is a tracked transmissible condition.
type Condition string

const (
	ConditionFIV  Condition = "fiv"
	ConditionFeLV Condition = "felv"
)

// StatusState is the per-(place, condition) state machine. Computed states
// are re-evaluated on every propagator run; manual states are terminal and
// never overwritten by recomputation.
type StatusState string

const (
	StatusSuspected       StatusState = "suspected"
	StatusConfirmedActive StatusState = "confirmed_active"
	StatusHistorical      StatusState = "historical"

	// Manual terminal states.
	StatusPerpetual StatusState = "perpetual"
	StatusFalseFlag StatusState = "false_flag"
	StatusCleared   StatusState = "cleared"
)

// Manual reports whether a state was set by a human and must survive
// recomputation.
func (s StatusState) Manual() bool {
	switch s {
	case StatusPerpetual, StatusFalseFlag, StatusCleared:
		return true
	}
	return false
}

// PlaceStatus is one row per (place, condition), upserted by the propagator.
type PlaceStatus struct {
	ID              uuid.UUID
	PlaceID         uuid.UUID
	Condition       Condition
	State           StatusState
	FirstPositiveAt *time.Time
	LastPositiveAt  *time.Time
	PositiveCount   int
	CatCount        int
	SetBy           string // "system" or the overriding staff subject
	UpdatedAt       time.Time
}

// TestResult is a per-cat evidence event consumed by the propagator.
type TestResult struct {
	ID           uuid.UUID
	CatID        uuid.UUID
	Condition    Condition
	Positive     bool
	ResultRaw    string
	TestedAt     time.Time
	SourceSystem string
}
