package domain

import (
	"time"

	"github.com/google/uuid"
)

// RelationshipType is the constrained edge vocabulary. The same vocabulary
// covers person-cat, person-place, and cat-place edges; each edge kind accepts
// a subset.
type RelationshipType string

const (
	// Person-cat.
	RelOwner            RelationshipType = "owner"
	RelFoster           RelationshipType = "foster"
	RelCaretaker        RelationshipType = "caretaker"
	RelAdopter          RelationshipType = "adopter"
	RelColonyCaretaker  RelationshipType = "colony_caretaker"
	RelStaffContact     RelationshipType = "staff_contact"
	RelCoordinator      RelationshipType = "coordinator"

	// Person-place.
	RelResident      RelationshipType = "resident"
	RelPropertyOwner RelationshipType = "property_owner"

	// Cat-place.
	RelResidence       RelationshipType = "residence"
	RelTreatedAt       RelationshipType = "treated_at"
	RelTrappedAt       RelationshipType = "trapped_at"
	RelFosterTemporary RelationshipType = "foster_temporary"
)

// Residential reports whether a cat-place relationship means "lives here"
// rather than "was processed here". Only residential edges feed the status
// propagator.
func (r RelationshipType) Residential() bool {
	return r == RelResidence
}

// CaretakingRole reports whether a person-cat relationship qualifies for
// home-location inference. Staff and coordinator contacts are excluded: a
// clinic tech is not where the cat lives.
func (r RelationshipType) CaretakingRole() bool {
	switch r {
	case RelOwner, RelFoster, RelCaretaker, RelAdopter, RelColonyCaretaker:
		return true
	}
	return false
}

// EvidenceType records how an edge was established.
type EvidenceType string

const (
	EvidenceVisitRecord EvidenceType = "visit_record"
	EvidenceWebForm     EvidenceType = "web_form"
	EvidenceStaffEntry  EvidenceType = "staff_entry"
	EvidenceInferred    EvidenceType = "inferred"
)

// ConfidenceLevel orders edge trust for best-edge selection.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// Rank maps confidence to a sortable value, higher is stronger.
func (c ConfidenceLevel) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	}
	return 0
}

// Edge is a directional relationship between two canonical entities. At most
// one edge exists per (subject, object, relationship type); repeated
// observations update evidence rather than duplicating the edge.
type Edge struct {
	ID           uuid.UUID
	SubjectID    uuid.UUID
	ObjectID     uuid.UUID
	Relationship RelationshipType
	Evidence     EvidenceType
	Confidence   ConfidenceLevel
	SourceSystem string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EdgeKind partitions the edge store by entity pairing.
type EdgeKind string

const (
	EdgePersonCat   EdgeKind = "person_cat"
	EdgePersonPlace EdgeKind = "person_place"
	EdgeCatPlace    EdgeKind = "cat_place"
)
