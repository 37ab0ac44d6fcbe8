// Package domain holds the canonical entity model shared by every module.
// Types here carry no persistence or transport concerns.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// DataQuality flags records whose source data looked unreliable at ingest.
type DataQuality string

const (
	QualityOK      DataQuality = "ok"
	QualitySuspect DataQuality = "suspect"
	QualityGarbage DataQuality = "garbage"
)

// Person is the canonical human identity. Never hard-deleted: a merged person
// carries a supersession reference to its survivor and is excluded from reads.
type Person struct {
	ID              uuid.UUID
	DisplayName     string
	FirstName       string
	LastName        string
	IsOrganization  bool
	IsSystemAccount bool
	DataQuality     DataQuality
	SourceSystem    string
	SourceRecordID  string
	Supersession    Supersession
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IdentifierType labels a normalized contact fragment.
type IdentifierType string

const (
	IdentifierEmail    IdentifierType = "email"
	IdentifierPhone    IdentifierType = "phone"
	IdentifierExternal IdentifierType = "external_id"
)

// PersonIdentifier is a typed contact fragment owned by exactly one person.
// (Type, ValueNormalized) is unique across all non-superseded people; that
// constraint is the concurrency backstop for resolution.
type PersonIdentifier struct {
	ID              uuid.UUID
	PersonID        uuid.UUID
	Type            IdentifierType
	ValueRaw        string
	ValueNormalized string
	// Confidence in (0,1]; identifiers below the configured minimum are
	// invisible to the scorer so bulk-imported junk cannot create matches.
	Confidence   float64
	SourceSystem string
	CreatedAt    time.Time
}
