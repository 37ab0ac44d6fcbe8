// Package blacklist maintains the registry of identifiers and locations that
// are real but shared or organizational: the clinic's front-desk phone, a
// rescue group's shared inbox, the shelter's own address. Entries do not make
// a value invalid; they demand extra evidence before it counts as a strong
// individual match signal.
package blacklist

import (
	"time"

	"github.com/google/uuid"
)

// EntryKind splits the registry into two behaviors. Shared entries dampen
// match signals and raise the bar for direct matching. Organizational entries
// fail the resolution entry gate outright.
type EntryKind string

const (
	KindShared         EntryKind = "shared"
	KindOrganizational EntryKind = "organizational"
)

// ValueType says what the entry's value is.
type ValueType string

const (
	ValueEmail ValueType = "email"
	ValuePhone ValueType = "phone"
	ValuePlace ValueType = "place"
)

// Entry is one blacklisted value. RequiredSimilarity is the name similarity to
// the current owner that still permits a direct match through a shared
// identifier; 1.0 means only an exact name gets through.
type Entry struct {
	ID                 uuid.UUID
	Type               ValueType
	Value              string // normalized identifier, or place UUID for ValuePlace
	Kind               EntryKind
	RequiredSimilarity float64
	Note               string
	CreatedAt          time.Time
}
