// Package projection assembles read views over the canonical graph. Views
// are denormalized aggregates cached in Redis with a short TTL; writes go
// through the owning modules, never through here.
package projection

import (
	"time"

	"github.com/google/uuid"
)

// PersonView is the aggregate detail payload for one person.
type PersonView struct {
	ID          uuid.UUID        `json:"id"`
	DisplayName string           `json:"display_name"`
	FirstName   string           `json:"first_name,omitempty"`
	LastName    string           `json:"last_name,omitempty"`
	DataQuality string           `json:"data_quality"`
	Identifiers []IdentifierView `json:"identifiers"`
	Cats        []EdgeView       `json:"cats"`
	Places      []EdgeView       `json:"places"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// PlaceView is the aggregate detail payload for one place.
type PlaceView struct {
	ID               uuid.UUID    `json:"id"`
	DisplayName      string       `json:"display_name"`
	FormattedAddress string       `json:"formatted_address"`
	Kind             string       `json:"kind"`
	Latitude         *float64     `json:"latitude,omitempty"`
	Longitude        *float64     `json:"longitude,omitempty"`
	Statuses         []StatusView `json:"statuses"`
	ResidentCats     []EdgeView   `json:"resident_cats"`
	People           []EdgeView   `json:"people"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// CatView is the aggregate detail payload for one cat.
type CatView struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Sex         string       `json:"sex"`
	Altered     string       `json:"altered"`
	Descriptors []string     `json:"descriptors,omitempty"`
	Residences  []EdgeView   `json:"residences"`
	Caretakers  []EdgeView   `json:"caretakers"`
	TestResults []ResultView `json:"test_results"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// IdentifierView is a contact fragment inside a person view.
type IdentifierView struct {
	Type       string  `json:"type"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// EdgeView is one related entity inside a view.
type EdgeView struct {
	EntityID     uuid.UUID `json:"entity_id"`
	DisplayName  string    `json:"display_name"`
	Relationship string    `json:"relationship"`
	Confidence   string    `json:"confidence"`
}

// StatusView is one place condition status inside a place view.
type StatusView struct {
	Condition      string     `json:"condition"`
	State          string     `json:"state"`
	LastPositiveAt *time.Time `json:"last_positive_at,omitempty"`
	PositiveCount  int        `json:"positive_count"`
	CatCount       int        `json:"cat_count"`
}

// ResultView is one test result inside a cat view.
type ResultView struct {
	Condition string    `json:"condition"`
	Positive  bool      `json:"positive"`
	TestedAt  time.Time `json:"tested_at"`
}
