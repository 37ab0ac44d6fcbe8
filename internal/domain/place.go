package domain

import (
	"time"

	"github.com/google/uuid"
)

// PlaceKind tags what a location is. Non-residential kinds are excluded from
// home inference and status computation: cats are treated at clinics, they do
// not live there.
type PlaceKind string

const (
	PlaceResidential PlaceKind = "residential"
	PlaceClinic      PlaceKind = "clinic"
	PlaceShelter     PlaceKind = "shelter"
	PlaceOffice      PlaceKind = "office"
	PlaceUnknown     PlaceKind = "unknown"
)

// Residentialish reports whether the kind may host resident animals. Unknown
// is included: an ungeocoded address is assumed residential until reclassified.
func (k PlaceKind) Residentialish() bool {
	return k == PlaceResidential || k == PlaceUnknown
}

// Place is a canonical location. Soft-merge only; ParentID links sub-units
// (apartment, trailer lot) to their parent property.
type Place struct {
	ID               uuid.UUID
	DisplayName      string
	FormattedAddress string
	Latitude         *float64
	Longitude        *float64
	Kind             PlaceKind
	ParentID         *uuid.UUID
	Supersession     Supersession
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
