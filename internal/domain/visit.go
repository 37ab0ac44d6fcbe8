package domain

import (
	"time"

	"github.com/google/uuid"
)

// Visit is a resolved clinic visit. HomePlaceID is the home location inferred
// from the visit-time contact address, nil when the contact address could not
// be resolved to a place. It is never the clinic's own address.
type Visit struct {
	ID            uuid.UUID
	CatID         uuid.UUID
	ClinicPlaceID uuid.UUID
	HomePlaceID   *uuid.UUID
	VisitedAt     time.Time
	SourceSystem  string
}
