package domain

import (
	"time"

	"github.com/google/uuid"
)

type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

// AlterationStatus records spay/neuter state, the central fact of TNR work.
type AlterationStatus string

const (
	AlteredYes     AlterationStatus = "altered"
	AlteredNo      AlterationStatus = "intact"
	AlteredUnknown AlterationStatus = "unknown"
)

// Cat is a canonical animal. Soft-merge only.
type Cat struct {
	ID           uuid.UUID
	Name         string
	Sex          Sex
	Altered      AlterationStatus
	Descriptors  []string
	ExternalIDs  []string
	DataQuality  DataQuality
	Supersession Supersession
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
