package domain

import "github.com/google/uuid"

// Supersession is a tagged reference modelling soft merges: a record is either
// active or superseded by a named survivor. The tag forces read paths to
// handle the superseded case explicitly instead of ignoring a nullable link.
type Supersession struct {
	survivor *uuid.UUID
}

// Active returns the supersession state of a live record.
func Active() Supersession {
	return Supersession{}
}

// SupersededBy returns the supersession state of a merged-away record.
func SupersededBy(survivor uuid.UUID) Supersession {
	s := survivor
	return Supersession{survivor: &s}
}

// IsActive reports whether the record is the canonical survivor.
func (s Supersession) IsActive() bool {
	return s.survivor == nil
}

// Survivor returns the surviving record's ID when superseded.
func (s Supersession) Survivor() (uuid.UUID, bool) {
	if s.survivor == nil {
		return uuid.Nil, false
	}
	return *s.survivor, true
}
