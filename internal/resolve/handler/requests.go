package handler

import "trapper/internal/resolve"

// ResolveRequest is the wire form of a resolution request.
type ResolveRequest struct {
	SourceSystem   string `json:"source_system"`
	SourceRecordID string `json:"source_record_id"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	DisplayName    string `json:"display_name"`
	Address        string `json:"address"`
}

func (r ResolveRequest) toDomain() resolve.Request {
	return resolve.Request{
		SourceSystem:   r.SourceSystem,
		SourceRecordID: r.SourceRecordID,
		Email:          r.Email,
		Phone:          r.Phone,
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		DisplayName:    r.DisplayName,
		Address:        r.Address,
	}
}

// ReviewRequest records a human review of a pending decision.
type ReviewRequest struct {
	Confirmed bool `json:"confirmed"`
}
