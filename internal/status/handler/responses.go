package handler

import (
	"time"

	"trapper/internal/domain"
)

// ResultResponse is the wire form of a stored test result.
type ResultResponse struct {
	ID        string    `json:"id"`
	CatID     string    `json:"cat_id"`
	Condition string    `json:"condition"`
	Positive  bool      `json:"positive"`
	TestedAt  time.Time `json:"tested_at"`
}

func toResultsResponse(results []*domain.TestResult) []ResultResponse {
	out := make([]ResultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, ResultResponse{
			ID:        r.ID.String(),
			CatID:     r.CatID.String(),
			Condition: string(r.Condition),
			Positive:  r.Positive,
			TestedAt:  r.TestedAt,
		})
	}
	return out
}

// StatusResponse is the wire form of a place status.
type StatusResponse struct {
	PlaceID         string     `json:"place_id"`
	Condition       string     `json:"condition"`
	State           string     `json:"state"`
	FirstPositiveAt *time.Time `json:"first_positive_at,omitempty"`
	LastPositiveAt  *time.Time `json:"last_positive_at,omitempty"`
	PositiveCount   int        `json:"positive_count"`
	CatCount        int        `json:"cat_count"`
	SetBy           string     `json:"set_by"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func toStatusResponse(status *domain.PlaceStatus) StatusResponse {
	return StatusResponse{
		PlaceID:         status.PlaceID.String(),
		Condition:       string(status.Condition),
		State:           string(status.State),
		FirstPositiveAt: status.FirstPositiveAt,
		LastPositiveAt:  status.LastPositiveAt,
		PositiveCount:   status.PositiveCount,
		CatCount:        status.CatCount,
		SetBy:           status.SetBy,
		UpdatedAt:       status.UpdatedAt,
	}
}

func toStatusesResponse(statuses []*domain.PlaceStatus) []StatusResponse {
	out := make([]StatusResponse, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, toStatusResponse(st))
	}
	return out
}
