package handler

import (
	"trapper/internal/domain"
	"trapper/internal/resolve"
)

// ResolveResponse is the wire form of a resolution result.
type ResolveResponse struct {
	Outcome      string                 `json:"outcome"`
	PersonID     string                 `json:"person_id,omitempty"`
	DecisionID   string                 `json:"decision_id"`
	Score        float64                `json:"score"`
	Breakdown    domain.SignalBreakdown `json:"breakdown"`
	RejectReason string                 `json:"reject_reason,omitempty"`
	RejectClass  string                 `json:"reject_class,omitempty"`
}

func toResolveResponse(result *resolve.Result) ResolveResponse {
	resp := ResolveResponse{
		Outcome:      string(result.Outcome),
		DecisionID:   result.Decision.ID.String(),
		Score:        result.Decision.Score,
		Breakdown:    result.Decision.Breakdown,
		RejectReason: result.Decision.RejectReason,
		RejectClass:  result.Decision.RejectClass,
	}
	if result.PersonID != nil {
		resp.PersonID = result.PersonID.String()
	}
	return resp
}
