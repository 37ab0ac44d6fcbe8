package handler

// RecordResultRequest is the wire form of a test observation.
type RecordResultRequest struct {
	CatID        string `json:"cat_id"`
	TestType     string `json:"test_type"`
	Result       string `json:"result"`
	SourceSystem string `json:"source_system"`
}

// OverrideRequest pins a place condition to a manual state.
type OverrideRequest struct {
	State string `json:"state"`
}
