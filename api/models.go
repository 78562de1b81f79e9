package api

import "github.com/yourusername/txpolicies/core"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// PolicyRequest is the body of PUT /api/v1/policies/:addr and PUT /api/v1/default
type PolicyRequest struct {
	Rates           []int              `json:"rates"`
	NoAck           bool               `json:"no_ack"`
	RateSelection   core.RateSelection `json:"rate_selection"`
	RTSCTSThreshold *int               `json:"rts_cts_threshold,omitempty"` // Optional: default 2436
}

// threshold returns the requested threshold or the default
func (r PolicyRequest) threshold() int {
	if r.RTSCTSThreshold == nil {
		return core.DefaultRTSCTSThreshold
	}
	return *r.RTSCTSThreshold
}

// PolicyResponse is one resolved policy
type PolicyResponse struct {
	Address string      `json:"address"`
	Policy  core.Policy `json:"policy"`
	Source  string      `json:"source"`
}

// TableResponse is the JSON view of the whole table
type TableResponse struct {
	Default core.Policy      `json:"default"`
	Entries []PolicyResponse `json:"entries"`
	Count   int              `json:"count"`
}
