package analysis

import (
	"encoding/json"
	"fmt"
)

// providerReply is the JSON contract the provider is prompted to follow.
// Missing fields default rather than fail; only non-JSON replies are
// rejected.
type providerReply struct {
	Summary                string   `json:"summary"`
	Deliverables           []string `json:"deliverables"`
	EstimatedPriceFCFA     *float64 `json:"estimated_price_fcfa"`
	ClarificationQuestions []string `json:"clarification_questions"`
}

// parseReply interprets a raw provider reply into an Analysis skeleton.
func parseReply(raw json.RawMessage) (Analysis, error) {
	var reply providerReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return Analysis{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	a := Analysis{
		Summary:                reply.Summary,
		Deliverables:           reply.Deliverables,
		EstimatedPrice:         reply.EstimatedPriceFCFA,
		ClarificationQuestions: reply.ClarificationQuestions,
		Raw:                    string(raw),
	}
	if a.Deliverables == nil {
		a.Deliverables = []string{}
	}
	if a.ClarificationQuestions == nil {
		a.ClarificationQuestions = []string{}
	}
	return a, nil
}
