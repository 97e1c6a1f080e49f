package analysis

import "time"

// Analysis is the AI assessment of one request. A request has at most
// one analysis; re-running replaces the previous one.
type Analysis struct {
	RequestID              string    `json:"requestId"`
	Summary                string    `json:"summary"`
	Deliverables           []string  `json:"deliverables"`
	EstimatedPrice         *float64  `json:"estimatedPrice,omitempty"`
	ClarificationQuestions []string  `json:"clarificationQuestions"`
	Provider               string    `json:"provider"`
	Model                  string    `json:"model,omitempty"`
	Raw                    string    `json:"-"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}
