package requests

import "time"

// Status is the lifecycle state of a project request.
type Status string

const (
	StatusDraft           Status = "draft"
	StatusAnalysis        Status = "analysis"
	StatusAwaitingPayment Status = "awaiting_payment"
	StatusInProduction    Status = "in_production"
	StatusDelivered       Status = "delivered"
	StatusCancelled       Status = "cancelled"
)

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// Terminal reports whether the status has no outgoing transitions.
func (s Status) Terminal() bool {
	edges, ok := statusTransitions[s]
	return ok && len(edges) == 0
}

// AIPhaseNone marks a request no analysis provider has processed yet.
const AIPhaseNone = "none"

// Request is a client-submitted project moving through the moderated
// lifecycle. Status is mutated only through the lifecycle service.
type Request struct {
	ID                 string    `json:"id"`
	OwnerID            string    `json:"ownerId"`
	OwnerEmail         string    `json:"ownerEmail,omitempty"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	Status             Status    `json:"status"`
	BudgetProposed     float64   `json:"budgetProposed"`
	FinalPrice         *float64  `json:"finalPrice,omitempty"`
	PriceJustification string    `json:"priceJustification,omitempty"`
	Complexity         string    `json:"complexity"`
	Urgency            string    `json:"urgency"`
	AIPhase            string    `json:"aiPhase"`
	AdminNotes         string    `json:"-"`
	AdminResponse      string    `json:"adminResponse,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// HasQuote reports whether a priced quote is attached: a positive final
// price and a non-empty justification.
func (r Request) HasQuote() bool {
	return r.FinalPrice != nil && *r.FinalPrice > 0 && trimmedNonEmpty(r.PriceJustification)
}

// HistoryEntry is one row of the append-only status audit trail.
type HistoryEntry struct {
	ID        string    `json:"id"`
	RequestID string    `json:"requestId"`
	OldStatus Status    `json:"oldStatus"`
	NewStatus Status    `json:"newStatus"`
	Reason    string    `json:"reason"`
	ActorID   string    `json:"actorId"`
	CreatedAt time.Time `json:"createdAt"`
}

func trimmedNonEmpty(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return true
		}
	}
	return false
}
