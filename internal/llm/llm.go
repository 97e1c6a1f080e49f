package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Client abstracts LLM providers for project request analysis.
type Client interface {
	AnalyzeRequest(ctx context.Context, input AnalyzeInput) (json.RawMessage, error)
}

// AnalyzeInput captures the inputs needed for request analysis.
type AnalyzeInput struct {
	Title          string
	Description    string
	Complexity     string
	Urgency        string
	BudgetProposed float64
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// AnalyzeRequest returns ErrNotImplemented.
func (PlaceholderClient) AnalyzeRequest(ctx context.Context, input AnalyzeInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrNotImplemented
}
