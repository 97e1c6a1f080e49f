package openai

import (
	"fmt"
	"strings"

	"studio-backend/internal/llm"
)

// Message is a single chat message sent to the provider.
type Message struct {
	Role    string
	Content string
}

const systemPrompt = `You are a project intake analyst for a creative studio.
Given a client's project request, reply with a JSON object containing exactly
these fields:
  "summary": one paragraph describing the project in plain language,
  "deliverables": an array of strings naming the artifacts the studio should produce,
  "estimated_price_fcfa": a number, the estimated price in FCFA,
  "clarification_questions": an array of strings, questions the studio should ask the client.
Reply with JSON only.`

// BuildPrompt builds the chat messages for a request analysis. The same
// input always produces the same messages.
func BuildPrompt(input llm.AnalyzeInput) []Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", strings.TrimSpace(input.Title))
	fmt.Fprintf(&b, "Description: %s\n", strings.TrimSpace(input.Description))
	fmt.Fprintf(&b, "Complexity: %s\n", strings.TrimSpace(input.Complexity))
	fmt.Fprintf(&b, "Urgency: %s\n", strings.TrimSpace(input.Urgency))
	fmt.Fprintf(&b, "Proposed budget (FCFA): %.0f\n", input.BudgetProposed)

	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: b.String()},
	}
}

// buildFixPrompt asks the provider to repair a non-JSON reply.
func buildFixPrompt(raw []byte) []Message {
	return []Message{
		{Role: "system", Content: "You repair malformed JSON. Reply with the corrected JSON object only, no prose."},
		{Role: "user", Content: string(raw)},
	}
}
