package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"studio-backend/internal/llm"
	"studio-backend/internal/requests"
)

type stubClient struct {
	replies []string
	errs    []error
	calls   int
}

func (s *stubClient) AnalyzeRequest(context.Context, llm.AnalyzeInput) (json.RawMessage, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return json.RawMessage(s.replies[i]), nil
}

func newTestService(t *testing.T, client llm.Client) (*Service, *requests.MemoryRepo) {
	t.Helper()
	reqRepo := requests.NewMemoryRepo()
	req := requests.Request{
		ID:          "req-1",
		OwnerID:     "user-1",
		Title:       "Brand site",
		Description: "Five page marketing site",
		Complexity:  "medium",
		Urgency:     "normal",
		Status:      requests.StatusAnalysis,
		AIPhase:     requests.AIPhaseNone,
	}
	if err := reqRepo.Create(context.Background(), req); err != nil {
		t.Fatalf("seed request: %v", err)
	}
	svc := &Service{
		Repo:     NewMemoryRepo(),
		Requests: reqRepo,
		Client:   client,
		Provider: "openai",
		Model:    "gpt-4o-mini",
	}
	return svc, reqRepo
}

func TestAnalyzeStoresResultAndPhase(t *testing.T) {
	client := &stubClient{replies: []string{
		`{"summary":"a brand site","deliverables":["homepage","contact page"],"estimated_price_fcfa":450000,"clarification_questions":["hosting included?"]}`,
	}}
	svc, reqRepo := newTestService(t, client)

	a, err := svc.Analyze(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if a.Summary != "a brand site" {
		t.Errorf("summary = %q", a.Summary)
	}
	if len(a.Deliverables) != 2 {
		t.Errorf("deliverables = %v", a.Deliverables)
	}
	if a.EstimatedPrice == nil || *a.EstimatedPrice != 450000 {
		t.Errorf("estimated price = %v", a.EstimatedPrice)
	}
	if a.Provider != "openai" {
		t.Errorf("provider = %q", a.Provider)
	}

	req, err := reqRepo.GetByID(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if req.AIPhase != "openai" {
		t.Errorf("ai phase = %q, want openai", req.AIPhase)
	}
}

func TestAnalyzeReplacesPreviousResult(t *testing.T) {
	client := &stubClient{replies: []string{
		`{"summary":"first pass"}`,
		`{"summary":"second pass","deliverables":["logo"]}`,
	}}
	svc, _ := newTestService(t, client)

	if _, err := svc.Analyze(context.Background(), "req-1"); err != nil {
		t.Fatalf("first Analyze: %v", err)
	}
	if _, err := svc.Analyze(context.Background(), "req-1"); err != nil {
		t.Fatalf("second Analyze: %v", err)
	}

	stored, err := svc.Get(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Summary != "second pass" {
		t.Errorf("summary = %q, want second pass", stored.Summary)
	}
}

func TestAnalyzeProviderFailureWritesNothing(t *testing.T) {
	client := &stubClient{errs: []error{errors.New("upstream 503")}}
	svc, reqRepo := newTestService(t, client)

	_, err := svc.Analyze(context.Background(), "req-1")
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("Analyze = %v, want ErrProvider", err)
	}

	if _, err := svc.Get(context.Background(), "req-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after failure = %v, want ErrNotFound", err)
	}
	req, _ := reqRepo.GetByID(context.Background(), "req-1")
	if req.AIPhase != requests.AIPhaseNone {
		t.Errorf("ai phase = %q, want none", req.AIPhase)
	}
}

func TestAnalyzeUnparseableReplyWritesNothing(t *testing.T) {
	client := &stubClient{replies: []string{"definitely not json"}}
	svc, _ := newTestService(t, client)

	_, err := svc.Analyze(context.Background(), "req-1")
	if !errors.Is(err, ErrParse) {
		t.Fatalf("Analyze = %v, want ErrParse", err)
	}
	if _, err := svc.Get(context.Background(), "req-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after failure = %v, want ErrNotFound", err)
	}
}

func TestParseReplyDefaultsMissingFields(t *testing.T) {
	a, err := parseReply(json.RawMessage(`{"summary":"just a summary"}`))
	if err != nil {
		t.Fatalf("parseReply: %v", err)
	}
	if a.Deliverables == nil || len(a.Deliverables) != 0 {
		t.Errorf("deliverables = %v, want empty slice", a.Deliverables)
	}
	if a.ClarificationQuestions == nil || len(a.ClarificationQuestions) != 0 {
		t.Errorf("questions = %v, want empty slice", a.ClarificationQuestions)
	}
	if a.EstimatedPrice != nil {
		t.Errorf("estimated price = %v, want nil", a.EstimatedPrice)
	}
}

func TestAnalyzeUnknownRequest(t *testing.T) {
	svc, _ := newTestService(t, &stubClient{})
	_, err := svc.Analyze(context.Background(), "missing")
	if !errors.Is(err, requests.ErrNotFound) {
		t.Fatalf("Analyze = %v, want requests.ErrNotFound", err)
	}
}
