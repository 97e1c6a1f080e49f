package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studio-backend/internal/llm"
	"studio-backend/internal/requests"
	"studio-backend/internal/shared/metrics"
	"studio-backend/internal/shared/telemetry"
)

// Service runs AI analyses over requests. An analysis can be re-run at
// any time; the new result replaces the old one. A failed run leaves
// the previous analysis and the request untouched.
type Service struct {
	Repo     Repo
	Requests requests.Repo
	Client   llm.Client
	Provider string
	Model    string
}

// Analyze runs the provider over the request and stores the result.
func (s *Service) Analyze(ctx context.Context, requestID string) (Analysis, error) {
	req, err := s.Requests.GetByID(ctx, requestID)
	if err != nil {
		return Analysis{}, err
	}

	input := llm.AnalyzeInput{
		Title:          req.Title,
		Description:    req.Description,
		Complexity:     req.Complexity,
		Urgency:        req.Urgency,
		BudgetProposed: req.BudgetProposed,
	}

	started := time.Now()
	raw, err := s.Client.AnalyzeRequest(ctx, input)
	metrics.ObserveAnalysisDurationMs(float64(time.Since(started).Milliseconds()))
	if err != nil {
		metrics.IncAnalysisFailed()
		telemetry.Error("analysis.provider_failed", map[string]any{
			"request_id": requestID,
			"provider":   s.Provider,
			"err":        err.Error(),
		})
		return Analysis{}, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	a, err := parseReply(raw)
	if err != nil {
		metrics.IncAnalysisFailed()
		telemetry.Error("analysis.reply_unparseable", map[string]any{
			"request_id": requestID,
			"provider":   s.Provider,
		})
		return Analysis{}, err
	}
	a.RequestID = requestID
	a.Provider = s.Provider
	a.Model = s.Model

	if err := s.Repo.Upsert(ctx, a); err != nil {
		return Analysis{}, err
	}
	if err := s.Requests.UpdateAIPhase(ctx, requestID, s.Provider); err != nil {
		// The analysis row is already stored; a stale phase marker is
		// recoverable on the next run.
		telemetry.Warn("analysis.phase_update_failed", map[string]any{
			"request_id": requestID,
			"err":        err.Error(),
		})
	}

	metrics.IncAnalysisCompleted()
	telemetry.Info("analysis.completed", map[string]any{
		"request_id": requestID,
		"provider":   s.Provider,
	})
	stored, err := s.Repo.GetByRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return a, nil
		}
		return Analysis{}, err
	}
	return stored, nil
}

// Get returns the stored analysis for a request.
func (s *Service) Get(ctx context.Context, requestID string) (Analysis, error) {
	return s.Repo.GetByRequest(ctx, requestID)
}
