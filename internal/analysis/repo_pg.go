package analysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// PGRepo implements Repo using Postgres. Array fields are stored as
// JSONB columns.
type PGRepo struct {
	DB *sql.DB
}

// Upsert inserts or replaces the analysis for a request.
func (r *PGRepo) Upsert(ctx context.Context, a Analysis) error {
	deliverables, err := json.Marshal(a.Deliverables)
	if err != nil {
		return err
	}
	questions, err := json.Marshal(a.ClarificationQuestions)
	if err != nil {
		return err
	}
	raw := a.Raw
	if raw == "" {
		raw = "{}"
	}

	const query = `
INSERT INTO ai_analyses (request_id, provider, model, summary, deliverables, estimated_price, clarification_questions, raw, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
ON CONFLICT (request_id) DO UPDATE SET
	provider = EXCLUDED.provider,
	model = EXCLUDED.model,
	summary = EXCLUDED.summary,
	deliverables = EXCLUDED.deliverables,
	estimated_price = EXCLUDED.estimated_price,
	clarification_questions = EXCLUDED.clarification_questions,
	raw = EXCLUDED.raw,
	updated_at = now()`
	_, err = r.DB.ExecContext(ctx, query,
		a.RequestID,
		a.Provider,
		a.Model,
		a.Summary,
		deliverables,
		a.EstimatedPrice,
		questions,
		raw,
	)
	return err
}

// GetByRequest returns the analysis for a request.
func (r *PGRepo) GetByRequest(ctx context.Context, requestID string) (Analysis, error) {
	const query = `
SELECT request_id, provider, model, summary, deliverables, estimated_price, clarification_questions, raw, created_at, updated_at
FROM ai_analyses
WHERE request_id = $1
LIMIT 1`
	var a Analysis
	var deliverables, questions, raw []byte
	var estimatedPrice sql.NullFloat64
	err := r.DB.QueryRowContext(ctx, query, requestID).Scan(
		&a.RequestID,
		&a.Provider,
		&a.Model,
		&a.Summary,
		&deliverables,
		&estimatedPrice,
		&questions,
		&raw,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Analysis{}, ErrNotFound
	}
	if err != nil {
		return Analysis{}, err
	}
	if estimatedPrice.Valid {
		price := estimatedPrice.Float64
		a.EstimatedPrice = &price
	}
	if err := json.Unmarshal(deliverables, &a.Deliverables); err != nil {
		return Analysis{}, err
	}
	if err := json.Unmarshal(questions, &a.ClarificationQuestions); err != nil {
		return Analysis{}, err
	}
	a.Raw = string(raw)
	return a, nil
}

var _ Repo = (*PGRepo)(nil)
