package requests

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const requestColumns = `id, owner_id, owner_email, title, description, status, budget_proposed,
       final_price, price_justification, complexity, urgency, ai_phase,
       admin_notes, admin_response, created_at, updated_at`

// Create inserts a new request.
func (r *PGRepo) Create(ctx context.Context, req Request) error {
	const query = `
INSERT INTO requests (
	id, owner_id, owner_email, title, description, status, budget_proposed,
	final_price, price_justification, complexity, urgency, ai_phase,
	admin_notes, admin_response, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)`
	_, err := r.DB.ExecContext(ctx, query,
		req.ID,
		req.OwnerID,
		nullableString(req.OwnerEmail),
		req.Title,
		req.Description,
		string(req.Status),
		req.BudgetProposed,
		req.FinalPrice,
		nullableString(req.PriceJustification),
		req.Complexity,
		req.Urgency,
		req.AIPhase,
		nullableString(req.AdminNotes),
		nullableString(req.AdminResponse),
		req.CreatedAt,
	)
	return err
}

// GetByID returns a request by ID.
func (r *PGRepo) GetByID(ctx context.Context, requestID string) (Request, error) {
	const query = `
SELECT ` + requestColumns + `
FROM requests
WHERE id = $1
LIMIT 1`
	return scanRequest(r.DB.QueryRowContext(ctx, query, requestID))
}

// ListByOwner lists an owner's requests newest-first.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Request, error) {
	limit, offset = clampPage(limit, offset)
	const query = `
SELECT ` + requestColumns + `
FROM requests
WHERE owner_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

// ListAll lists all requests newest-first, for admin views.
func (r *PGRepo) ListAll(ctx context.Context, limit, offset int) ([]Request, error) {
	limit, offset = clampPage(limit, offset)
	const query = `
SELECT ` + requestColumns + `
FROM requests
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

// UpdateStatus persists the new status and appends the history entry in
// a single transaction. Last write wins on the status column; the
// history trail is how concurrent transitions are reconstructed.
func (r *PGRepo) UpdateStatus(ctx context.Context, requestID string, newStatus Status, entry HistoryEntry) (Request, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Request{}, err
	}
	defer tx.Rollback()

	const updateQuery = `
UPDATE requests
SET status = $1,
    updated_at = now()
WHERE id = $2`
	res, err := tx.ExecContext(ctx, updateQuery, string(newStatus), requestID)
	if err != nil {
		return Request{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Request{}, ErrNotFound
	}

	const historyQuery = `
INSERT INTO status_history (id, request_id, old_status, new_status, reason, actor_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := tx.ExecContext(ctx, historyQuery,
		entry.ID,
		entry.RequestID,
		string(entry.OldStatus),
		string(entry.NewStatus),
		entry.Reason,
		entry.ActorID,
		entry.CreatedAt,
	); err != nil {
		return Request{}, err
	}

	const selectQuery = `
SELECT ` + requestColumns + `
FROM requests
WHERE id = $1
LIMIT 1`
	updated, err := scanRequest(tx.QueryRowContext(ctx, selectQuery, requestID))
	if err != nil {
		return Request{}, err
	}

	if err := tx.Commit(); err != nil {
		return Request{}, err
	}
	return updated, nil
}

// UpdateQuote sets the final price and justification.
func (r *PGRepo) UpdateQuote(ctx context.Context, requestID string, finalPrice float64, justification string) error {
	const query = `
UPDATE requests
SET final_price = $1,
    price_justification = $2,
    updated_at = now()
WHERE id = $3`
	return r.exec(ctx, query, finalPrice, justification, requestID)
}

// UpdateAdminResponse sets the client-visible admin reply.
func (r *PGRepo) UpdateAdminResponse(ctx context.Context, requestID string, response string) error {
	const query = `
UPDATE requests
SET admin_response = $1,
    updated_at = now()
WHERE id = $2`
	return r.exec(ctx, query, response, requestID)
}

// UpdateAdminNotes sets the internal admin notes.
func (r *PGRepo) UpdateAdminNotes(ctx context.Context, requestID string, notes string) error {
	const query = `
UPDATE requests
SET admin_notes = $1,
    updated_at = now()
WHERE id = $2`
	return r.exec(ctx, query, notes, requestID)
}

// UpdateAIPhase records which analysis provider last processed the request.
func (r *PGRepo) UpdateAIPhase(ctx context.Context, requestID string, phase string) error {
	const query = `
UPDATE requests
SET ai_phase = $1,
    updated_at = now()
WHERE id = $2`
	return r.exec(ctx, query, phase, requestID)
}

// ListHistory returns the audit trail for a request, oldest first.
func (r *PGRepo) ListHistory(ctx context.Context, requestID string) ([]HistoryEntry, error) {
	const query = `
SELECT id, request_id, old_status, new_status, reason, actor_id, created_at
FROM status_history
WHERE request_id = $1
ORDER BY created_at ASC`
	rows, err := r.DB.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var entry HistoryEntry
		var oldStatus, newStatus string
		if err := rows.Scan(
			&entry.ID,
			&entry.RequestID,
			&oldStatus,
			&newStatus,
			&entry.Reason,
			&entry.ActorID,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entry.OldStatus = Status(oldStatus)
		entry.NewStatus = Status(newStatus)
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (r *PGRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (Request, error) {
	var req Request
	var ownerEmail sql.NullString
	var status string
	var finalPrice sql.NullFloat64
	var priceJustification sql.NullString
	var adminNotes sql.NullString
	var adminResponse sql.NullString
	var updatedAt sql.NullTime
	err := row.Scan(
		&req.ID,
		&req.OwnerID,
		&ownerEmail,
		&req.Title,
		&req.Description,
		&status,
		&req.BudgetProposed,
		&finalPrice,
		&priceJustification,
		&req.Complexity,
		&req.Urgency,
		&req.AIPhase,
		&adminNotes,
		&adminResponse,
		&req.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Request{}, ErrNotFound
		}
		return Request{}, err
	}
	req.Status = Status(status)
	if ownerEmail.Valid {
		req.OwnerEmail = ownerEmail.String
	}
	if finalPrice.Valid {
		price := finalPrice.Float64
		req.FinalPrice = &price
	}
	if priceJustification.Valid {
		req.PriceJustification = priceJustification.String
	}
	if adminNotes.Valid {
		req.AdminNotes = adminNotes.String
	}
	if adminResponse.Valid {
		req.AdminResponse = adminResponse.String
	}
	if updatedAt.Valid {
		req.UpdatedAt = updatedAt.Time
	} else {
		req.UpdatedAt = time.Now().UTC()
	}
	return req, nil
}

func collectRequests(rows *sql.Rows) ([]Request, error) {
	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ Repo = (*PGRepo)(nil)
