package requests

import "context"

// Repo defines persistence operations for requests and their audit trail.
type Repo interface {
	Create(ctx context.Context, req Request) error
	GetByID(ctx context.Context, requestID string) (Request, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Request, error)
	ListAll(ctx context.Context, limit, offset int) ([]Request, error)

	// UpdateStatus persists the new status, bumps updated_at, and appends
	// the history entry in one transaction: both succeed or both fail.
	UpdateStatus(ctx context.Context, requestID string, newStatus Status, entry HistoryEntry) (Request, error)

	UpdateQuote(ctx context.Context, requestID string, finalPrice float64, justification string) error
	UpdateAdminResponse(ctx context.Context, requestID string, response string) error
	UpdateAdminNotes(ctx context.Context, requestID string, notes string) error
	UpdateAIPhase(ctx context.Context, requestID string, phase string) error

	ListHistory(ctx context.Context, requestID string) ([]HistoryEntry, error)
}
