package deliverables

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates no deliverable exists for the given id.
	ErrNotFound = errors.New("deliverable not found")
	// ErrInvalidFileName indicates the upload name failed sanitization.
	ErrInvalidFileName = errors.New("invalid file name")
)

// Repo defines persistence operations for deliverables.
type Repo interface {
	Create(ctx context.Context, d Deliverable) error
	GetByID(ctx context.Context, id string) (Deliverable, error)
	ListByRequest(ctx context.Context, requestID string) ([]Deliverable, error)
	CountByRequest(ctx context.Context, requestID string) (int, error)
}
