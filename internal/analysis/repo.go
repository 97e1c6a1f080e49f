package analysis

import "context"

// Repo defines persistence operations for analyses. Upsert replaces any
// previous analysis for the same request.
type Repo interface {
	Upsert(ctx context.Context, a Analysis) error
	GetByRequest(ctx context.Context, requestID string) (Analysis, error)
}
