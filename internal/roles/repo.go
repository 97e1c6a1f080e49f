package roles

import (
	"context"
	"errors"
)

// ErrNotFound indicates no role record exists for the principal. This is
// a normal outcome for ordinary users, not a storage failure.
var ErrNotFound = errors.New("role record not found")

// Repo defines persistence operations for role records.
type Repo interface {
	GetByPrincipal(ctx context.Context, principalID string) (Record, error)
	GetByEmail(ctx context.Context, email string) (Record, error)
	Upsert(ctx context.Context, record Record) error
}
