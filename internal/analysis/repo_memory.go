package analysis

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo stores analyses in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu        sync.RWMutex
	byRequest map[string]Analysis
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byRequest: make(map[string]Analysis)}
}

// Upsert inserts or replaces the analysis for a request.
func (r *MemoryRepo) Upsert(ctx context.Context, a Analysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := r.byRequest[a.RequestID]; ok {
		a.CreatedAt = existing.CreatedAt
	} else if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	r.byRequest[a.RequestID] = a
	return nil
}

// GetByRequest returns the analysis for a request.
func (r *MemoryRepo) GetByRequest(ctx context.Context, requestID string) (Analysis, error) {
	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byRequest[requestID]
	if !ok {
		return Analysis{}, ErrNotFound
	}
	return a, nil
}

var _ Repo = (*MemoryRepo)(nil)
