package deliverables

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores deliverables in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Deliverable
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Deliverable)}
}

// Create stores the deliverable.
func (r *MemoryRepo) Create(ctx context.Context, d Deliverable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[d.ID] = d
	return nil
}

// GetByID returns one deliverable.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Deliverable, error) {
	if err := ctx.Err(); err != nil {
		return Deliverable{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byID[id]
	if !ok {
		return Deliverable{}, ErrNotFound
	}
	return d, nil
}

// ListByRequest returns a request's deliverables, newest first.
func (r *MemoryRepo) ListByRequest(ctx context.Context, requestID string) ([]Deliverable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	var out []Deliverable
	for _, d := range r.byID {
		if d.RequestID == requestID {
			out = append(out, d)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// CountByRequest returns the number of deliverables attached to a request.
func (r *MemoryRepo) CountByRequest(ctx context.Context, requestID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, d := range r.byID {
		if d.RequestID == requestID {
			count++
		}
	}
	return count, nil
}

var _ Repo = (*MemoryRepo)(nil)
