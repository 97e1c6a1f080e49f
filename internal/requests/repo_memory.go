package requests

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores requests in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu      sync.RWMutex
	byID    map[string]Request
	history map[string][]HistoryEntry
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:    make(map[string]Request),
		history: make(map[string][]HistoryEntry),
	}
}

// Create stores the request.
func (r *MemoryRepo) Create(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[req.ID] = req
	return nil
}

// GetByID returns a request by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, requestID string) (Request, error) {
	if err := ctx.Err(); err != nil {
		return Request{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.byID[requestID]
	if !ok {
		return Request{}, ErrNotFound
	}
	return req, nil
}

// ListByOwner returns an owner's requests, newest first, with limit/offset.
func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Request, error) {
	return r.list(ctx, func(req Request) bool { return req.OwnerID == ownerID }, limit, offset)
}

// ListAll returns all requests, newest first, with limit/offset.
func (r *MemoryRepo) ListAll(ctx context.Context, limit, offset int) ([]Request, error) {
	return r.list(ctx, func(Request) bool { return true }, limit, offset)
}

func (r *MemoryRepo) list(ctx context.Context, keep func(Request) bool, limit, offset int) ([]Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 20
	}

	r.mu.RLock()
	var all []Request
	for _, req := range r.byID {
		if keep(req) {
			all = append(all, req)
		}
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return []Request{}, nil
	}
	end := len(all)
	if offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

// UpdateStatus applies the status change and appends the history entry
// atomically under the repo lock.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, requestID string, newStatus Status, entry HistoryEntry) (Request, error) {
	if err := ctx.Err(); err != nil {
		return Request{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.byID[requestID]
	if !ok {
		return Request{}, ErrNotFound
	}
	req.Status = newStatus
	req.UpdatedAt = time.Now().UTC()
	r.byID[requestID] = req
	r.history[requestID] = append(r.history[requestID], entry)
	return req, nil
}

// UpdateQuote sets the final price and justification.
func (r *MemoryRepo) UpdateQuote(ctx context.Context, requestID string, finalPrice float64, justification string) error {
	return r.mutate(ctx, requestID, func(req *Request) {
		price := finalPrice
		req.FinalPrice = &price
		req.PriceJustification = justification
	})
}

// UpdateAdminResponse sets the client-visible admin reply.
func (r *MemoryRepo) UpdateAdminResponse(ctx context.Context, requestID string, response string) error {
	return r.mutate(ctx, requestID, func(req *Request) {
		req.AdminResponse = response
	})
}

// UpdateAdminNotes sets the internal admin notes.
func (r *MemoryRepo) UpdateAdminNotes(ctx context.Context, requestID string, notes string) error {
	return r.mutate(ctx, requestID, func(req *Request) {
		req.AdminNotes = notes
	})
}

// UpdateAIPhase records which analysis provider last processed the request.
func (r *MemoryRepo) UpdateAIPhase(ctx context.Context, requestID string, phase string) error {
	return r.mutate(ctx, requestID, func(req *Request) {
		req.AIPhase = phase
	})
}

// ListHistory returns the audit trail for a request, oldest first.
func (r *MemoryRepo) ListHistory(ctx context.Context, requestID string) ([]HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.history[requestID]
	out := make([]HistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (r *MemoryRepo) mutate(ctx context.Context, requestID string, apply func(*Request)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.byID[requestID]
	if !ok {
		return ErrNotFound
	}
	apply(&req)
	req.UpdatedAt = time.Now().UTC()
	r.byID[requestID] = req
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
