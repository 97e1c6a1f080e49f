package roles

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryRepo stores role records in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu          sync.RWMutex
	byPrincipal map[string]Record
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byPrincipal: make(map[string]Record)}
}

// GetByPrincipal returns the record for a principal id.
func (r *MemoryRepo) GetByPrincipal(ctx context.Context, principalID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.byPrincipal[principalID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return record, nil
}

// GetByEmail returns the record assigned to an email address.
func (r *MemoryRepo) GetByEmail(ctx context.Context, email string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	needle := strings.ToLower(strings.TrimSpace(email))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, record := range r.byPrincipal {
		if record.Email != "" && strings.EqualFold(record.Email, needle) {
			return record, nil
		}
	}
	return Record{}, ErrNotFound
}

// Upsert inserts or replaces the record for a principal.
func (r *MemoryRepo) Upsert(ctx context.Context, record Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := r.byPrincipal[record.PrincipalID]; ok {
		record.CreatedAt = existing.CreatedAt
	} else if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	r.byPrincipal[record.PrincipalID] = record
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
