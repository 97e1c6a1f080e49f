package roles

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrRoleLookup indicates the role store itself failed. Callers must
// deny the action on this error rather than falling back to a default
// role.
var ErrRoleLookup = errors.New("role lookup failed")

// Resolver resolves a principal's role and permission set. It performs a
// pure read; callers re-resolve per action because role assignments can
// change between actions.
type Resolver struct {
	Repo Repo
}

// Resolve returns the grant for the principal. A missing role record
// resolves to the least-privileged grant {user, no permissions}. The
// optional email covers principals whose role was assigned before their
// first sign-in.
func (r *Resolver) Resolve(ctx context.Context, principalID, email string) (Grant, error) {
	if strings.TrimSpace(principalID) == "" {
		return Grant{Role: RoleUser}, nil
	}

	record, err := r.Repo.GetByPrincipal(ctx, principalID)
	if errors.Is(err, ErrNotFound) && strings.TrimSpace(email) != "" {
		record, err = r.Repo.GetByEmail(ctx, email)
	}
	if errors.Is(err, ErrNotFound) {
		return Grant{Role: RoleUser}, nil
	}
	if err != nil {
		return Grant{}, fmt.Errorf("%w: %v", ErrRoleLookup, err)
	}

	role := record.Role
	if !role.Valid() {
		role = RoleUser
	}
	return Grant{Role: role, Permissions: record.Permissions}, nil
}
