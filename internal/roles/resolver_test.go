package roles

import (
	"context"
	"errors"
	"testing"
)

type failingRepo struct{}

func (failingRepo) GetByPrincipal(ctx context.Context, principalID string) (Record, error) {
	return Record{}, errors.New("connection refused")
}

func (failingRepo) GetByEmail(ctx context.Context, email string) (Record, error) {
	return Record{}, errors.New("connection refused")
}

func (failingRepo) Upsert(ctx context.Context, record Record) error {
	return errors.New("connection refused")
}

func TestResolveUnknownPrincipalIsUser(t *testing.T) {
	resolver := &Resolver{Repo: NewMemoryRepo()}

	grant, err := resolver.Resolve(context.Background(), "nobody", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if grant.Role != RoleUser {
		t.Fatalf("role = %q, want %q", grant.Role, RoleUser)
	}
	if grant.Permissions != (Permissions{}) {
		t.Fatalf("permissions = %+v, want empty", grant.Permissions)
	}
	if grant.IsAdmin() {
		t.Fatalf("default grant must not be admin")
	}
}

func TestResolveByPrincipalID(t *testing.T) {
	repo := NewMemoryRepo()
	if err := repo.Upsert(context.Background(), Record{
		PrincipalID: "google:42",
		Role:        RoleAdmin,
		Permissions: Permissions{ManageRequests: true},
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	resolver := &Resolver{Repo: repo}

	grant, err := resolver.Resolve(context.Background(), "google:42", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !grant.IsAdmin() {
		t.Fatalf("expected admin grant, got %+v", grant)
	}
	if !grant.Permissions.ManageRequests {
		t.Fatalf("expected manage_requests permission")
	}
	if grant.IsSuperAdmin() {
		t.Fatalf("admin must not be super admin")
	}
}

func TestResolveFallsBackToEmail(t *testing.T) {
	repo := NewMemoryRepo()
	if err := repo.Upsert(context.Background(), Record{
		PrincipalID: "pre-provisioned",
		Email:       "ops@studio.example",
		Role:        RoleSuperAdmin,
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	resolver := &Resolver{Repo: repo}

	grant, err := resolver.Resolve(context.Background(), "google:999", "ops@studio.example")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !grant.IsSuperAdmin() {
		t.Fatalf("expected super admin via email fallback, got %+v", grant)
	}
}

func TestResolveStorageFailureFailsClosed(t *testing.T) {
	resolver := &Resolver{Repo: failingRepo{}}

	_, err := resolver.Resolve(context.Background(), "google:42", "")
	if err == nil {
		t.Fatalf("expected error on storage failure")
	}
	if !errors.Is(err, ErrRoleLookup) {
		t.Fatalf("err = %v, want ErrRoleLookup", err)
	}
}

func TestResolveInvalidStoredRoleDowngradesToUser(t *testing.T) {
	repo := NewMemoryRepo()
	if err := repo.Upsert(context.Background(), Record{
		PrincipalID: "google:42",
		Role:        Role("owner"),
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	resolver := &Resolver{Repo: repo}

	grant, err := resolver.Resolve(context.Background(), "google:42", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if grant.Role != RoleUser {
		t.Fatalf("role = %q, want %q", grant.Role, RoleUser)
	}
}
