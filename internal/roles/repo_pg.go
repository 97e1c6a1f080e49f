package roles

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const roleColumns = `principal_id, email, role, manage_requests, manage_finance, manage_users, created_at, updated_at`

// GetByPrincipal returns the role record for a principal id.
func (r *PGRepo) GetByPrincipal(ctx context.Context, principalID string) (Record, error) {
	const query = `
SELECT ` + roleColumns + `
FROM roles
WHERE principal_id = $1
LIMIT 1`
	return r.scanOne(ctx, query, principalID)
}

// GetByEmail returns the role record assigned to an email address.
func (r *PGRepo) GetByEmail(ctx context.Context, email string) (Record, error) {
	const query = `
SELECT ` + roleColumns + `
FROM roles
WHERE email = $1
LIMIT 1`
	return r.scanOne(ctx, query, strings.ToLower(strings.TrimSpace(email)))
}

// Upsert inserts or replaces the role record for a principal.
func (r *PGRepo) Upsert(ctx context.Context, record Record) error {
	const query = `
INSERT INTO roles (principal_id, email, role, manage_requests, manage_finance, manage_users, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now(), now())
ON CONFLICT (principal_id) DO UPDATE SET
  email = EXCLUDED.email,
  role = EXCLUDED.role,
  manage_requests = EXCLUDED.manage_requests,
  manage_finance = EXCLUDED.manage_finance,
  manage_users = EXCLUDED.manage_users,
  updated_at = now()`
	_, err := r.DB.ExecContext(ctx, query,
		record.PrincipalID,
		nullableString(strings.ToLower(strings.TrimSpace(record.Email))),
		string(record.Role),
		record.Permissions.ManageRequests,
		record.Permissions.ManageFinance,
		record.Permissions.ManageUsers,
	)
	return err
}

func (r *PGRepo) scanOne(ctx context.Context, query string, arg any) (Record, error) {
	var record Record
	var email sql.NullString
	var role string
	var updatedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&record.PrincipalID,
		&email,
		&role,
		&record.Permissions.ManageRequests,
		&record.Permissions.ManageFinance,
		&record.Permissions.ManageUsers,
		&record.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	if email.Valid {
		record.Email = email.String
	}
	record.Role = Role(role)
	if updatedAt.Valid {
		record.UpdatedAt = updatedAt.Time
	} else {
		record.UpdatedAt = time.Now().UTC()
	}
	return record, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ Repo = (*PGRepo)(nil)
