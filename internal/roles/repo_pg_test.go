package roles

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoGetByPrincipal(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"principal_id", "email", "role", "manage_requests", "manage_finance", "manage_users", "created_at", "updated_at",
	}).AddRow("google:42", "ops@studio.example", "admin", true, false, false, now, now)

	mock.ExpectQuery("SELECT (.+) FROM roles").
		WithArgs("google:42").
		WillReturnRows(rows)

	record, err := repo.GetByPrincipal(context.Background(), "google:42")
	if err != nil {
		t.Fatalf("GetByPrincipal: %v", err)
	}
	if record.Role != RoleAdmin {
		t.Fatalf("role = %q, want admin", record.Role)
	}
	if !record.Permissions.ManageRequests {
		t.Fatalf("expected manage_requests true")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByPrincipalNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectQuery("SELECT (.+) FROM roles").
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{
			"principal_id", "email", "role", "manage_requests", "manage_finance", "manage_users", "created_at", "updated_at",
		}))

	_, err = repo.GetByPrincipal(context.Background(), "nobody")
	if err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("INSERT INTO roles").
		WithArgs("google:42", "ops@studio.example", "super_admin", true, true, true).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Upsert(context.Background(), Record{
		PrincipalID: "google:42",
		Email:       "Ops@Studio.Example",
		Role:        RoleSuperAdmin,
		Permissions: Permissions{ManageRequests: true, ManageFinance: true, ManageUsers: true},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
