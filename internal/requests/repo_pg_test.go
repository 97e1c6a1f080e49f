package requests

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func requestRows(req Request) *sqlmock.Rows {
	var finalPrice interface{}
	if req.FinalPrice != nil {
		finalPrice = *req.FinalPrice
	}
	return sqlmock.NewRows([]string{
		"id", "owner_id", "owner_email", "title", "description", "status", "budget_proposed",
		"final_price", "price_justification", "complexity", "urgency", "ai_phase",
		"admin_notes", "admin_response", "created_at", "updated_at",
	}).AddRow(
		req.ID, req.OwnerID, req.OwnerEmail, req.Title, req.Description, string(req.Status), req.BudgetProposed,
		finalPrice, req.PriceJustification, req.Complexity, req.Urgency, req.AIPhase,
		req.AdminNotes, req.AdminResponse, req.CreatedAt, req.UpdatedAt,
	)
}

func TestPGRepoGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	want := Request{
		ID:             "req-1",
		OwnerID:        "user-1",
		OwnerEmail:     "owner@example.com",
		Title:          "Brand site",
		Description:    "Five pages",
		Status:         StatusDraft,
		BudgetProposed: 300000,
		Complexity:     "medium",
		Urgency:        "normal",
		AIPhase:        AIPhaseNone,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs("req-1").
		WillReturnRows(requestRows(want))

	repo := &PGRepo{DB: db}
	got, err := repo.GetByID(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ID != want.ID || got.Status != want.Status || got.OwnerEmail != want.OwnerEmail {
		t.Errorf("GetByID = %+v, want %+v", got, want)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := &PGRepo{DB: db}
	_, err = repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetByID = %v, want ErrNotFound", err)
	}
}

func TestPGRepoUpdateStatusCommitsStatusAndHistoryTogether(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	entry := HistoryEntry{
		ID:        "hist-1",
		RequestID: "req-1",
		OldStatus: StatusDraft,
		NewStatus: StatusAnalysis,
		Reason:    "reviewed",
		ActorID:   "admin-1",
		CreatedAt: now,
	}
	updated := Request{
		ID: "req-1", OwnerID: "user-1", Status: StatusAnalysis,
		Title: "Brand site", Complexity: "medium", Urgency: "normal",
		AIPhase: AIPhaseNone, CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests")).
		WithArgs("analysis", "req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO status_history")).
		WithArgs("hist-1", "req-1", "draft", "analysis", "reviewed", "admin-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs("req-1").
		WillReturnRows(requestRows(updated))
	mock.ExpectCommit()

	repo := &PGRepo{DB: db}
	got, err := repo.UpdateStatus(context.Background(), "req-1", StatusAnalysis, entry)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got.Status != StatusAnalysis {
		t.Errorf("status = %s, want analysis", got.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPGRepoUpdateStatusRollsBackOnHistoryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	entry := HistoryEntry{ID: "hist-1", RequestID: "req-1", OldStatus: StatusDraft, NewStatus: StatusAnalysis, ActorID: "admin-1", CreatedAt: now}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests")).
		WithArgs("analysis", "req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO status_history")).
		WillReturnError(errors.New("history insert failed"))
	mock.ExpectRollback()

	repo := &PGRepo{DB: db}
	if _, err := repo.UpdateStatus(context.Background(), "req-1", StatusAnalysis, entry); err == nil {
		t.Fatal("UpdateStatus = nil, want error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPGRepoUpdateStatusNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests")).
		WithArgs("analysis", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	repo := &PGRepo{DB: db}
	_, err = repo.UpdateStatus(context.Background(), "missing", StatusAnalysis, HistoryEntry{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateStatus = %v, want ErrNotFound", err)
	}
}

func TestPGRepoUpdateQuote(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests")).
		WithArgs(500000.0, "Base scope", "req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &PGRepo{DB: db}
	if err := repo.UpdateQuote(context.Background(), "req-1", 500000, "Base scope"); err != nil {
		t.Fatalf("UpdateQuote: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
