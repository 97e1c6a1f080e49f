package deliverables

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"studio-backend/internal/requests"
	"studio-backend/internal/roles"
)

type memoryStore struct {
	objects map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (s *memoryStore) Save(_ context.Context, requestID, fileName string, r io.Reader) (string, int64, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, "", err
	}
	key := requestID + "/" + fileName
	s.objects[key] = data
	return key, int64(len(data)), "application/octet-stream", nil
}

func (s *memoryStore) Open(_ context.Context, storageKey string) (io.ReadCloser, error) {
	data, ok := s.objects[storageKey]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func newTestService(t *testing.T) (*Service, *requests.MemoryRepo, *roles.MemoryRepo, *memoryStore) {
	t.Helper()
	reqRepo := requests.NewMemoryRepo()
	roleRepo := roles.NewMemoryRepo()
	store := newMemoryStore()
	svc := &Service{
		Repo:     NewMemoryRepo(),
		Requests: reqRepo,
		Roles:    &roles.Resolver{Repo: roleRepo},
		Store:    store,
	}
	return svc, reqRepo, roleRepo, store
}

func seedRequest(t *testing.T, repo *requests.MemoryRepo, status requests.Status) requests.Request {
	t.Helper()
	req := requests.Request{
		ID:      "req-1",
		OwnerID: "user-1",
		Title:   "Brand site",
		Status:  status,
	}
	if err := repo.Create(context.Background(), req); err != nil {
		t.Fatalf("seed request: %v", err)
	}
	return req
}

func seedAdmin(t *testing.T, roleRepo *roles.MemoryRepo, principalID string) {
	t.Helper()
	err := roleRepo.Upsert(context.Background(), roles.Record{
		PrincipalID: principalID,
		Role:        roles.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
}

func TestUploadStoresFileAndCounts(t *testing.T) {
	svc, reqRepo, roleRepo, store := newTestService(t)
	seedRequest(t, reqRepo, requests.StatusInProduction)
	seedAdmin(t, roleRepo, "admin-1")
	admin := requests.Actor{ID: "admin-1"}

	d, err := svc.Upload(context.Background(), "req-1", admin, "final-logo.svg", bytes.NewReader([]byte("<svg/>")))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if d.RequestID != "req-1" || d.FileName != "final-logo.svg" {
		t.Errorf("deliverable = %+v", d)
	}
	if d.SizeBytes != 6 {
		t.Errorf("size = %d, want 6", d.SizeBytes)
	}
	if _, ok := store.objects[d.StorageKey]; !ok {
		t.Errorf("object %q not stored", d.StorageKey)
	}

	count, err := svc.Repo.CountByRequest(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("CountByRequest: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestUploadRequiresAdmin(t *testing.T) {
	svc, reqRepo, _, _ := newTestService(t)
	seedRequest(t, reqRepo, requests.StatusInProduction)

	_, err := svc.Upload(context.Background(), "req-1", requests.Actor{ID: "user-1"}, "file.png", bytes.NewReader([]byte("x")))
	if !errors.Is(err, requests.ErrPermissionDenied) {
		t.Fatalf("Upload by owner = %v, want ErrPermissionDenied", err)
	}
}

func TestUploadRejectsCancelledRequest(t *testing.T) {
	svc, reqRepo, roleRepo, _ := newTestService(t)
	seedRequest(t, reqRepo, requests.StatusCancelled)
	seedAdmin(t, roleRepo, "admin-1")

	_, err := svc.Upload(context.Background(), "req-1", requests.Actor{ID: "admin-1"}, "file.png", bytes.NewReader([]byte("x")))
	if !errors.Is(err, requests.ErrInvalidTransition) {
		t.Fatalf("Upload to cancelled request = %v, want ErrInvalidTransition", err)
	}
}

func TestOpenVisibility(t *testing.T) {
	svc, reqRepo, roleRepo, _ := newTestService(t)
	seedRequest(t, reqRepo, requests.StatusInProduction)
	seedAdmin(t, roleRepo, "admin-1")
	admin := requests.Actor{ID: "admin-1"}

	d, err := svc.Upload(context.Background(), "req-1", admin, "final.pdf", bytes.NewReader([]byte("pdfdata")))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	// Owner can read.
	got, rc, err := svc.Open(context.Background(), d.ID, requests.Actor{ID: "user-1"})
	if err != nil {
		t.Fatalf("owner Open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "pdfdata" {
		t.Errorf("content = %q", data)
	}
	if got.FileName != "final.pdf" {
		t.Errorf("file name = %q", got.FileName)
	}

	// Stranger cannot.
	if _, _, err := svc.Open(context.Background(), d.ID, requests.Actor{ID: "user-2"}); !errors.Is(err, requests.ErrPermissionDenied) {
		t.Errorf("stranger Open = %v, want ErrPermissionDenied", err)
	}
}

func TestListUnknownRequest(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.List(context.Background(), "missing", requests.Actor{ID: "user-1"})
	if !errors.Is(err, requests.ErrNotFound) {
		t.Fatalf("List = %v, want requests.ErrNotFound", err)
	}
}
