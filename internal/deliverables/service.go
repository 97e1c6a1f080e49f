package deliverables

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"studio-backend/internal/requests"
	"studio-backend/internal/roles"
	"studio-backend/internal/shared/storage/object"
	"studio-backend/internal/shared/util"
)

// Service manages deliverable uploads and downloads. Uploading is an
// admin action; downloading is visible to the request owner and admins.
type Service struct {
	Repo     Repo
	Requests requests.Repo
	Roles    *roles.Resolver
	Store    object.ObjectStore
}

// Upload stores the file and records a deliverable for the request.
func (s *Service) Upload(ctx context.Context, requestID string, actor requests.Actor, fileName string, r io.Reader) (Deliverable, error) {
	grant, err := s.Roles.Resolve(ctx, actor.ID, actor.Email)
	if err != nil {
		return Deliverable{}, err
	}
	if !grant.IsAdmin() {
		return Deliverable{}, fmt.Errorf("%w: uploading deliverables requires admin role", requests.ErrPermissionDenied)
	}

	req, err := s.Requests.GetByID(ctx, requestID)
	if err != nil {
		return Deliverable{}, err
	}
	if req.Status.Terminal() && req.Status != requests.StatusDelivered {
		return Deliverable{}, fmt.Errorf("%w: cannot attach deliverables to a cancelled request", requests.ErrInvalidTransition)
	}

	fileName, err = util.SanitizeFileName(fileName)
	if err != nil {
		return Deliverable{}, fmt.Errorf("%w: %v", ErrInvalidFileName, err)
	}
	storageKey, sizeBytes, mimeType, err := s.Store.Save(ctx, requestID, fileName, r)
	if err != nil {
		return Deliverable{}, fmt.Errorf("store deliverable: %w", err)
	}

	d := Deliverable{
		ID:         uuid.NewString(),
		RequestID:  requestID,
		FileName:   fileName,
		StorageKey: storageKey,
		SizeBytes:  sizeBytes,
		MimeType:   mimeType,
		UploadedBy: actor.ID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, d); err != nil {
		return Deliverable{}, err
	}
	return d, nil
}

// List returns the deliverables for a request visible to the actor.
func (s *Service) List(ctx context.Context, requestID string, actor requests.Actor) ([]Deliverable, error) {
	if err := s.authorizeRead(ctx, requestID, actor); err != nil {
		return nil, err
	}
	return s.Repo.ListByRequest(ctx, requestID)
}

// Open returns the file content of one deliverable visible to the actor.
func (s *Service) Open(ctx context.Context, deliverableID string, actor requests.Actor) (Deliverable, io.ReadCloser, error) {
	d, err := s.Repo.GetByID(ctx, deliverableID)
	if err != nil {
		return Deliverable{}, nil, err
	}
	if err := s.authorizeRead(ctx, d.RequestID, actor); err != nil {
		return Deliverable{}, nil, err
	}
	rc, err := s.Store.Open(ctx, d.StorageKey)
	if err != nil {
		return Deliverable{}, nil, fmt.Errorf("open deliverable: %w", err)
	}
	return d, rc, nil
}

func (s *Service) authorizeRead(ctx context.Context, requestID string, actor requests.Actor) error {
	req, err := s.Requests.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req.OwnerID == actor.ID {
		return nil
	}
	grant, err := s.Roles.Resolve(ctx, actor.ID, actor.Email)
	if err != nil {
		return err
	}
	if !grant.IsAdmin() {
		return fmt.Errorf("%w: not the owner", requests.ErrPermissionDenied)
	}
	return nil
}
