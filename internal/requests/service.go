package requests

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"studio-backend/internal/queue"
	"studio-backend/internal/roles"
	"studio-backend/internal/shared/metrics"
	"studio-backend/internal/shared/telemetry"
)

// Actor identifies who is performing a lifecycle action.
type Actor struct {
	ID    string
	Email string
}

// NotificationKind names a post-commit notification task.
type NotificationKind string

const (
	NotifyQuote    NotificationKind = "quote"
	NotifyResponse NotificationKind = "response"
	NotifyDelivery NotificationKind = "delivery"
)

// NotificationTask is a side effect owed after a committed transition.
// The lifecycle service never sends mail itself; it returns tasks for
// the caller to execute so a mail outage cannot fail a transition.
type NotificationTask struct {
	Kind      NotificationKind
	Recipient string
}

// TransitionResult is a committed transition plus its pending side effects.
type TransitionResult struct {
	Request Request
	Tasks   []NotificationTask
}

// DeliverableCounter is the read-only view over how many final artifacts
// exist for a request.
type DeliverableCounter interface {
	CountByRequest(ctx context.Context, requestID string) (int, error)
}

// Service is the lifecycle controller: it authorizes the actor,
// validates the transition, and persists status plus audit trail.
type Service struct {
	Repo         Repo
	Roles        *roles.Resolver
	Deliverables DeliverableCounter

	// Jobs, when set, receives an analysis job each time a request
	// enters the analysis status. Enqueueing is best effort.
	Jobs queue.Client
}

// enqueueAnalysis asks a worker to analyze the request. A queue failure
// is logged; the status change has already been committed.
func (s *Service) enqueueAnalysis(ctx context.Context, requestID string) {
	if s.Jobs == nil {
		return
	}
	msg := queue.Message{
		RequestID:  requestID,
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    1,
	}
	if err := s.Jobs.Send(ctx, msg); err != nil {
		telemetry.Warn("request.enqueue_analysis_failed", map[string]any{
			"request_id": requestID,
			"err":        err.Error(),
		})
	}
}

// ApplyTransition moves a request to newStatus on behalf of the actor.
// Every step is a hard gate; nothing is written unless all gates pass.
func (s *Service) ApplyTransition(ctx context.Context, requestID string, newStatus Status, actor Actor, reason string) (TransitionResult, error) {
	if requestID == "" {
		return TransitionResult{}, fmt.Errorf("%w: empty request id", ErrNotFound)
	}

	req, err := s.Repo.GetByID(ctx, requestID)
	if err != nil {
		return TransitionResult{}, err
	}

	grant, err := s.Roles.Resolve(ctx, actor.ID, actor.Email)
	if err != nil {
		// Role store failure denies the action; it never falls open.
		return TransitionResult{}, err
	}
	if !grant.IsAdmin() {
		// The only non-admin transition is an owner cancelling their own request.
		if newStatus != StatusCancelled || req.OwnerID != actor.ID {
			return TransitionResult{}, fmt.Errorf("%w: transition %s -> %s requires admin role", ErrPermissionDenied, req.Status, newStatus)
		}
	}

	deliverablesCount := 0
	if s.Deliverables != nil {
		deliverablesCount, err = s.Deliverables.CountByRequest(ctx, requestID)
		if err != nil {
			return TransitionResult{}, fmt.Errorf("count deliverables: %w", err)
		}
	}

	if err := ValidateTransition(req.Status, newStatus, req, deliverablesCount, false); err != nil {
		metrics.IncTransitionRejected()
		return TransitionResult{}, err
	}

	if newStatus == req.Status {
		// Idempotent resubmission: no write, no history row, no side effects.
		return TransitionResult{Request: req}, nil
	}

	entry := HistoryEntry{
		ID:        uuid.NewString(),
		RequestID: requestID,
		OldStatus: req.Status,
		NewStatus: newStatus,
		Reason:    strings.TrimSpace(reason),
		ActorID:   actor.ID,
		CreatedAt: time.Now().UTC(),
	}
	updated, err := s.Repo.UpdateStatus(ctx, requestID, newStatus, entry)
	if err != nil {
		return TransitionResult{}, err
	}

	metrics.IncTransitionApplied()
	telemetry.Info("request.transition", map[string]any{
		"request_id":        requestID,
		"actor_id":          actor.ID,
		"status_transition": string(entry.OldStatus) + "->" + string(entry.NewStatus),
		"reason":            entry.Reason,
	})

	if newStatus == StatusAnalysis {
		s.enqueueAnalysis(ctx, requestID)
	}

	return TransitionResult{
		Request: updated,
		Tasks:   tasksFor(updated, newStatus),
	}, nil
}

// tasksFor derives the notification tasks owed for an applied transition.
func tasksFor(req Request, newStatus Status) []NotificationTask {
	recipient := strings.TrimSpace(req.OwnerEmail)
	if recipient == "" {
		return nil
	}
	switch newStatus {
	case StatusAwaitingPayment:
		if req.HasQuote() {
			return []NotificationTask{{Kind: NotifyQuote, Recipient: recipient}}
		}
	case StatusDelivered:
		return []NotificationTask{{Kind: NotifyDelivery, Recipient: recipient}}
	}
	return nil
}

// CreateIntake registers a new request owned by the actor. submit moves
// it straight to analysis; otherwise it starts as a draft.
func (s *Service) CreateIntake(ctx context.Context, actor Actor, title, description string, budget float64, complexity, urgency string, submit bool) (Request, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Request{}, errors.New("title is required")
	}
	if complexity == "" {
		complexity = "medium"
	}
	if urgency == "" {
		urgency = "normal"
	}

	status := StatusDraft
	if submit {
		status = StatusAnalysis
	}

	now := time.Now().UTC()
	req := Request{
		ID:             uuid.NewString(),
		OwnerID:        actor.ID,
		OwnerEmail:     strings.TrimSpace(actor.Email),
		Title:          title,
		Description:    strings.TrimSpace(description),
		Status:         status,
		BudgetProposed: budget,
		Complexity:     complexity,
		Urgency:        urgency,
		AIPhase:        AIPhaseNone,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Repo.Create(ctx, req); err != nil {
		return Request{}, err
	}
	if status == StatusAnalysis {
		s.enqueueAnalysis(ctx, req.ID)
	}
	return req, nil
}

// Get returns a request visible to the actor: owners see their own,
// admins see all.
func (s *Service) Get(ctx context.Context, requestID string, actor Actor) (Request, error) {
	req, err := s.Repo.GetByID(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.OwnerID == actor.ID {
		return req, nil
	}
	grant, err := s.Roles.Resolve(ctx, actor.ID, actor.Email)
	if err != nil {
		return Request{}, err
	}
	if !grant.IsAdmin() {
		return Request{}, fmt.Errorf("%w: not the owner", ErrPermissionDenied)
	}
	return req, nil
}

// List returns requests visible to the actor.
func (s *Service) List(ctx context.Context, actor Actor, limit, offset int) ([]Request, error) {
	grant, err := s.Roles.Resolve(ctx, actor.ID, actor.Email)
	if err != nil {
		return nil, err
	}
	if grant.IsAdmin() {
		return s.Repo.ListAll(ctx, limit, offset)
	}
	return s.Repo.ListByOwner(ctx, actor.ID, limit, offset)
}

// AttachQuote sets the final price and justification. Requires admin
// role plus the manage_finance permission.
func (s *Service) AttachQuote(ctx context.Context, requestID string, actor Actor, finalPrice float64, justification string) (Request, error) {
	grant, err := s.Roles.Resolve(ctx, actor.ID, actor.Email)
	if err != nil {
		return Request{}, err
	}
	if !grant.IsAdmin() || !grant.Permissions.ManageFinance {
		return Request{}, fmt.Errorf("%w: quoting requires manage_finance", ErrPermissionDenied)
	}
	if finalPrice <= 0 || strings.TrimSpace(justification) == "" {
		return Request{}, fmt.Errorf("%w: final_price must be positive and price_justification non-empty", ErrMissingQuote)
	}
	if err := s.Repo.UpdateQuote(ctx, requestID, finalPrice, strings.TrimSpace(justification)); err != nil {
		return Request{}, err
	}
	return s.Repo.GetByID(ctx, requestID)
}

// SetAdminNotes records internal notes on a request. Notes are never
// serialized to clients; there is no notification for them.
func (s *Service) SetAdminNotes(ctx context.Context, requestID string, actor Actor, notes string) error {
	grant, err := s.Roles.Resolve(ctx, actor.ID, actor.Email)
	if err != nil {
		return err
	}
	if !grant.IsAdmin() {
		return fmt.Errorf("%w: admin notes require admin role", ErrPermissionDenied)
	}
	return s.Repo.UpdateAdminNotes(ctx, requestID, strings.TrimSpace(notes))
}

// SetAdminResponse records a client-visible reply and returns the
// notification task owed for it.
func (s *Service) SetAdminResponse(ctx context.Context, requestID string, actor Actor, response string) (TransitionResult, error) {
	grant, err := s.Roles.Resolve(ctx, actor.ID, actor.Email)
	if err != nil {
		return TransitionResult{}, err
	}
	if !grant.IsAdmin() {
		return TransitionResult{}, fmt.Errorf("%w: admin response requires admin role", ErrPermissionDenied)
	}
	response = strings.TrimSpace(response)
	if response == "" {
		return TransitionResult{}, errors.New("response is required")
	}
	if err := s.Repo.UpdateAdminResponse(ctx, requestID, response); err != nil {
		return TransitionResult{}, err
	}
	req, err := s.Repo.GetByID(ctx, requestID)
	if err != nil {
		return TransitionResult{}, err
	}

	result := TransitionResult{Request: req}
	if recipient := strings.TrimSpace(req.OwnerEmail); recipient != "" {
		result.Tasks = []NotificationTask{{Kind: NotifyResponse, Recipient: recipient}}
	}
	return result, nil
}

// History returns the audit trail for a request visible to the actor.
func (s *Service) History(ctx context.Context, requestID string, actor Actor) ([]HistoryEntry, error) {
	if _, err := s.Get(ctx, requestID, actor); err != nil {
		return nil, err
	}
	return s.Repo.ListHistory(ctx, requestID)
}
