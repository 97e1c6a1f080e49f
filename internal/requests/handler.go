package requests

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"studio-backend/internal/roles"
	"studio-backend/internal/shared/server/middleware"
	"studio-backend/internal/shared/server/respond"
)

// TaskRunner executes post-commit notification tasks. Implementations
// must never return an error to the request path; a failed notification
// is logged and counted, not surfaced.
type TaskRunner interface {
	Run(ctx context.Context, req Request, tasks []NotificationTask)
}

// Handler exposes the request lifecycle endpoints.
type Handler struct {
	Service *Service
	Tasks   TaskRunner
}

// NewHandler constructs a request handler.
func NewHandler(service *Service, tasks TaskRunner) *Handler {
	return &Handler{Service: service, Tasks: tasks}
}

type createRequest struct {
	Title          string  `json:"title" binding:"required"`
	Description    string  `json:"description"`
	BudgetProposed float64 `json:"budgetProposed"`
	Complexity     string  `json:"complexity"`
	Urgency        string  `json:"urgency"`
	Submit         bool    `json:"submit"`
}

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

type quoteRequest struct {
	FinalPrice         float64 `json:"finalPrice" binding:"required"`
	PriceJustification string  `json:"priceJustification" binding:"required"`
}

type responseRequest struct {
	Response string `json:"response" binding:"required"`
}

type notesRequest struct {
	Notes string `json:"notes" binding:"required"`
}

// Create handles POST /requests.
func (h *Handler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var body createRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid body", nil)
		return
	}

	req, err := h.Service.CreateIntake(c.Request.Context(), actor, body.Title, body.Description, body.BudgetProposed, body.Complexity, body.Urgency, body.Submit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond.Created(c, req)
}

// Get handles GET /requests/:id.
func (h *Handler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	req, err := h.Service.Get(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond.OK(c, req)
}

// List handles GET /requests.
func (h *Handler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	limit := intQuery(c, "limit", 20)
	offset := intQuery(c, "offset", 0)
	list, err := h.Service.List(c.Request.Context(), actor, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if list == nil {
		list = []Request{}
	}
	respond.OK(c, gin.H{"requests": list, "limit": limit, "offset": offset})
}

// Transition handles POST /requests/:id/status.
func (h *Handler) Transition(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var body transitionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid body", nil)
		return
	}

	newStatus := Status(strings.TrimSpace(body.Status))
	if !newStatus.Valid() {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "unknown status", gin.H{"status": body.Status})
		return
	}

	result, err := h.Service.ApplyTransition(c.Request.Context(), c.Param("id"), newStatus, actor, body.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.runTasks(c, result)
	respond.OK(c, result.Request)
}

// Quote handles PATCH /requests/:id/quote.
func (h *Handler) Quote(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var body quoteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid body", nil)
		return
	}

	req, err := h.Service.AttachQuote(c.Request.Context(), c.Param("id"), actor, body.FinalPrice, body.PriceJustification)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond.OK(c, req)
}

// Respond handles PATCH /requests/:id/response.
func (h *Handler) Respond(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var body responseRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid body", nil)
		return
	}

	result, err := h.Service.SetAdminResponse(c.Request.Context(), c.Param("id"), actor, body.Response)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.runTasks(c, result)
	respond.OK(c, result.Request)
}

// Notes handles PATCH /requests/:id/notes.
func (h *Handler) Notes(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var body notesRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid body", nil)
		return
	}

	if err := h.Service.SetAdminNotes(c.Request.Context(), c.Param("id"), actor, body.Notes); err != nil {
		h.respondError(c, err)
		return
	}
	respond.OK(c, gin.H{"status": "ok"})
}

// History handles GET /requests/:id/history.
func (h *Handler) History(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	entries, err := h.Service.History(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if entries == nil {
		entries = []HistoryEntry{}
	}
	respond.OK(c, gin.H{"history": entries})
}

func (h *Handler) runTasks(c *gin.Context, result TransitionResult) {
	if h.Tasks == nil || len(result.Tasks) == 0 {
		return
	}
	// Notifications run after the transition is committed. The request
	// context is not used so an aborted client cannot cancel the sends.
	h.Tasks.Run(context.WithoutCancel(c.Request.Context()), result.Request, result.Tasks)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "request not found", nil)
	case errors.Is(err, ErrPermissionDenied):
		respond.Error(c, http.StatusForbidden, "permission_denied", err.Error(), nil)
	case errors.Is(err, roles.ErrRoleLookup):
		respond.Error(c, http.StatusServiceUnavailable, "role_lookup_failed", "Role store unavailable", nil)
	case errors.Is(err, ErrInvalidTransition):
		respond.Error(c, http.StatusConflict, "invalid_transition", err.Error(), nil)
	case errors.Is(err, ErrMissingQuote), errors.Is(err, ErrPaymentNotConfirmed), errors.Is(err, ErrNoDeliverables):
		respond.Error(c, http.StatusUnprocessableEntity, "precondition_failed", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
	}
}

func actorFrom(c *gin.Context) (Actor, bool) {
	id := middleware.PrincipalIDFromContext(c)
	if id == "" {
		respond.Error(c, http.StatusUnauthorized, "authentication_required", "Missing identity", nil)
		return Actor{}, false
	}
	return Actor{ID: id, Email: middleware.PrincipalEmailFromContext(c)}, true
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
