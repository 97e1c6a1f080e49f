package analysis

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studio-backend/internal/requests"
	"studio-backend/internal/roles"
	"studio-backend/internal/shared/server/middleware"
	"studio-backend/internal/shared/server/respond"
)

// Handler exposes analysis endpoints.
type Handler struct {
	Service  *Service
	Requests *requests.Service
	Roles    *roles.Resolver
}

// NewHandler constructs an analysis handler.
func NewHandler(service *Service, reqService *requests.Service, resolver *roles.Resolver) *Handler {
	return &Handler{Service: service, Requests: reqService, Roles: resolver}
}

// Analyze handles POST /requests/:id/analyze. Admin only.
func (h *Handler) Analyze(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	grant, err := h.Roles.Resolve(c.Request.Context(), actor.ID, actor.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	if !grant.IsAdmin() {
		respond.Error(c, http.StatusForbidden, "permission_denied", "running analysis requires admin role", nil)
		return
	}

	a, err := h.Service.Analyze(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond.OK(c, a)
}

// Get handles GET /requests/:id/analysis. Visible to the owner and admins.
func (h *Handler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	// Request visibility rules gate the analysis too.
	if _, err := h.Requests.Get(c.Request.Context(), c.Param("id"), actor); err != nil {
		respondError(c, err)
		return
	}

	a, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond.OK(c, a)
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
	case errors.Is(err, requests.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "request not found", nil)
	case errors.Is(err, requests.ErrPermissionDenied):
		respond.Error(c, http.StatusForbidden, "permission_denied", err.Error(), nil)
	case errors.Is(err, roles.ErrRoleLookup):
		respond.Error(c, http.StatusServiceUnavailable, "role_lookup_failed", "Role store unavailable", nil)
	case errors.Is(err, ErrProvider):
		respond.Error(c, http.StatusBadGateway, "provider_failed", "AI provider unavailable", nil)
	case errors.Is(err, ErrParse):
		respond.Error(c, http.StatusBadGateway, "provider_failed", "AI provider returned an unusable reply", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
	}
}

func actorFrom(c *gin.Context) (requests.Actor, bool) {
	id := middleware.PrincipalIDFromContext(c)
	if id == "" {
		respond.Error(c, http.StatusUnauthorized, "authentication_required", "Missing identity", nil)
		return requests.Actor{}, false
	}
	return requests.Actor{ID: id, Email: middleware.PrincipalEmailFromContext(c)}, true
}
