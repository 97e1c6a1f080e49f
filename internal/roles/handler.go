package roles

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"studio-backend/internal/shared/server/middleware"
	"studio-backend/internal/shared/server/respond"
)

// Handler exposes role administration endpoints.
type Handler struct {
	Repo     Repo
	Resolver *Resolver
}

// NewHandler constructs a role handler.
func NewHandler(repo Repo, resolver *Resolver) *Handler {
	return &Handler{Repo: repo, Resolver: resolver}
}

type upsertRoleRequest struct {
	Email       string      `json:"email"`
	Role        string      `json:"role" binding:"required"`
	Permissions Permissions `json:"permissions"`
}

// Upsert handles PUT /roles/:principalId. Only super admins may assign roles.
func (h *Handler) Upsert(c *gin.Context) {
	actorID := middleware.PrincipalIDFromContext(c)
	actorEmail := middleware.PrincipalEmailFromContext(c)
	if actorID == "" {
		respond.Error(c, http.StatusUnauthorized, "authentication_required", "Missing identity", nil)
		return
	}

	grant, err := h.Resolver.Resolve(c.Request.Context(), actorID, actorEmail)
	if err != nil {
		if errors.Is(err, ErrRoleLookup) {
			respond.Error(c, http.StatusServiceUnavailable, "role_lookup_failed", "Role store unavailable", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
		return
	}
	if !grant.IsSuperAdmin() {
		respond.Error(c, http.StatusForbidden, "permission_denied", "Super admin role required", nil)
		return
	}

	principalID := strings.TrimSpace(c.Param("principalId"))
	if principalID == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "principalId is required", nil)
		return
	}

	var req upsertRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid body", nil)
		return
	}
	role := Role(strings.TrimSpace(req.Role))
	if !role.Valid() {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "unknown role", gin.H{"role": req.Role})
		return
	}

	record := Record{
		PrincipalID: principalID,
		Email:       req.Email,
		Role:        role,
		Permissions: req.Permissions,
	}
	if err := h.Repo.Upsert(c.Request.Context(), record); err != nil {
		respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to store role", nil)
		return
	}
	respond.OK(c, record)
}
