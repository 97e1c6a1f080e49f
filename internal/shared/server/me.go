package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studio-backend/internal/roles"
	"studio-backend/internal/shared/server/middleware"
	"studio-backend/internal/shared/server/respond"
)

// registerMeRoutes attaches the /me endpoint: the caller's identity plus
// their resolved role grant.
func registerMeRoutes(rg *gin.RouterGroup, resolver *roles.Resolver) {
	rg.GET("/me", func(c *gin.Context) {
		principalID := middleware.PrincipalIDFromContext(c)
		if principalID == "" {
			respond.Error(c, http.StatusUnauthorized, "authentication_required", "missing or invalid token", nil)
			return
		}
		email := middleware.PrincipalEmailFromContext(c)

		grant, err := resolver.Resolve(c.Request.Context(), principalID, email)
		if err != nil {
			if errors.Is(err, roles.ErrRoleLookup) {
				respond.Error(c, http.StatusServiceUnavailable, "role_lookup_failed", "Role store unavailable", nil)
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
			return
		}

		response := gin.H{
			"principalId": principalID,
			"role":        grant.Role,
			"permissions": grant.Permissions,
		}
		if email != "" {
			response["email"] = email
		}
		if name := middleware.PrincipalNameFromContext(c); name != "" {
			response["name"] = name
		}
		respond.JSON(c, http.StatusOK, response)
	})
}
