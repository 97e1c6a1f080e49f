package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"studio-backend/internal/shared/auth"
	"studio-backend/internal/shared/server/respond"
)

const (
	principalIDKey    = "principalId"
	principalEmailKey = "principalEmail"
	principalNameKey  = "principalName"
)

// Auth validates JWTs and stores the principal identity in context.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/v1/auth/google/") {
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			respond.Error(c, http.StatusUnauthorized, "authentication_required", "Missing identity", nil)
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "authentication_required", "missing or invalid token", nil)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, "authentication_required", "missing or invalid token", nil)
			return
		}

		claims, err := auth.VerifyJWT(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "authentication_required", "missing or invalid token", nil)
			return
		}

		c.Set(principalIDKey, claims.Sub)
		if claims.Email != "" {
			c.Set(principalEmailKey, claims.Email)
		}
		if claims.Name != "" {
			c.Set(principalNameKey, claims.Name)
		}
		c.Next()
	}
}

// PrincipalIDFromContext returns the authenticated principal id, if any.
func PrincipalIDFromContext(c *gin.Context) string {
	return c.GetString(principalIDKey)
}

// PrincipalEmailFromContext returns the authenticated principal email, if any.
func PrincipalEmailFromContext(c *gin.Context) string {
	return c.GetString(principalEmailKey)
}

// PrincipalNameFromContext returns the authenticated principal display name, if any.
func PrincipalNameFromContext(c *gin.Context) string {
	return c.GetString(principalNameKey)
}
