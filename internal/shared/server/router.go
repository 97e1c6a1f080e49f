package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studio-backend/internal/analysis"
	googleauth "studio-backend/internal/auth"
	"studio-backend/internal/deliverables"
	"studio-backend/internal/requests"
	"studio-backend/internal/roles"
	"studio-backend/internal/services/health"
	"studio-backend/internal/shared/config"
	"studio-backend/internal/shared/metrics"
	"studio-backend/internal/shared/server/middleware"
	"studio-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router wires up. Bootstrap builds
// them; the router only maps routes.
type RouterDeps struct {
	Config             config.Config
	Health             *health.Service
	RequestHandler     *requests.Handler
	AnalysisHandler    *analysis.Handler
	DeliverableHandler *deliverables.Handler
	RoleHandler        *roles.Handler
	GoogleAuth         *googleauth.GoogleService
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/healthz", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, deps.Health.Status(c.Request.Context()))
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.Use(
		middleware.Auth(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"WRITE": {Rate: 2, Burst: 10},
			},
			DefaultGroup: "READ",
			GroupFor: func(c *gin.Context) string {
				if c.Request.Method == http.MethodGet {
					return "READ"
				}
				return "WRITE"
			},
		}),
	)

	deps.GoogleAuth.RegisterRoutes(api)
	registerMeRoutes(api, deps.RoleHandler.Resolver)

	api.POST("/requests", deps.RequestHandler.Create)
	api.GET("/requests", deps.RequestHandler.List)
	api.GET("/requests/:id", deps.RequestHandler.Get)
	api.GET("/requests/:id/history", deps.RequestHandler.History)
	api.POST("/requests/:id/status", deps.RequestHandler.Transition)
	api.PATCH("/requests/:id/quote", deps.RequestHandler.Quote)
	api.PATCH("/requests/:id/response", deps.RequestHandler.Respond)
	api.PATCH("/requests/:id/notes", deps.RequestHandler.Notes)

	api.POST("/requests/:id/analyze", deps.AnalysisHandler.Analyze)
	api.GET("/requests/:id/analysis", deps.AnalysisHandler.Get)

	api.POST("/requests/:id/deliverables", deps.DeliverableHandler.Upload)
	api.GET("/requests/:id/deliverables", deps.DeliverableHandler.List)
	api.GET("/deliverables/:deliverableId/content", deps.DeliverableHandler.Download)

	api.PUT("/roles/:principalId", deps.RoleHandler.Upsert)

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
