package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/staymate/staymate-bff/internal/config"
	"github.com/staymate/staymate-bff/internal/http/handlers"
	"github.com/staymate/staymate-bff/internal/http/middleware"
)

// Handlers - все хэндлеры BFF.
type Handlers struct {
	Session      *handlers.SessionHandler
	Views        *handlers.ViewHandler
	WS           *handlers.WSHandler
	Verification *handlers.VerificationHandler
	Health       *handlers.HealthHandler
}

func SetupRouter(cfg *config.Config, h Handlers, sessions middleware.SessionAuthenticator) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20
	r.Use(gin.Recovery())
	if cfg.Env != "production" {
		r.Use(gin.Logger())
	}
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	// Вход ограничен строже остальных запросов.
	sessionGroup := api.Group("/session")
	sessionGroup.POST("/login", middleware.RateLimitMiddleware("login", 5, cfg.RateLimitPeriod), h.Session.Login)

	api.GET("/ws", h.WS.Handle)

	protected := api.Group("/")
	protected.Use(middleware.SessionAuth(sessions))
	protected.Use(middleware.RateLimitMiddleware("api", cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		protected.GET("/session/me", h.Session.Me)
		protected.DELETE("/session", h.Session.Logout)

		protected.GET("/views", h.Views.List)
		protected.GET("/views/:page", h.Views.Open)
		protected.DELETE("/views/:page", h.Views.Close)
		protected.POST("/views/:page/refresh", h.Views.Refresh)
		protected.PUT("/views/:page/filters", h.Views.SetFilters)
		protected.PUT("/views/:page/page", h.Views.SetPage)
		protected.POST("/views/:page/items/:id/toggle", middleware.IDValidator("id"), h.Views.Toggle)
		protected.POST("/views/:page/items/:id/actions/:action", middleware.IDValidator("id"), h.Views.Act)
		protected.POST("/views/:page/commands/:command", h.Views.Command)

		protected.POST("/verification/documents", h.Verification.UploadDocument)
	}

	return r
}
