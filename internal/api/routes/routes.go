package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Wikid82/sentinel/internal/api/handlers"
	"github.com/Wikid82/sentinel/internal/api/middleware"
	"github.com/Wikid82/sentinel/internal/config"
	"github.com/Wikid82/sentinel/internal/engine"
	"github.com/Wikid82/sentinel/internal/logger"
	"github.com/Wikid82/sentinel/internal/services"
)

// AdminRole is the token role allowed to change reputations and purge the
// audit trail.
const AdminRole = "admin"

// Deps are the services the API exposes.
type Deps struct {
	Engine  *engine.Engine
	Audit   *services.AuditService
	Metrics prometheus.Gatherer
}

// Register wires up API routes. Reporting and admin routes require a bearer
// token when cfg.HTTP.JWTSecret is set.
func Register(router *gin.Engine, deps Deps, cfg config.Config) {
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.Recovery(cfg.Environment == "development"),
		middleware.SecurityHeaders(middleware.SecurityHeadersConfig{IsDevelopment: cfg.Environment == "development"}),
	)

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api/v1")
	api.GET("/health", handlers.HealthHandler)

	validateHandler := handlers.NewValidateHandler(deps.Engine)
	api.POST("/validate", validateHandler.Validate)

	reporting := api.Group("/")
	admin := api.Group("/")
	if cfg.HTTP.JWTSecret != "" {
		auth := middleware.AuthMiddleware([]byte(cfg.HTTP.JWTSecret))
		reporting.Use(auth)
		admin.Use(auth, middleware.RequireRole(AdminRole))
	} else {
		logger.Log().Warn("http.jwt_secret is not set; reporting and admin routes are unauthenticated")
	}

	eventsHandler := handlers.NewEventsHandler(deps.Audit)
	reputationHandler := handlers.NewReputationHandler(deps.Engine.Reputation())
	patternsHandler := handlers.NewPatternsHandler(deps.Audit)

	reporting.GET("/events", eventsHandler.List)
	reporting.GET("/events/:uuid", eventsHandler.Get)
	reporting.GET("/events/:uuid/notifications", eventsHandler.Notifications)
	reporting.GET("/stats", eventsHandler.Stats)
	reporting.GET("/reputation/:user_id", reputationHandler.Get)
	reporting.GET("/patterns", patternsHandler.List)
	reporting.GET("/patterns/stats", patternsHandler.Stats)

	admin.PUT("/reputation/:user_id", reputationHandler.Update)
	admin.POST("/maintenance/purge", eventsHandler.Purge)
}
