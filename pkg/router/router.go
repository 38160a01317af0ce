// Package router assembles the HTTP engine: middleware chain and routes.
package router

import (
	"github.com/gin-gonic/gin"

	"companion-chat/backend/internal/api"
	"companion-chat/backend/pkg/config"
	"companion-chat/backend/pkg/di"
	"companion-chat/backend/pkg/errors"
	"companion-chat/backend/pkg/logger"
	"companion-chat/backend/pkg/middleware"
	"companion-chat/backend/pkg/observability"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config
}

// New creates the engine with its middleware chain and registers all routes
func New(container *di.Container) (*Router, error) {
	cfg := container.Config

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Logger first so every later middleware gets the request-scoped logger.
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())
	engine.Use(middleware.CORS(cfg.Security.AllowedOrigins))
	if cfg.Security.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.Security.MaxBodySize))
	}

	r := &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
	}

	// Validation must be installed before routes: gin freezes a route's chain on registration.
	if cfg.Observability.OpenAPISchema != "" {
		if err := r.AddOpenAPIValidation(cfg.Observability.OpenAPISchema); err != nil {
			return nil, err
		}
	}

	r.SetupRoutes()
	return r, nil
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	c := r.Container
	limiter := c.RateLimiter

	authHandler := api.NewAuthHandler(c.Session)
	companionHandler := api.NewCompanionHandler(c.Companions)
	settingsHandler := api.NewSettingsHandler(c.Companions)
	chatHandler := api.NewChatHandler(c.Companions)

	r.Engine.GET("/metrics", observability.Handler())

	v1 := r.Engine.Group("/api/v1")
	v1.GET("/health", c.Health.Handler())

	// Public routes. A valid token is still honored so sign-in keeps the caller's profile.
	publicRoutes := v1.Group("/")
	publicRoutes.Use(middleware.OptionalAuth(c.Session), limiter.Middleware())
	{
		publicRoutes.GET("/companions", companionHandler.ListCompanions)
		publicRoutes.GET("/languages", companionHandler.ListLanguages)

		authRoutes := publicRoutes.Group("/auth")
		{
			authRoutes.POST("/guest", authHandler.SignInAsGuest)
			authRoutes.POST("/phone/start", authHandler.StartPhoneSignIn)
			authRoutes.POST("/phone/confirm", authHandler.ConfirmPhoneSignIn)
		}
	}

	// Protected routes (require a token)
	protectedRoutes := v1.Group("/")
	protectedRoutes.Use(middleware.RequireAuth(c.Session), limiter.Middleware())
	{
		protectedRoutes.POST("/auth/signout", authHandler.SignOut)
		protectedRoutes.GET("/auth/me", authHandler.Me)

		settingsRoutes := protectedRoutes.Group("/settings")
		{
			settingsRoutes.GET("", settingsHandler.Get)
			settingsRoutes.PUT("", settingsHandler.Update)
			settingsRoutes.DELETE("", settingsHandler.Clear)
		}

		companionRoutes := protectedRoutes.Group("/companions/:id")
		{
			companionRoutes.GET("/resolved", companionHandler.GetResolved)
			companionRoutes.PATCH("/customization", companionHandler.Customize)
		}

		chatRoutes := protectedRoutes.Group("/chat")
		{
			chatRoutes.POST("/dialogue", chatHandler.Dialogue)
			chatRoutes.POST("/image", chatHandler.Image)
			chatRoutes.POST("/compliment", chatHandler.Compliment)
		}
	}
}
