package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"

  "github.com/talkbase/conversation-backend/internal/handlers"
  "github.com/talkbase/conversation-backend/internal/middleware"
)

type RouterConfig struct {
  AuthHandler      *handlers.AuthHandler
  AuthMiddleware   *middleware.AuthMiddleware
  SessionHandler   *handlers.SessionHandler
  MessageHandler   *handlers.MessageHandler
  AnalyticsHandler *handlers.AnalyticsHandler
  TemplateHandler  *handlers.TemplateHandler
  ProfileHandler   *handlers.ProfileHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:3000",
      "http://localhost:5173",
    },
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

  router.GET("/healthcheck", handlers.HealthCheck)

  api := router.Group("/api")
  api.POST("/register", cfg.AuthHandler.Register)
  api.POST("/login", cfg.AuthHandler.Login)

  protected := api.Group("/")
  protected.Use(cfg.AuthMiddleware.RequireAuth())

  protected.POST("/refresh", cfg.AuthHandler.Refresh)
  protected.POST("/logout", cfg.AuthHandler.Logout)

  // Sessions. /sessions/stats is a literal route; gin prefers it over
  // /sessions/:id.
  protected.GET("/sessions/stats", cfg.SessionHandler.Stats)
  protected.POST("/sessions", cfg.SessionHandler.Create)
  protected.GET("/sessions", cfg.SessionHandler.List)
  protected.GET("/sessions/:id", cfg.SessionHandler.Get)
  protected.POST("/sessions/:id/add_message", cfg.SessionHandler.AddMessage)
  protected.GET("/sessions/:id/messages", cfg.SessionHandler.Messages)
  protected.POST("/sessions/:id/archive", cfg.SessionHandler.Archive)
  protected.POST("/sessions/:id/activate", cfg.SessionHandler.Activate)
  protected.POST("/sessions/:id/rate", cfg.SessionHandler.Rate)
  protected.GET("/sessions/:id/analytics", cfg.SessionHandler.Analytics)

  // Messages
  protected.GET("/messages/:id", cfg.MessageHandler.Get)
  protected.POST("/messages/:id/react", cfg.MessageHandler.React)
  protected.GET("/messages/:id/reactions", cfg.MessageHandler.Reactions)

  // Analytics
  protected.GET("/analytics/summary", cfg.AnalyticsHandler.Summary)

  // Templates
  protected.GET("/templates", cfg.TemplateHandler.List)
  protected.POST("/templates", cfg.TemplateHandler.Create)
  protected.POST("/templates/:id/use_template", cfg.TemplateHandler.Use)

  // Profile
  protected.GET("/profile/me", cfg.ProfileHandler.Me)
  protected.PATCH("/profile/preferences", cfg.ProfileHandler.UpdatePreferences)

  return router
}
