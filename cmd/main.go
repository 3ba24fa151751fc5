package main

import (
  "fmt"
  "os"
  "time"

  "github.com/talkbase/conversation-backend/internal/db"
  "github.com/talkbase/conversation-backend/internal/handlers"
  "github.com/talkbase/conversation-backend/internal/logger"
  "github.com/talkbase/conversation-backend/internal/middleware"
  "github.com/talkbase/conversation-backend/internal/repos"
  "github.com/talkbase/conversation-backend/internal/server"
  "github.com/talkbase/conversation-backend/internal/services"
  "github.com/talkbase/conversation-backend/internal/utils"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Env
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
  refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
  maxMessageLength := utils.GetEnvAsInt("MAX_MESSAGE_LENGTH", 10000, log)

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err := postgresService.AutoMigrateAll(); err != nil {
    log.Error("Postgres auto migration failed", "error", err)
    os.Exit(1)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up repos...")
  userRepo := repos.NewUserRepo(thePG, log)
  userTokenRepo := repos.NewUserTokenRepo(thePG, log)
  userProfileRepo := repos.NewUserProfileRepo(thePG, log)
  sessionRepo := repos.NewSessionRepo(thePG, log)
  messageRepo := repos.NewMessageRepo(thePG, log)
  analyticsRepo := repos.NewAnalyticsRepo(thePG, log)
  reactionRepo := repos.NewReactionRepo(thePG, log)
  templateRepo := repos.NewTemplateRepo(thePG, log)

  // Services
  log.Info("Setting up services...")
  authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, userProfileRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
  sessionService := services.NewSessionService(thePG, log, sessionRepo, messageRepo, analyticsRepo)
  messageService := services.NewMessageService(thePG, log, sessionRepo, messageRepo, analyticsRepo, maxMessageLength)
  analyticsService := services.NewAnalyticsService(thePG, log, sessionRepo, analyticsRepo)
  reactionService := services.NewReactionService(thePG, log, sessionRepo, messageRepo, reactionRepo)
  templateService := services.NewTemplateService(thePG, log, templateRepo, sessionRepo, analyticsRepo)
  profileService := services.NewProfileService(thePG, log, userProfileRepo, sessionRepo, messageRepo)

  // Handlers
  log.Info("Setting up handlers...")
  authHandler := handlers.NewAuthHandler(authService)
  sessionHandler := handlers.NewSessionHandler(sessionService, messageService, analyticsService)
  messageHandler := handlers.NewMessageHandler(messageService, reactionService)
  analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
  templateHandler := handlers.NewTemplateHandler(templateService)
  profileHandler := handlers.NewProfileHandler(profileService)

  // Middleware
  authMiddleware := middleware.NewAuthMiddleware(log, authService)

  // Router
  log.Info("Setting up router...")
  router := server.NewRouter(server.RouterConfig{
    AuthHandler:      authHandler,
    AuthMiddleware:   authMiddleware,
    SessionHandler:   sessionHandler,
    MessageHandler:   messageHandler,
    AnalyticsHandler: analyticsHandler,
    TemplateHandler:  templateHandler,
    ProfileHandler:   profileHandler,
  })

  port := utils.GetEnv("PORT", "8080", log)
  log.Info("Server listening", "port", port)
  if err := router.Run(":" + port); err != nil {
    log.Error("Server failed", "error", err)
    os.Exit(1)
  }
}
