package services

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/talkbase/conversation-backend/internal/apierr"
  "github.com/talkbase/conversation-backend/internal/logger"
  "github.com/talkbase/conversation-backend/internal/repos"
  "github.com/talkbase/conversation-backend/internal/types"
)

type RateSessionInput struct {
  Rating       int    `json:"rating"`
  Satisfaction string `json:"satisfaction"`
}

type AnalyticsService interface {
  Summary(ctx context.Context, userID uuid.UUID) (*repos.UserSummary, error)
  Get(ctx context.Context, userID, sessionID uuid.UUID) (*types.ConversationAnalytics, error)
  Rate(ctx context.Context, userID, sessionID uuid.UUID, input RateSessionInput) (*types.ConversationAnalytics, error)
}

type analyticsService struct {
  db            *gorm.DB
  log           *logger.Logger
  sessionRepo   repos.SessionRepo
  analyticsRepo repos.AnalyticsRepo
}

func NewAnalyticsService(
  db *gorm.DB,
  baseLog *logger.Logger,
  sessionRepo repos.SessionRepo,
  analyticsRepo repos.AnalyticsRepo,
) AnalyticsService {
  return &analyticsService{
    db:            db,
    log:           baseLog.With("service", "AnalyticsService"),
    sessionRepo:   sessionRepo,
    analyticsRepo: analyticsRepo,
  }
}

func (as *analyticsService) Summary(ctx context.Context, userID uuid.UUID) (*repos.UserSummary, error) {
  return as.analyticsRepo.SummaryByUser(ctx, nil, userID)
}

func (as *analyticsService) Get(ctx context.Context, userID, sessionID uuid.UUID) (*types.ConversationAnalytics, error) {
  session, err := as.sessionRepo.GetOwned(ctx, nil, sessionID, userID)
  if err != nil {
    return nil, err
  }
  if session == nil {
    return nil, apierr.NotFound("session")
  }
  analytics, err := as.analyticsRepo.GetBySessionID(ctx, nil, sessionID)
  if err != nil {
    return nil, err
  }
  if analytics == nil {
    return nil, apierr.NotFound("analytics")
  }
  return analytics, nil
}

func (as *analyticsService) Rate(ctx context.Context, userID, sessionID uuid.UUID, input RateSessionInput) (*types.ConversationAnalytics, error) {
  if input.Rating < 1 || input.Rating > 5 {
    return nil, apierr.ValidationField("rating", "rating must be between 1 and 5")
  }
  session, err := as.sessionRepo.GetOwned(ctx, nil, sessionID, userID)
  if err != nil {
    return nil, err
  }
  if session == nil {
    return nil, apierr.NotFound("session")
  }
  if err := as.analyticsRepo.Rate(ctx, nil, sessionID, input.Rating, input.Satisfaction); err != nil {
    as.log.Error("Rate session failed", "error", err, "session_id", sessionID)
    return nil, err
  }
  return as.analyticsRepo.GetBySessionID(ctx, nil, sessionID)
}
