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

type ReactInput struct {
  ReactionType string `json:"reaction_type"`
  Comment      string `json:"comment"`
}

type ReactionService interface {
  // React upserts the caller's reaction and reports whether it was newly
  // created, which decides the response status.
  React(ctx context.Context, userID, messageID uuid.UUID, input ReactInput) (*types.MessageReaction, bool, error)
  List(ctx context.Context, userID, messageID uuid.UUID) ([]*types.MessageReaction, error)
}

type reactionService struct {
  db           *gorm.DB
  log          *logger.Logger
  sessionRepo  repos.SessionRepo
  messageRepo  repos.MessageRepo
  reactionRepo repos.ReactionRepo
}

func NewReactionService(
  db *gorm.DB,
  baseLog *logger.Logger,
  sessionRepo repos.SessionRepo,
  messageRepo repos.MessageRepo,
  reactionRepo repos.ReactionRepo,
) ReactionService {
  return &reactionService{
    db:           db,
    log:          baseLog.With("service", "ReactionService"),
    sessionRepo:  sessionRepo,
    messageRepo:  messageRepo,
    reactionRepo: reactionRepo,
  }
}

func (rs *reactionService) ownedMessage(ctx context.Context, userID, messageID uuid.UUID) (*types.Message, error) {
  message, err := rs.messageRepo.GetByID(ctx, nil, messageID)
  if err != nil {
    return nil, err
  }
  if message == nil {
    return nil, apierr.NotFound("message")
  }
  session, err := rs.sessionRepo.GetOwned(ctx, nil, message.SessionID, userID)
  if err != nil {
    return nil, err
  }
  if session == nil {
    return nil, apierr.NotFound("message")
  }
  return message, nil
}

func (rs *reactionService) React(ctx context.Context, userID, messageID uuid.UUID, input ReactInput) (*types.MessageReaction, bool, error) {
  if input.ReactionType == "" {
    return nil, false, apierr.ValidationField("reaction_type", "reaction_type is required")
  }
  reactionType, err := types.ParseReactionType(input.ReactionType)
  if err != nil {
    return nil, false, apierr.ValidationField("reaction_type", err.Error())
  }
  if _, err := rs.ownedMessage(ctx, userID, messageID); err != nil {
    return nil, false, err
  }

  reaction := &types.MessageReaction{
    MessageID:    messageID,
    UserID:       userID,
    ReactionType: reactionType,
    Comment:      input.Comment,
  }
  result, created, err := rs.reactionRepo.Upsert(ctx, nil, reaction)
  if err != nil {
    rs.log.Error("Reaction upsert failed", "error", err, "message_id", messageID)
    return nil, false, err
  }
  return result, created, nil
}

func (rs *reactionService) List(ctx context.Context, userID, messageID uuid.UUID) ([]*types.MessageReaction, error) {
  if _, err := rs.ownedMessage(ctx, userID, messageID); err != nil {
    return nil, err
  }
  return rs.reactionRepo.ListByMessage(ctx, nil, messageID)
}
