package repos

import (
  "context"
  "errors"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/talkbase/conversation-backend/internal/logger"
  "github.com/talkbase/conversation-backend/internal/types"
)

type ReactionRepo interface {
  Upsert(ctx context.Context, tx *gorm.DB, reaction *types.MessageReaction) (*types.MessageReaction, bool, error)
  ListByMessage(ctx context.Context, tx *gorm.DB, messageID uuid.UUID) ([]*types.MessageReaction, error)
}

type reactionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewReactionRepo(db *gorm.DB, baseLog *logger.Logger) ReactionRepo {
  return &reactionRepo{db: db, log: baseLog.With("repo", "ReactionRepo")}
}

// Upsert creates the (message, user, reaction_type) row or replaces its
// comment, and reports whether a new row was created. A racing insert is
// resolved by falling back to the update path.
func (rr *reactionRepo) Upsert(ctx context.Context, tx *gorm.DB, reaction *types.MessageReaction) (*types.MessageReaction, bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = rr.db
  }

  res := transaction.WithContext(ctx).
    Model(&types.MessageReaction{}).
    Where("message_id = ? AND user_id = ? AND reaction_type = ?",
      reaction.MessageID, reaction.UserID, reaction.ReactionType).
    Update("comment", reaction.Comment)
  if res.Error != nil {
    return nil, false, res.Error
  }

  if res.RowsAffected == 0 {
    reaction.ID = uuid.New()
    reaction.CreatedAt = time.Now()
    err := transaction.WithContext(ctx).Create(reaction).Error
    if err == nil {
      return reaction, true, nil
    }
    if !IsUniqueViolation(err) {
      return nil, false, err
    }
    // Lost the race; replace the winner's comment instead.
    if err := transaction.WithContext(ctx).
      Model(&types.MessageReaction{}).
      Where("message_id = ? AND user_id = ? AND reaction_type = ?",
        reaction.MessageID, reaction.UserID, reaction.ReactionType).
      Update("comment", reaction.Comment).Error; err != nil {
      return nil, false, err
    }
  }

  var result types.MessageReaction
  err := transaction.WithContext(ctx).
    Where("message_id = ? AND user_id = ? AND reaction_type = ?",
      reaction.MessageID, reaction.UserID, reaction.ReactionType).
    First(&result).Error
  if errors.Is(err, gorm.ErrRecordNotFound) {
    return nil, false, errors.New("reaction row missing after upsert")
  }
  if err != nil {
    return nil, false, err
  }
  return &result, false, nil
}

func (rr *reactionRepo) ListByMessage(ctx context.Context, tx *gorm.DB, messageID uuid.UUID) ([]*types.MessageReaction, error) {
  transaction := tx
  if transaction == nil {
    transaction = rr.db
  }
  var results []*types.MessageReaction
  if err := transaction.WithContext(ctx).
    Where("message_id = ?", messageID).
    Order("created_at ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
