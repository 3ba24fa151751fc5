package repos

import (
  "context"
  "errors"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/talkbase/conversation-backend/internal/logger"
  "github.com/talkbase/conversation-backend/internal/types"
)

type MessageRepo interface {
  Create(ctx context.Context, tx *gorm.DB, message *types.Message) (*types.Message, error)
  GetByID(ctx context.Context, tx *gorm.DB, messageID uuid.UUID) (*types.Message, error)
  MaxSequence(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (int, error)
  ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, limit, offset int) ([]*types.Message, int64, error)
  CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
}

type messageRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
  return &messageRepo{db: db, log: baseLog.With("repo", "MessageRepo")}
}

func (mr *messageRepo) Create(ctx context.Context, tx *gorm.DB, message *types.Message) (*types.Message, error) {
  transaction := tx
  if transaction == nil {
    transaction = mr.db
  }
  if err := transaction.WithContext(ctx).Create(message).Error; err != nil {
    return nil, err
  }
  return message, nil
}

func (mr *messageRepo) GetByID(ctx context.Context, tx *gorm.DB, messageID uuid.UUID) (*types.Message, error) {
  transaction := tx
  if transaction == nil {
    transaction = mr.db
  }
  var result types.Message
  err := transaction.WithContext(ctx).
    Where("id = ?", messageID).
    First(&result).Error
  if errors.Is(err, gorm.ErrRecordNotFound) {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &result, nil
}

func (mr *messageRepo) MaxSequence(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (int, error) {
  transaction := tx
  if transaction == nil {
    transaction = mr.db
  }
  var max *int
  err := transaction.WithContext(ctx).
    Model(&types.Message{}).
    Where("session_id = ?", sessionID).
    Select("MAX(sequence_number)").
    Scan(&max).Error
  if err != nil {
    return 0, err
  }
  if max == nil {
    return 0, nil
  }
  return *max, nil
}

func (mr *messageRepo) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, limit, offset int) ([]*types.Message, int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = mr.db
  }
  var total int64
  if err := transaction.WithContext(ctx).
    Model(&types.Message{}).
    Where("session_id = ?", sessionID).
    Count(&total).Error; err != nil {
    return nil, 0, err
  }

  var results []*types.Message
  if err := transaction.WithContext(ctx).
    Where("session_id = ?", sessionID).
    Order("sequence_number ASC").
    Limit(limit).
    Offset(offset).
    Find(&results).Error; err != nil {
    return nil, 0, err
  }
  return results, total, nil
}

func (mr *messageRepo) CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = mr.db
  }
  var count int64
  err := transaction.WithContext(ctx).
    Model(&types.Message{}).
    Joins("JOIN conversation_session ON conversation_session.id = message.session_id").
    Where("conversation_session.user_id = ?", userID).
    Count(&count).Error
  return count, err
}
