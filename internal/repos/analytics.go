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

// UserSummary is the flattened aggregate the summary endpoint returns,
// computed on demand across all of a user's analytics rows.
type UserSummary struct {
  TotalConversations         int64   `json:"total_conversations"`
  TotalDuration              int64   `json:"total_duration"`
  AvgMessagesPerConversation float64 `json:"avg_messages_per_conversation"`
  AvgResponseTime            float64 `json:"avg_response_time"`
  TotalWordsExchanged        int64   `json:"total_words_exchanged"`
  AvgSatisfaction            float64 `json:"avg_satisfaction"`
}

type AnalyticsRepo interface {
  Create(ctx context.Context, tx *gorm.DB, analytics *types.ConversationAnalytics) (*types.ConversationAnalytics, error)
  GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.ConversationAnalytics, error)
  ApplyAppend(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, message *types.Message, durationSeconds int) error
  Rate(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, rating int, satisfaction string) error
  SummaryByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*UserSummary, error)
}

type analyticsRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewAnalyticsRepo(db *gorm.DB, baseLog *logger.Logger) AnalyticsRepo {
  return &analyticsRepo{db: db, log: baseLog.With("repo", "AnalyticsRepo")}
}

func (ar *analyticsRepo) Create(ctx context.Context, tx *gorm.DB, analytics *types.ConversationAnalytics) (*types.ConversationAnalytics, error) {
  transaction := tx
  if transaction == nil {
    transaction = ar.db
  }
  if err := transaction.WithContext(ctx).Create(analytics).Error; err != nil {
    return nil, err
  }
  return analytics, nil
}

func (ar *analyticsRepo) GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.ConversationAnalytics, error) {
  transaction := tx
  if transaction == nil {
    transaction = ar.db
  }
  var result types.ConversationAnalytics
  err := transaction.WithContext(ctx).
    Where("session_id = ?", sessionID).
    First(&result).Error
  if errors.Is(err, gorm.ErrRecordNotFound) {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &result, nil
}

// ApplyAppend folds a freshly inserted message into the session's analytics
// row. Counters move by SQL expression; the two averages are recomputed from
// the message table inside the same transaction, which keeps them exact
// without storing extra denominators.
func (ar *analyticsRepo) ApplyAppend(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, message *types.Message, durationSeconds int) error {
  transaction := tx
  if transaction == nil {
    transaction = ar.db
  }

  updates := map[string]interface{}{
    "total_duration_seconds": durationSeconds,
    "avg_confidence_score": gorm.Expr(
      "(SELECT AVG(confidence_score) FROM message WHERE session_id = ?)", sessionID),
    "updated_at": time.Now(),
  }

  switch message.MessageType {
  case types.MessageTypeUser:
    updates["user_message_count"] = gorm.Expr("user_message_count + 1")
    updates["total_user_words"] = gorm.Expr("total_user_words + ?", message.WordCount)
    updates["total_user_characters"] = gorm.Expr("total_user_characters + ?", message.CharacterCount)
  case types.MessageTypeAI:
    updates["ai_message_count"] = gorm.Expr("ai_message_count + 1")
    updates["total_ai_words"] = gorm.Expr("total_ai_words + ?", message.WordCount)
    updates["total_ai_characters"] = gorm.Expr("total_ai_characters + ?", message.CharacterCount)
    updates["avg_ai_response_time"] = gorm.Expr(
      "(SELECT AVG(response_time_ms) FROM message WHERE session_id = ? AND message_type = 'ai')", sessionID)
  case types.MessageTypeSystem:
    updates["system_message_count"] = gorm.Expr("system_message_count + 1")
  }

  if message.Status == types.MessageFailed {
    updates["failed_message_count"] = gorm.Expr("failed_message_count + 1")
  }

  return transaction.WithContext(ctx).
    Model(&types.ConversationAnalytics{}).
    Where("session_id = ?", sessionID).
    Updates(updates).Error
}

func (ar *analyticsRepo) Rate(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, rating int, satisfaction string) error {
  transaction := tx
  if transaction == nil {
    transaction = ar.db
  }
  return transaction.WithContext(ctx).
    Model(&types.ConversationAnalytics{}).
    Where("session_id = ?", sessionID).
    Updates(map[string]interface{}{
      "session_rating":    rating,
      "user_satisfaction": satisfaction,
      "updated_at":        time.Now(),
    }).Error
}

func (ar *analyticsRepo) SummaryByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*UserSummary, error) {
  transaction := tx
  if transaction == nil {
    transaction = ar.db
  }

  var row struct {
    TotalConversations int64
    TotalDuration      *int64
    AvgMessages        *float64
    AvgResponseTime    *float64
    TotalWords         *int64
    AvgSatisfaction    *float64
  }

  err := transaction.WithContext(ctx).
    Model(&types.ConversationAnalytics{}).
    Joins("JOIN conversation_session ON conversation_session.id = conversation_analytics.session_id").
    Where("conversation_session.user_id = ?", userID).
    Select(
      "COUNT(*) AS total_conversations, " +
        "SUM(total_duration_seconds) AS total_duration, " +
        "AVG(user_message_count) AS avg_messages, " +
        "AVG(avg_ai_response_time) AS avg_response_time, " +
        "SUM(total_user_words + total_ai_words) AS total_words, " +
        "AVG(session_rating) AS avg_satisfaction").
    Scan(&row).Error
  if err != nil {
    return nil, err
  }

  summary := &UserSummary{TotalConversations: row.TotalConversations}
  if row.TotalDuration != nil {
    summary.TotalDuration = *row.TotalDuration
  }
  if row.AvgMessages != nil {
    summary.AvgMessagesPerConversation = *row.AvgMessages
  }
  if row.AvgResponseTime != nil {
    summary.AvgResponseTime = *row.AvgResponseTime
  }
  if row.TotalWords != nil {
    summary.TotalWordsExchanged = *row.TotalWords
  }
  if row.AvgSatisfaction != nil {
    summary.AvgSatisfaction = *row.AvgSatisfaction
  }
  return summary, nil
}
