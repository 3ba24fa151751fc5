package repos

import (
  "context"
  "errors"
  "strings"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/talkbase/conversation-backend/internal/logger"
  "github.com/talkbase/conversation-backend/internal/types"
)

// SessionFilter narrows List to the query parameters the API exposes.
type SessionFilter struct {
  Status   *types.SessionStatus
  DateFrom *time.Time
  DateTo   *time.Time
  Search   string
}

type SessionRepo interface {
  Create(ctx context.Context, tx *gorm.DB, session *types.ConversationSession) (*types.ConversationSession, error)
  GetOwned(ctx context.Context, tx *gorm.DB, sessionID, userID uuid.UUID) (*types.ConversationSession, error)
  List(ctx context.Context, tx *gorm.DB, userID uuid.UUID, filter SessionFilter, limit, offset int) ([]*types.ConversationSession, int64, error)
  UpdateStatus(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, status types.SessionStatus) error
  Touch(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, at time.Time) error
  ApplyAppend(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, at time.Time, tokensUsed int) error
  SetTitleIfEmpty(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, title string) error
  CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
  CountByUserAndStatus(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status types.SessionStatus) (int64, error)
  CountActiveSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) (int64, error)
  AvgMessageCount(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (float64, error)
}

type sessionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
  return &sessionRepo{db: db, log: baseLog.With("repo", "SessionRepo")}
}

func (sr *sessionRepo) Create(ctx context.Context, tx *gorm.DB, session *types.ConversationSession) (*types.ConversationSession, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }
  if err := transaction.WithContext(ctx).Create(session).Error; err != nil {
    return nil, err
  }
  return session, nil
}

func (sr *sessionRepo) GetOwned(ctx context.Context, tx *gorm.DB, sessionID, userID uuid.UUID) (*types.ConversationSession, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }
  var result types.ConversationSession
  err := transaction.WithContext(ctx).
    Where("id = ? AND user_id = ?", sessionID, userID).
    First(&result).Error
  if errors.Is(err, gorm.ErrRecordNotFound) {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &result, nil
}

// escapeLike neutralizes LIKE metacharacters so user input matches literally.
func escapeLike(s string) string {
  r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
  return r.Replace(s)
}

func (sr *sessionRepo) List(ctx context.Context, tx *gorm.DB, userID uuid.UUID, filter SessionFilter, limit, offset int) ([]*types.ConversationSession, int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }
  // Chains are not reusable after a finisher, so the conditions are
  // applied separately for the count and the page.
  apply := func(q *gorm.DB) *gorm.DB {
    q = q.Model(&types.ConversationSession{}).Where("user_id = ?", userID)
    if filter.Status != nil {
      q = q.Where("status = ?", *filter.Status)
    }
    if filter.DateFrom != nil {
      q = q.Where("created_at >= ?", *filter.DateFrom)
    }
    if filter.DateTo != nil {
      q = q.Where("created_at <= ?", *filter.DateTo)
    }
    if filter.Search != "" {
      pattern := "%" + escapeLike(strings.ToLower(filter.Search)) + "%"
      q = q.Where("LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\'", pattern, pattern)
    }
    return q
  }

  var total int64
  if err := apply(transaction.WithContext(ctx)).Count(&total).Error; err != nil {
    return nil, 0, err
  }

  var results []*types.ConversationSession
  if err := apply(transaction.WithContext(ctx)).
    Order("last_activity_at DESC").
    Limit(limit).
    Offset(offset).
    Find(&results).Error; err != nil {
    return nil, 0, err
  }
  return results, total, nil
}

func (sr *sessionRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, status types.SessionStatus) error {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }
  return transaction.WithContext(ctx).
    Model(&types.ConversationSession{}).
    Where("id = ?", sessionID).
    Updates(map[string]interface{}{
      "status":     status,
      "updated_at": time.Now(),
    }).Error
}

func (sr *sessionRepo) Touch(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, at time.Time) error {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }
  return transaction.WithContext(ctx).
    Model(&types.ConversationSession{}).
    Where("id = ?", sessionID).
    Updates(map[string]interface{}{
      "last_activity_at": at,
      "updated_at":       at,
    }).Error
}

// ApplyAppend bumps the cached aggregates with SQL expressions so two
// concurrent appends never lose an increment.
func (sr *sessionRepo) ApplyAppend(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, at time.Time, tokensUsed int) error {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }
  return transaction.WithContext(ctx).
    Model(&types.ConversationSession{}).
    Where("id = ?", sessionID).
    Updates(map[string]interface{}{
      "message_count":     gorm.Expr("message_count + 1"),
      "total_tokens_used": gorm.Expr("total_tokens_used + ?", tokensUsed),
      "last_activity_at":  at,
      "updated_at":        at,
    }).Error
}

func (sr *sessionRepo) SetTitleIfEmpty(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, title string) error {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }
  return transaction.WithContext(ctx).
    Model(&types.ConversationSession{}).
    Where("id = ? AND (title = '' OR title IS NULL)", sessionID).
    Update("title", title).Error
}

func (sr *sessionRepo) CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }
  var count int64
  err := transaction.WithContext(ctx).
    Model(&types.ConversationSession{}).
    Where("user_id = ?", userID).
    Count(&count).Error
  return count, err
}

func (sr *sessionRepo) CountByUserAndStatus(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status types.SessionStatus) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }
  var count int64
  err := transaction.WithContext(ctx).
    Model(&types.ConversationSession{}).
    Where("user_id = ? AND status = ?", userID, status).
    Count(&count).Error
  return count, err
}

func (sr *sessionRepo) CountActiveSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }
  var count int64
  err := transaction.WithContext(ctx).
    Model(&types.ConversationSession{}).
    Where("user_id = ? AND last_activity_at >= ?", userID, since).
    Count(&count).Error
  return count, err
}

func (sr *sessionRepo) AvgMessageCount(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (float64, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }
  var avg *float64
  err := transaction.WithContext(ctx).
    Model(&types.ConversationSession{}).
    Where("user_id = ?", userID).
    Select("AVG(message_count)").
    Scan(&avg).Error
  if err != nil {
    return 0, err
  }
  if avg == nil {
    return 0, nil
  }
  return *avg, nil
}
