package repos

import (
  "context"
  "errors"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"
  "gorm.io/gorm/clause"

  "github.com/talkbase/conversation-backend/internal/logger"
  "github.com/talkbase/conversation-backend/internal/types"
)

type TemplateRepo interface {
  Create(ctx context.Context, tx *gorm.DB, template *types.ConversationTemplate) (*types.ConversationTemplate, error)
  GetActiveByID(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) (*types.ConversationTemplate, error)
  ListActive(ctx context.Context, tx *gorm.DB) ([]*types.ConversationTemplate, error)
  IncrementUsage(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) error
  UpsertByName(ctx context.Context, tx *gorm.DB, template *types.ConversationTemplate) error
}

type templateRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewTemplateRepo(db *gorm.DB, baseLog *logger.Logger) TemplateRepo {
  return &templateRepo{db: db, log: baseLog.With("repo", "TemplateRepo")}
}

func (tr *templateRepo) Create(ctx context.Context, tx *gorm.DB, template *types.ConversationTemplate) (*types.ConversationTemplate, error) {
  transaction := tx
  if transaction == nil {
    transaction = tr.db
  }
  if err := transaction.WithContext(ctx).Create(template).Error; err != nil {
    return nil, err
  }
  return template, nil
}

func (tr *templateRepo) GetActiveByID(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) (*types.ConversationTemplate, error) {
  transaction := tx
  if transaction == nil {
    transaction = tr.db
  }
  var result types.ConversationTemplate
  err := transaction.WithContext(ctx).
    Where("id = ? AND is_active = ?", templateID, true).
    First(&result).Error
  if errors.Is(err, gorm.ErrRecordNotFound) {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &result, nil
}

func (tr *templateRepo) ListActive(ctx context.Context, tx *gorm.DB) ([]*types.ConversationTemplate, error) {
  transaction := tx
  if transaction == nil {
    transaction = tr.db
  }
  var results []*types.ConversationTemplate
  if err := transaction.WithContext(ctx).
    Where("is_active = ?", true).
    Order("category ASC, name ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

// IncrementUsage moves usage_count with a SQL expression, never a
// read-modify-write, so concurrent template use cannot lose an increment.
func (tr *templateRepo) IncrementUsage(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = tr.db
  }
  return transaction.WithContext(ctx).
    Model(&types.ConversationTemplate{}).
    Where("id = ?", templateID).
    Updates(map[string]interface{}{
      "usage_count": gorm.Expr("usage_count + 1"),
      "updated_at":  time.Now(),
    }).Error
}

// UpsertByName backs the fixture loader: templates are keyed by their unique
// name and re-seeding refreshes everything except the usage counter.
func (tr *templateRepo) UpsertByName(ctx context.Context, tx *gorm.DB, template *types.ConversationTemplate) error {
  transaction := tx
  if transaction == nil {
    transaction = tr.db
  }
  return transaction.WithContext(ctx).
    Clauses(clause.OnConflict{
      Columns: []clause.Column{{Name: "name"}},
      DoUpdates: clause.AssignmentColumns([]string{
        "description", "category", "template_data", "is_active", "updated_at",
      }),
    }).
    Create(template).Error
}
