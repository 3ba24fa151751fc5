package services

import (
  "context"
  "fmt"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/talkbase/conversation-backend/internal/apierr"
  "github.com/talkbase/conversation-backend/internal/logger"
  "github.com/talkbase/conversation-backend/internal/repos"
  "github.com/talkbase/conversation-backend/internal/types"
)

type CreateTemplateInput struct {
  Name         string                 `json:"name"`
  Description  string                 `json:"description"`
  Category     string                 `json:"category"`
  TemplateData map[string]interface{} `json:"template_data"`
}

type TemplateService interface {
  List(ctx context.Context) ([]*types.ConversationTemplate, error)
  Create(ctx context.Context, userID uuid.UUID, input CreateTemplateInput) (*types.ConversationTemplate, error)
  Use(ctx context.Context, userID, templateID uuid.UUID) (*types.ConversationSession, error)
}

type templateService struct {
  db            *gorm.DB
  log           *logger.Logger
  templateRepo  repos.TemplateRepo
  sessionRepo   repos.SessionRepo
  analyticsRepo repos.AnalyticsRepo
}

func NewTemplateService(
  db *gorm.DB,
  baseLog *logger.Logger,
  templateRepo repos.TemplateRepo,
  sessionRepo repos.SessionRepo,
  analyticsRepo repos.AnalyticsRepo,
) TemplateService {
  return &templateService{
    db:            db,
    log:           baseLog.With("service", "TemplateService"),
    templateRepo:  templateRepo,
    sessionRepo:   sessionRepo,
    analyticsRepo: analyticsRepo,
  }
}

func (ts *templateService) List(ctx context.Context) ([]*types.ConversationTemplate, error) {
  return ts.templateRepo.ListActive(ctx, nil)
}

func (ts *templateService) Create(ctx context.Context, userID uuid.UUID, input CreateTemplateInput) (*types.ConversationTemplate, error) {
  fields := map[string]string{}
  if input.Name == "" {
    fields["name"] = "name is required"
  }
  if len(input.Name) > 100 {
    fields["name"] = "name must be at most 100 characters"
  }
  if input.Category == "" {
    fields["category"] = "category is required"
  }
  if len(fields) > 0 {
    return nil, apierr.Validation(fields)
  }

  data := input.TemplateData
  if data == nil {
    data = map[string]interface{}{}
  }
  dataJSON, err := jsonField(data)
  if err != nil {
    return nil, err
  }

  now := time.Now()
  template := &types.ConversationTemplate{
    ID:           uuid.New(),
    Name:         input.Name,
    Description:  input.Description,
    Category:     input.Category,
    TemplateData: dataJSON,
    IsActive:     true,
    CreatedByID:  &userID,
    CreatedAt:    now,
    UpdatedAt:    now,
  }
  if _, err := ts.templateRepo.Create(ctx, nil, template); err != nil {
    if repos.IsUniqueViolation(err) {
      return nil, apierr.ValidationField("name", "a template with this name already exists")
    }
    return nil, err
  }
  return template, nil
}

// Use instantiates a session from the template. The template itself stays
// immutable; only usage_count moves, atomically, in the same transaction as
// the session insert.
func (ts *templateService) Use(ctx context.Context, userID, templateID uuid.UUID) (*types.ConversationSession, error) {
  template, err := ts.templateRepo.GetActiveByID(ctx, nil, templateID)
  if err != nil {
    return nil, err
  }
  if template == nil {
    return nil, apierr.NotFound("template")
  }

  tagsJSON, err := jsonField([]string{template.Category})
  if err != nil {
    return nil, err
  }

  now := time.Now()
  session := &types.ConversationSession{
    ID:             uuid.New(),
    UserID:         userID,
    Title:          fmt.Sprintf("From template: %s", template.Name),
    Description:    template.Description,
    Status:         types.SessionActive,
    SessionContext: template.TemplateData,
    Tags:           tagsJSON,
    LastActivityAt: now,
    CreatedAt:      now,
    UpdatedAt:      now,
  }

  if err := ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if _, err := ts.sessionRepo.Create(ctx, tx, session); err != nil {
      return fmt.Errorf("create session from template: %w", err)
    }
    analytics := &types.ConversationAnalytics{
      ID:        uuid.New(),
      SessionID: session.ID,
      CreatedAt: now,
      UpdatedAt: now,
    }
    if _, err := ts.analyticsRepo.Create(ctx, tx, analytics); err != nil {
      return fmt.Errorf("create analytics row: %w", err)
    }
    if err := ts.templateRepo.IncrementUsage(ctx, tx, templateID); err != nil {
      return fmt.Errorf("increment template usage: %w", err)
    }
    return nil
  }); err != nil {
    ts.log.Error("Use template failed", "error", err, "template_id", templateID)
    return nil, err
  }

  ts.log.Info("Session created from template", "template_id", templateID, "session_id", session.ID)
  return session, nil
}
