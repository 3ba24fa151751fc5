package services

import (
  "context"
  "encoding/json"
  "fmt"
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/talkbase/conversation-backend/internal/apierr"
  "github.com/talkbase/conversation-backend/internal/logger"
  "github.com/talkbase/conversation-backend/internal/repos"
  "github.com/talkbase/conversation-backend/internal/types"
)

type CreateSessionInput struct {
  Title          string                 `json:"title"`
  Description    string                 `json:"description"`
  AIModelVersion string                 `json:"ai_model_version"`
  SessionContext map[string]interface{} `json:"session_context"`
  Tags           []string               `json:"tags"`
}

// SessionListQuery carries the raw filter strings from the request; the
// service validates them before they reach the store.
type SessionListQuery struct {
  Status   string
  DateFrom string
  DateTo   string
  Search   string
}

type SessionStats struct {
  TotalSessions         int64   `json:"total_sessions"`
  ActiveSessions        int64   `json:"active_sessions"`
  TotalMessages         int64   `json:"total_messages"`
  AvgMessagesPerSession float64 `json:"avg_messages_per_session"`
  RecentActivity        int64   `json:"recent_activity"`
}

type SessionService interface {
  Create(ctx context.Context, userID uuid.UUID, input CreateSessionInput) (*types.ConversationSession, error)
  List(ctx context.Context, userID uuid.UUID, query SessionListQuery, limit, offset int) ([]*types.ConversationSession, int64, error)
  Get(ctx context.Context, userID, sessionID uuid.UUID) (*types.ConversationSession, error)
  Archive(ctx context.Context, userID, sessionID uuid.UUID) (types.SessionStatus, error)
  Activate(ctx context.Context, userID, sessionID uuid.UUID) (types.SessionStatus, error)
  Touch(ctx context.Context, userID, sessionID uuid.UUID) error
  Stats(ctx context.Context, userID uuid.UUID) (*SessionStats, error)
}

type sessionService struct {
  db            *gorm.DB
  log           *logger.Logger
  sessionRepo   repos.SessionRepo
  messageRepo   repos.MessageRepo
  analyticsRepo repos.AnalyticsRepo
}

func NewSessionService(
  db *gorm.DB,
  baseLog *logger.Logger,
  sessionRepo repos.SessionRepo,
  messageRepo repos.MessageRepo,
  analyticsRepo repos.AnalyticsRepo,
) SessionService {
  return &sessionService{
    db:            db,
    log:           baseLog.With("service", "SessionService"),
    sessionRepo:   sessionRepo,
    messageRepo:   messageRepo,
    analyticsRepo: analyticsRepo,
  }
}

// jsonField marshals an arbitrary value into a jsonb column value. nil maps
// and slices become empty containers so the column is never SQL NULL.
func jsonField(v interface{}) (datatypes.JSON, error) {
  raw, err := json.Marshal(v)
  if err != nil {
    return nil, fmt.Errorf("marshal json field: %w", err)
  }
  return datatypes.JSON(raw), nil
}

func (ss *sessionService) Create(ctx context.Context, userID uuid.UUID, input CreateSessionInput) (*types.ConversationSession, error) {
  if len(input.Title) > 255 {
    return nil, apierr.ValidationField("title", "title must be at most 255 characters")
  }

  sctx := input.SessionContext
  if sctx == nil {
    sctx = map[string]interface{}{}
  }
  tags := input.Tags
  if tags == nil {
    tags = []string{}
  }
  contextJSON, err := jsonField(sctx)
  if err != nil {
    return nil, err
  }
  tagsJSON, err := jsonField(tags)
  if err != nil {
    return nil, err
  }

  now := time.Now()
  session := &types.ConversationSession{
    ID:             uuid.New(),
    UserID:         userID,
    Title:          input.Title,
    Description:    input.Description,
    Status:         types.SessionActive,
    AIModelVersion: input.AIModelVersion,
    SessionContext: contextJSON,
    Tags:           tagsJSON,
    LastActivityAt: now,
    CreatedAt:      now,
    UpdatedAt:      now,
  }

  if err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if _, err := ss.sessionRepo.Create(ctx, tx, session); err != nil {
      return fmt.Errorf("create session: %w", err)
    }
    analytics := &types.ConversationAnalytics{
      ID:        uuid.New(),
      SessionID: session.ID,
      CreatedAt: now,
      UpdatedAt: now,
    }
    if _, err := ss.analyticsRepo.Create(ctx, tx, analytics); err != nil {
      return fmt.Errorf("create analytics row: %w", err)
    }
    return nil
  }); err != nil {
    ss.log.Error("Create session failed", "error", err, "user_id", userID)
    return nil, err
  }

  ss.log.Info("Created conversation session", "session_id", session.ID, "user_id", userID)
  return session, nil
}

func (ss *sessionService) List(ctx context.Context, userID uuid.UUID, query SessionListQuery, limit, offset int) ([]*types.ConversationSession, int64, error) {
  filter := repos.SessionFilter{Search: query.Search}

  if query.Status != "" {
    status, err := types.ParseSessionStatus(query.Status)
    if err != nil {
      return nil, 0, apierr.ValidationField("status", err.Error())
    }
    filter.Status = &status
  }
  if query.DateFrom != "" {
    t, err := parseDateParam(query.DateFrom)
    if err != nil {
      return nil, 0, apierr.ValidationField("date_from", err.Error())
    }
    filter.DateFrom = &t
  }
  if query.DateTo != "" {
    t, err := parseDateParam(query.DateTo)
    if err != nil {
      return nil, 0, apierr.ValidationField("date_to", err.Error())
    }
    filter.DateTo = &t
  }

  return ss.sessionRepo.List(ctx, nil, userID, filter, limit, offset)
}

func parseDateParam(s string) (time.Time, error) {
  if t, err := time.Parse(time.RFC3339, s); err == nil {
    return t, nil
  }
  t, err := time.Parse("2006-01-02", s)
  if err != nil {
    return time.Time{}, fmt.Errorf("expected RFC3339 timestamp or YYYY-MM-DD date, got %q", s)
  }
  return t, nil
}

func (ss *sessionService) Get(ctx context.Context, userID, sessionID uuid.UUID) (*types.ConversationSession, error) {
  session, err := ss.sessionRepo.GetOwned(ctx, nil, sessionID, userID)
  if err != nil {
    return nil, err
  }
  if session == nil {
    return nil, apierr.NotFound("session")
  }
  return session, nil
}

func (ss *sessionService) Archive(ctx context.Context, userID, sessionID uuid.UUID) (types.SessionStatus, error) {
  return ss.transition(ctx, userID, sessionID, types.SessionArchived)
}

func (ss *sessionService) Activate(ctx context.Context, userID, sessionID uuid.UUID) (types.SessionStatus, error) {
  return ss.transition(ctx, userID, sessionID, types.SessionActive)
}

func (ss *sessionService) transition(ctx context.Context, userID, sessionID uuid.UUID, target types.SessionStatus) (types.SessionStatus, error) {
  session, err := ss.sessionRepo.GetOwned(ctx, nil, sessionID, userID)
  if err != nil {
    return "", err
  }
  if session == nil {
    return "", apierr.NotFound("session")
  }
  if err := ss.sessionRepo.UpdateStatus(ctx, nil, sessionID, target); err != nil {
    ss.log.Error("Status transition failed", "error", err, "session_id", sessionID, "target", target)
    return "", err
  }
  ss.log.Info("Session status changed", "session_id", sessionID, "from", session.Status, "to", target)
  return target, nil
}

func (ss *sessionService) Touch(ctx context.Context, userID, sessionID uuid.UUID) error {
  session, err := ss.sessionRepo.GetOwned(ctx, nil, sessionID, userID)
  if err != nil {
    return err
  }
  if session == nil {
    return apierr.NotFound("session")
  }
  return ss.sessionRepo.Touch(ctx, nil, sessionID, time.Now())
}

func (ss *sessionService) Stats(ctx context.Context, userID uuid.UUID) (*SessionStats, error) {
  total, err := ss.sessionRepo.CountByUser(ctx, nil, userID)
  if err != nil {
    return nil, fmt.Errorf("count sessions: %w", err)
  }
  active, err := ss.sessionRepo.CountByUserAndStatus(ctx, nil, userID, types.SessionActive)
  if err != nil {
    return nil, fmt.Errorf("count active sessions: %w", err)
  }
  totalMessages, err := ss.messageRepo.CountByUser(ctx, nil, userID)
  if err != nil {
    return nil, fmt.Errorf("count messages: %w", err)
  }
  avgMessages, err := ss.sessionRepo.AvgMessageCount(ctx, nil, userID)
  if err != nil {
    return nil, fmt.Errorf("average message count: %w", err)
  }
  recent, err := ss.sessionRepo.CountActiveSince(ctx, nil, userID, time.Now().AddDate(0, 0, -7))
  if err != nil {
    return nil, fmt.Errorf("count recent activity: %w", err)
  }

  return &SessionStats{
    TotalSessions:         total,
    ActiveSessions:        active,
    TotalMessages:         totalMessages,
    AvgMessagesPerSession: avgMessages,
    RecentActivity:        recent,
  }, nil
}
