package services

import (
  "context"
  "fmt"
  "strings"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/talkbase/conversation-backend/internal/apierr"
  "github.com/talkbase/conversation-backend/internal/logger"
  "github.com/talkbase/conversation-backend/internal/repos"
  "github.com/talkbase/conversation-backend/internal/types"
  "github.com/talkbase/conversation-backend/internal/utils"
)

// appendMaxAttempts bounds the retry loop when two appends to the same
// session race on a sequence number. Each retry recomputes the sequence, so
// one winner exists per round and three rounds are plenty for a per-session
// hot spot; past that the caller gets a conflict back.
const appendMaxAttempts = 3

const autoTitleLimit = 50

type AppendMessageInput struct {
  Content         string                 `json:"content"`
  MessageType     string                 `json:"message_type"`
  AIModel         string                 `json:"ai_model"`
  ResponseTimeMS  *int                   `json:"response_time_ms"`
  TokensUsed      *int                   `json:"tokens_used"`
  ConfidenceScore *float64               `json:"confidence_score"`
  Metadata        map[string]interface{} `json:"metadata"`
  Attachments     []interface{}          `json:"attachments"`
}

type MessageService interface {
  Append(ctx context.Context, userID, sessionID uuid.UUID, input AppendMessageInput) (*types.Message, error)
  List(ctx context.Context, userID, sessionID uuid.UUID, limit, offset int) ([]*types.Message, int64, error)
  Get(ctx context.Context, userID, messageID uuid.UUID) (*types.Message, error)
}

type messageService struct {
  db            *gorm.DB
  log           *logger.Logger
  sessionRepo   repos.SessionRepo
  messageRepo   repos.MessageRepo
  analyticsRepo repos.AnalyticsRepo
  maxContentLen int
}

func NewMessageService(
  db *gorm.DB,
  baseLog *logger.Logger,
  sessionRepo repos.SessionRepo,
  messageRepo repos.MessageRepo,
  analyticsRepo repos.AnalyticsRepo,
  maxContentLen int,
) MessageService {
  return &messageService{
    db:            db,
    log:           baseLog.With("service", "MessageService"),
    sessionRepo:   sessionRepo,
    messageRepo:   messageRepo,
    analyticsRepo: analyticsRepo,
    maxContentLen: maxContentLen,
  }
}

// Append validates first, then runs the whole write as one transaction:
// message insert, session counters, auto-title, analytics. A sequence
// collision rolls the attempt back and the next attempt recomputes
// max(sequence_number)+1 against the committed state.
func (ms *messageService) Append(ctx context.Context, userID, sessionID uuid.UUID, input AppendMessageInput) (*types.Message, error) {
  content := strings.TrimSpace(input.Content)
  if content == "" {
    return nil, apierr.ValidationField("content", "message content cannot be empty")
  }
  if len([]rune(content)) > ms.maxContentLen {
    return nil, apierr.ValidationField("content", fmt.Sprintf("message content exceeds maximum length of %d characters", ms.maxContentLen))
  }
  msgType, err := types.ParseMessageType(input.MessageType)
  if err != nil {
    return nil, apierr.ValidationField("message_type", err.Error())
  }
  if input.ConfidenceScore != nil && (*input.ConfidenceScore < 0 || *input.ConfidenceScore > 1) {
    return nil, apierr.ValidationField("confidence_score", "confidence score must be between 0 and 1")
  }

  metadata := input.Metadata
  if metadata == nil {
    metadata = map[string]interface{}{}
  }
  attachments := input.Attachments
  if attachments == nil {
    attachments = []interface{}{}
  }
  metadataJSON, err := jsonField(metadata)
  if err != nil {
    return nil, err
  }
  attachmentsJSON, err := jsonField(attachments)
  if err != nil {
    return nil, err
  }

  var created *types.Message
  for attempt := 1; attempt <= appendMaxAttempts; attempt++ {
    created = nil
    err = ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
      session, err := ms.sessionRepo.GetOwned(ctx, tx, sessionID, userID)
      if err != nil {
        return err
      }
      if session == nil {
        return apierr.NotFound("session")
      }

      maxSeq, err := ms.messageRepo.MaxSequence(ctx, tx, sessionID)
      if err != nil {
        return fmt.Errorf("resolve sequence number: %w", err)
      }

      now := time.Now()
      message := &types.Message{
        ID:              uuid.New(),
        SessionID:       sessionID,
        MessageType:     msgType,
        Content:         content,
        Status:          types.MessageSent,
        SequenceNumber:  maxSeq + 1,
        Timestamp:       now,
        AIModel:         input.AIModel,
        ResponseTimeMS:  input.ResponseTimeMS,
        TokensUsed:      input.TokensUsed,
        ConfidenceScore: input.ConfidenceScore,
        Metadata:        metadataJSON,
        Attachments:     attachmentsJSON,
        WordCount:       utils.WordCount(content),
        CharacterCount:  utils.CharacterCount(content),
        Language:        "en",
      }
      if _, err := ms.messageRepo.Create(ctx, tx, message); err != nil {
        return err
      }

      tokens := 0
      if input.TokensUsed != nil {
        tokens = *input.TokensUsed
      }
      if err := ms.sessionRepo.ApplyAppend(ctx, tx, sessionID, now, tokens); err != nil {
        return fmt.Errorf("update session counters: %w", err)
      }

      if session.Title == "" && msgType == types.MessageTypeUser {
        if err := ms.sessionRepo.SetTitleIfEmpty(ctx, tx, sessionID, autoTitle(content)); err != nil {
          return fmt.Errorf("set auto title: %w", err)
        }
      }

      duration := int(now.Sub(session.CreatedAt).Seconds())
      if duration < 0 {
        duration = 0
      }
      if err := ms.analyticsRepo.ApplyAppend(ctx, tx, sessionID, message, duration); err != nil {
        return fmt.Errorf("update analytics: %w", err)
      }

      created = message
      return nil
    })
    if err == nil {
      return created, nil
    }
    if !repos.IsUniqueViolation(err) {
      return nil, err
    }
    ms.log.Debug("Sequence collision, retrying append", "session_id", sessionID, "attempt", attempt)
  }

  ms.log.Warn("Append retries exhausted", "session_id", sessionID, "attempts", appendMaxAttempts)
  return nil, apierr.Conflict("could not assign a message sequence number, try again")
}

func autoTitle(content string) string {
  runes := []rune(content)
  if len(runes) > autoTitleLimit {
    return string(runes[:autoTitleLimit]) + "..."
  }
  return content
}

func (ms *messageService) List(ctx context.Context, userID, sessionID uuid.UUID, limit, offset int) ([]*types.Message, int64, error) {
  session, err := ms.sessionRepo.GetOwned(ctx, nil, sessionID, userID)
  if err != nil {
    return nil, 0, err
  }
  if session == nil {
    return nil, 0, apierr.NotFound("session")
  }
  return ms.messageRepo.ListBySession(ctx, nil, sessionID, limit, offset)
}

func (ms *messageService) Get(ctx context.Context, userID, messageID uuid.UUID) (*types.Message, error) {
  message, err := ms.messageRepo.GetByID(ctx, nil, messageID)
  if err != nil {
    return nil, err
  }
  if message == nil {
    return nil, apierr.NotFound("message")
  }
  session, err := ms.sessionRepo.GetOwned(ctx, nil, message.SessionID, userID)
  if err != nil {
    return nil, err
  }
  if session == nil {
    return nil, apierr.NotFound("message")
  }
  return message, nil
}
