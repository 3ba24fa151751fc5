package services

import (
  "context"
  "errors"
  "net/http"
  "strings"
  "testing"
  "time"

  "github.com/google/uuid"
  "golang.org/x/sync/errgroup"
  "gorm.io/gorm"

  "github.com/talkbase/conversation-backend/internal/apierr"
  "github.com/talkbase/conversation-backend/internal/types"
)

func isValidationError(err error) bool {
  var ae *apierr.Error
  return errors.As(err, &ae) && ae.Status == http.StatusBadRequest
}

func TestAppendRejectsBlankContent(t *testing.T) {
  env := newTestEnv(t)
  ctx := context.Background()
  userID := uuid.New()
  session, err := env.sessions.Create(ctx, userID, CreateSessionInput{})
  if err != nil {
    t.Fatalf("Create: %v", err)
  }

  for _, content := range []string{"", "   ", "\t\n"} {
    _, err := env.messages.Append(ctx, userID, session.ID, AppendMessageInput{
      Content:     content,
      MessageType: "user",
    })
    if !isValidationError(err) {
      t.Fatalf("Append(%q): expected validation error, got %v", content, err)
    }
  }

  // Nothing was written.
  got, err := env.sessions.Get(ctx, userID, session.ID)
  if err != nil {
    t.Fatalf("Get: %v", err)
  }
  if got.MessageCount != 0 {
    t.Fatalf("message_count = %d after rejected appends, want 0", got.MessageCount)
  }
}

func TestAppendRejectsOversizedContent(t *testing.T) {
  env := newTestEnv(t)
  ctx := context.Background()
  userID := uuid.New()
  session, err := env.sessions.Create(ctx, userID, CreateSessionInput{})
  if err != nil {
    t.Fatalf("Create: %v", err)
  }

  _, err = env.messages.Append(ctx, userID, session.ID, AppendMessageInput{
    Content:     strings.Repeat("x", 10001),
    MessageType: "user",
  })
  if !isValidationError(err) {
    t.Fatalf("expected validation error for oversized content, got %v", err)
  }
}

func TestAppendRejectsBadTypeAndConfidence(t *testing.T) {
  env := newTestEnv(t)
  ctx := context.Background()
  userID := uuid.New()
  session, err := env.sessions.Create(ctx, userID, CreateSessionInput{})
  if err != nil {
    t.Fatalf("Create: %v", err)
  }

  _, err = env.messages.Append(ctx, userID, session.ID, AppendMessageInput{
    Content:     "hi",
    MessageType: "robot",
  })
  if !isValidationError(err) {
    t.Fatalf("expected validation error for unknown type, got %v", err)
  }

  bad := 1.5
  _, err = env.messages.Append(ctx, userID, session.ID, AppendMessageInput{
    Content:         "hi",
    MessageType:     "ai",
    ConfidenceScore: &bad,
  })
  if !isValidationError(err) {
    t.Fatalf("expected validation error for out-of-range confidence, got %v", err)
  }
}

func TestAppendToUnknownSessionIsNotFound(t *testing.T) {
  env := newTestEnv(t)
  ctx := context.Background()

  _, err := env.messages.Append(ctx, uuid.New(), uuid.New(), AppendMessageInput{
    Content:     "hello",
    MessageType: "user",
  })
  var ae *apierr.Error
  if !errors.As(err, &ae) || ae.Status != http.StatusNotFound {
    t.Fatalf("expected 404, got %v", err)
  }
}

func TestAppendComputesContentMetrics(t *testing.T) {
  env := newTestEnv(t)
  ctx := context.Background()
  userID := uuid.New()
  session, err := env.sessions.Create(ctx, userID, CreateSessionInput{Title: "t"})
  if err != nil {
    t.Fatalf("Create: %v", err)
  }

  for _, msgType := range []string{"user", "ai", "system"} {
    message, err := env.messages.Append(ctx, userID, session.ID, AppendMessageInput{
      Content:     "  hello world  ",
      MessageType: msgType,
    })
    if err != nil {
      t.Fatalf("Append(%s): %v", msgType, err)
    }
    if message.WordCount != 2 {
      t.Fatalf("word_count = %d for %s message, want 2", message.WordCount, msgType)
    }
    if message.CharacterCount != 11 {
      t.Fatalf("character_count = %d for %s message, want 11", message.CharacterCount, msgType)
    }
    if message.Content != "hello world" {
      t.Fatalf("content = %q, want trimmed %q", message.Content, "hello world")
    }
    if message.Status != types.MessageSent {
      t.Fatalf("status = %q, want sent", message.Status)
    }
  }
}

func TestAppendKeepsSessionConsistent(t *testing.T) {
  env := newTestEnv(t)
  ctx := context.Background()
  userID := uuid.New()
  session, err := env.sessions.Create(ctx, userID, CreateSessionInput{})
  if err != nil {
    t.Fatalf("Create: %v", err)
  }

  const n = 5
  var lastTimestamp = session.LastActivityAt
  for i := 0; i < n; i++ {
    message, err := env.messages.Append(ctx, userID, session.ID, AppendMessageInput{
      Content:     "hello",
      MessageType: "user",
    })
    if err != nil {
      t.Fatalf("Append #%d: %v", i+1, err)
    }
    if message.SequenceNumber != i+1 {
      t.Fatalf("sequence_number = %d, want %d", message.SequenceNumber, i+1)
    }
    if message.Timestamp.Before(lastTimestamp) {
      t.Fatalf("timestamp went backwards")
    }
  }

  got, err := env.sessions.Get(ctx, userID, session.ID)
  if err != nil {
    t.Fatalf("Get: %v", err)
  }
  if got.MessageCount != n {
    t.Fatalf("message_count = %d, want %d", got.MessageCount, n)
  }
}

func TestAppendAutoTitlesFromFirstUserMessage(t *testing.T) {
  env := newTestEnv(t)
  ctx := context.Background()
  userID := uuid.New()
  session, err := env.sessions.Create(ctx, userID, CreateSessionInput{})
  if err != nil {
    t.Fatalf("Create: %v", err)
  }

  long := strings.Repeat("word ", 20) // 100 chars, gets truncated
  if _, err := env.messages.Append(ctx, userID, session.ID, AppendMessageInput{
    Content:     long,
    MessageType: "user",
  }); err != nil {
    t.Fatalf("Append: %v", err)
  }

  got, err := env.sessions.Get(ctx, userID, session.ID)
  if err != nil {
    t.Fatalf("Get: %v", err)
  }
  if !strings.HasSuffix(got.Title, "...") {
    t.Fatalf("title = %q, want truncated with ellipsis", got.Title)
  }
  if len([]rune(got.Title)) != autoTitleLimit+3 {
    t.Fatalf("title length = %d, want %d", len([]rune(got.Title)), autoTitleLimit+3)
  }

  // A second message does not overwrite the title.
  if _, err := env.messages.Append(ctx, userID, session.ID, AppendMessageInput{
    Content:     "something else",
    MessageType: "user",
  }); err != nil {
    t.Fatalf("Append: %v", err)
  }
  again, err := env.sessions.Get(ctx, userID, session.ID)
  if err != nil {
    t.Fatalf("Get: %v", err)
  }
  if again.Title != got.Title {
    t.Fatalf("title changed from %q to %q", got.Title, again.Title)
  }
}

func TestConcurrentAppendsKeepSequenceContiguous(t *testing.T) {
  env := newTestEnv(t)
  ctx := context.Background()
  userID := uuid.New()
  session, err := env.sessions.Create(ctx, userID, CreateSessionInput{})
  if err != nil {
    t.Fatalf("Create: %v", err)
  }

  const workers = 8
  var g errgroup.Group
  for i := 0; i < workers; i++ {
    g.Go(func() error {
      _, err := env.messages.Append(ctx, userID, session.ID, AppendMessageInput{
        Content:     "racing",
        MessageType: "user",
      })
      return err
    })
  }
  if err := g.Wait(); err != nil {
    t.Fatalf("concurrent append: %v", err)
  }

  messages, total, err := env.messages.List(ctx, userID, session.ID, 100, 0)
  if err != nil {
    t.Fatalf("List: %v", err)
  }
  if total != workers {
    t.Fatalf("total = %d, want %d", total, workers)
  }
  seen := map[int]bool{}
  for _, m := range messages {
    if seen[m.SequenceNumber] {
      t.Fatalf("duplicate sequence_number %d", m.SequenceNumber)
    }
    seen[m.SequenceNumber] = true
  }
  for i := 1; i <= workers; i++ {
    if !seen[i] {
      t.Fatalf("missing sequence_number %d", i)
    }
  }

  got, err := env.sessions.Get(ctx, userID, session.ID)
  if err != nil {
    t.Fatalf("Get: %v", err)
  }
  if got.MessageCount != workers {
    t.Fatalf("message_count = %d, want %d", got.MessageCount, workers)
  }
}

// injectSequenceConflicts installs a create hook that steals the sequence
// number of the next n message inserts by writing a competing row in the
// same transaction, simulating a writer that committed between the
// max(sequence_number) read and the insert.
func injectSequenceConflicts(t *testing.T, env *testEnv, n int) {
  t.Helper()
  remaining := n
  err := env.db.Callback().Create().Before("gorm:create").Register("steal_sequence_number", func(tx *gorm.DB) {
    m, ok := tx.Statement.Dest.(*types.Message)
    if !ok || remaining <= 0 {
      return
    }
    remaining--
    tx.Session(&gorm.Session{NewDB: true}).Exec(
      "INSERT INTO message (id, session_id, message_type, content, status, sequence_number, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)",
      uuid.New(), m.SessionID, "user", "occupied", "sent", m.SequenceNumber, time.Now(),
    )
  })
  if err != nil {
    t.Fatalf("register callback: %v", err)
  }
}

func TestAppendRetriesAfterSequenceCollision(t *testing.T) {
  env := newTestEnv(t)
  ctx := context.Background()
  userID := uuid.New()
  session, err := env.sessions.Create(ctx, userID, CreateSessionInput{})
  if err != nil {
    t.Fatalf("Create: %v", err)
  }

  injectSequenceConflicts(t, env, 1)

  message, err := env.messages.Append(ctx, userID, session.ID, AppendMessageInput{
    Content:     "made it through",
    MessageType: "user",
  })
  if err != nil {
    t.Fatalf("Append: %v", err)
  }
  // The colliding attempt rolled back whole, so the retry starts from an
  // empty session again.
  if message.SequenceNumber != 1 {
    t.Fatalf("sequence_number = %d, want 1", message.SequenceNumber)
  }

  messages, total, err := env.messages.List(ctx, userID, session.ID, 10, 0)
  if err != nil {
    t.Fatalf("List: %v", err)
  }
  if total != 1 || len(messages) != 1 {
    t.Fatalf("messages = %d, want exactly the retried insert", total)
  }

  stored, err := env.sessionRepo.GetOwned(ctx, nil, session.ID, userID)
  if err != nil {
    t.Fatalf("GetOwned: %v", err)
  }
  if stored.MessageCount != 1 {
    t.Fatalf("message_count = %d, want 1", stored.MessageCount)
  }
}

func TestAppendConflictAfterRetriesExhausted(t *testing.T) {
  env := newTestEnv(t)
  ctx := context.Background()
  userID := uuid.New()
  session, err := env.sessions.Create(ctx, userID, CreateSessionInput{})
  if err != nil {
    t.Fatalf("Create: %v", err)
  }

  injectSequenceConflicts(t, env, appendMaxAttempts)

  _, err = env.messages.Append(ctx, userID, session.ID, AppendMessageInput{
    Content:     "never lands",
    MessageType: "user",
  })
  var ae *apierr.Error
  if !errors.As(err, &ae) || ae.Status != http.StatusConflict {
    t.Fatalf("expected 409 after exhausted retries, got %v", err)
  }

  // Every attempt rolled back; nothing may remain.
  _, total, err := env.messages.List(ctx, userID, session.ID, 10, 0)
  if err != nil {
    t.Fatalf("List: %v", err)
  }
  if total != 0 {
    t.Fatalf("messages = %d, want 0 after failed append", total)
  }
  stored, err := env.sessionRepo.GetOwned(ctx, nil, session.ID, userID)
  if err != nil {
    t.Fatalf("GetOwned: %v", err)
  }
  if stored.MessageCount != 0 {
    t.Fatalf("message_count = %d, want 0", stored.MessageCount)
  }
}

func TestListMessagesPagination(t *testing.T) {
  env := newTestEnv(t)
  ctx := context.Background()
  userID := uuid.New()
  session, err := env.sessions.Create(ctx, userID, CreateSessionInput{})
  if err != nil {
    t.Fatalf("Create: %v", err)
  }
  for i := 0; i < 5; i++ {
    if _, err := env.messages.Append(ctx, userID, session.ID, AppendMessageInput{
      Content:     "m",
      MessageType: "user",
    }); err != nil {
      t.Fatalf("Append: %v", err)
    }
  }

  page, total, err := env.messages.List(ctx, userID, session.ID, 2, 2)
  if err != nil {
    t.Fatalf("List: %v", err)
  }
  if total != 5 {
    t.Fatalf("total = %d, want 5", total)
  }
  if len(page) != 2 || page[0].SequenceNumber != 3 || page[1].SequenceNumber != 4 {
    t.Fatalf("expected sequence numbers 3,4 on second page, got %v", page)
  }
}
