package services

import (
  "context"
  "errors"
  "net/http"
  "testing"

  "github.com/google/uuid"

  "github.com/talkbase/conversation-backend/internal/apierr"
  "github.com/talkbase/conversation-backend/internal/types"
)

func seedMessage(t *testing.T, env *testEnv, userID uuid.UUID) *types.Message {
  t.Helper()
  ctx := context.Background()
  session, err := env.sessions.Create(ctx, userID, CreateSessionInput{})
  if err != nil {
    t.Fatalf("Create session: %v", err)
  }
  message, err := env.messages.Append(ctx, userID, session.ID, AppendMessageInput{
    Content:     "how about this answer",
    MessageType: "ai",
  })
  if err != nil {
    t.Fatalf("Append: %v", err)
  }
  return message
}

func TestReactUpsertsSingleRow(t *testing.T) {
  env := newTestEnv(t)
  ctx := context.Background()
  userID := uuid.New()
  message := seedMessage(t, env, userID)

  first, created, err := env.reactions.React(ctx, userID, message.ID, ReactInput{
    ReactionType: "like",
    Comment:      "nice",
  })
  if err != nil {
    t.Fatalf("React: %v", err)
  }
  if !created {
    t.Fatal("first reaction should be created")
  }
  if first.Comment != "nice" {
    t.Fatalf("comment = %q, want %q", first.Comment, "nice")
  }

  second, created, err := env.reactions.React(ctx, userID, message.ID, ReactInput{
    ReactionType: "like",
    Comment:      "great",
  })
  if err != nil {
    t.Fatalf("React again: %v", err)
  }
  if created {
    t.Fatal("second reaction with the same triple should update, not create")
  }
  if second.Comment != "great" {
    t.Fatalf("comment = %q, want %q", second.Comment, "great")
  }
  if second.ID != first.ID {
    t.Fatalf("upsert produced a different row: %s vs %s", second.ID, first.ID)
  }

  all, err := env.reactions.List(ctx, userID, message.ID)
  if err != nil {
    t.Fatalf("List: %v", err)
  }
  if len(all) != 1 {
    t.Fatalf("reactions = %d, want exactly 1", len(all))
  }
}

func TestReactDifferentKindsCoexist(t *testing.T) {
  env := newTestEnv(t)
  ctx := context.Background()
  userID := uuid.New()
  message := seedMessage(t, env, userID)

  for _, kind := range []string{"like", "helpful"} {
    if _, _, err := env.reactions.React(ctx, userID, message.ID, ReactInput{ReactionType: kind}); err != nil {
      t.Fatalf("React(%s): %v", kind, err)
    }
  }
  all, err := env.reactions.List(ctx, userID, message.ID)
  if err != nil {
    t.Fatalf("List: %v", err)
  }
  if len(all) != 2 {
    t.Fatalf("reactions = %d, want 2", len(all))
  }
}

func TestReactValidation(t *testing.T) {
  env := newTestEnv(t)
  ctx := context.Background()
  userID := uuid.New()
  message := seedMessage(t, env, userID)

  _, _, err := env.reactions.React(ctx, userID, message.ID, ReactInput{})
  if !isValidationError(err) {
    t.Fatalf("expected validation error for missing reaction_type, got %v", err)
  }
  _, _, err = env.reactions.React(ctx, userID, message.ID, ReactInput{ReactionType: "meh"})
  if !isValidationError(err) {
    t.Fatalf("expected validation error for unknown reaction_type, got %v", err)
  }
}

func TestReactOnForeignMessageIsNotFound(t *testing.T) {
  env := newTestEnv(t)
  ctx := context.Background()
  owner := uuid.New()
  stranger := uuid.New()
  message := seedMessage(t, env, owner)

  _, _, err := env.reactions.React(ctx, stranger, message.ID, ReactInput{ReactionType: "like"})
  var ae *apierr.Error
  if !errors.As(err, &ae) || ae.Status != http.StatusNotFound {
    t.Fatalf("expected 404 for foreign message, got %v", err)
  }
}
