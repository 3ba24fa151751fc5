package services

import (
  "context"
  "errors"
  "net/http"
  "testing"
  "time"

  "github.com/talkbase/conversation-backend/internal/apierr"
  "github.com/talkbase/conversation-backend/internal/requestdata"
)

func newAuthService(t *testing.T, env *testEnv) AuthService {
  t.Helper()
  return NewAuthService(
    env.db, testLogger(t),
    env.userRepo, env.tokenRepo, env.profileRepo,
    "test-secret", time.Hour, 24*time.Hour,
  )
}

func TestRegisterCreatesUserAndProfile(t *testing.T) {
  env := newTestEnv(t)
  auth := newAuthService(t, env)
  ctx := context.Background()

  user, err := auth.Register(ctx, RegisterInput{
    Email:     " Alice@Example.COM ",
    Password:  "correct horse",
    FirstName: "Alice",
  })
  if err != nil {
    t.Fatalf("Register: %v", err)
  }
  if user.Email != "alice@example.com" {
    t.Fatalf("email = %q, want normalized lowercase", user.Email)
  }
  if user.Password == "correct horse" {
    t.Fatal("password must be stored hashed")
  }

  profile, err := env.profileRepo.GetByUserID(ctx, nil, user.ID)
  if err != nil {
    t.Fatalf("GetByUserID: %v", err)
  }
  if profile == nil {
    t.Fatal("registration should create a profile row")
  }
}

func TestRegisterValidation(t *testing.T) {
  env := newTestEnv(t)
  auth := newAuthService(t, env)
  ctx := context.Background()

  _, err := auth.Register(ctx, RegisterInput{Email: "not-an-email", Password: "short"})
  var ae *apierr.Error
  if !errors.As(err, &ae) || ae.Status != http.StatusBadRequest {
    t.Fatalf("expected validation error, got %v", err)
  }
  if len(ae.Fields) != 2 {
    t.Fatalf("fields = %v, want errors on email and password", ae.Fields)
  }

  if _, err := auth.Register(ctx, RegisterInput{Email: "bob@example.com", Password: "long enough"}); err != nil {
    t.Fatalf("Register: %v", err)
  }
  _, err = auth.Register(ctx, RegisterInput{Email: "bob@example.com", Password: "long enough"})
  if !isValidationError(err) {
    t.Fatalf("expected duplicate email rejection, got %v", err)
  }
}

func TestLoginAndTokenRoundTrip(t *testing.T) {
  env := newTestEnv(t)
  auth := newAuthService(t, env)
  ctx := context.Background()

  user, err := auth.Register(ctx, RegisterInput{Email: "carol@example.com", Password: "super secret"})
  if err != nil {
    t.Fatalf("Register: %v", err)
  }

  if _, _, err := auth.Login(ctx, "carol@example.com", "wrong password"); err == nil {
    t.Fatal("wrong password should fail")
  }
  if _, _, err := auth.Login(ctx, "nobody@example.com", "super secret"); err == nil {
    t.Fatal("unknown email should fail")
  }

  access, refresh, err := auth.Login(ctx, "Carol@Example.com", "super secret")
  if err != nil {
    t.Fatalf("Login: %v", err)
  }
  if access == "" || refresh == "" {
    t.Fatal("login should issue both tokens")
  }

  authedCtx, err := auth.SetContextFromToken(ctx, access)
  if err != nil {
    t.Fatalf("SetContextFromToken: %v", err)
  }
  rd := requestdata.GetRequestData(authedCtx)
  if rd == nil || rd.UserID != user.ID {
    t.Fatalf("context user = %v, want %s", rd, user.ID)
  }

  if _, err := auth.SetContextFromToken(ctx, "garbage.token.here"); err == nil {
    t.Fatal("garbage token should be rejected")
  }
}

func TestRefreshRotatesTokens(t *testing.T) {
  env := newTestEnv(t)
  auth := newAuthService(t, env)
  ctx := context.Background()

  if _, err := auth.Register(ctx, RegisterInput{Email: "dave@example.com", Password: "super secret"}); err != nil {
    t.Fatalf("Register: %v", err)
  }
  _, refresh, err := auth.Login(ctx, "dave@example.com", "super secret")
  if err != nil {
    t.Fatalf("Login: %v", err)
  }

  _, newRefresh, err := auth.Refresh(ctx, refresh)
  if err != nil {
    t.Fatalf("Refresh: %v", err)
  }
  if newRefresh == refresh {
    t.Fatal("refresh should rotate the refresh token")
  }

  // The old refresh token was replaced and must no longer work.
  if _, _, err := auth.Refresh(ctx, refresh); err == nil {
    t.Fatal("stale refresh token should be rejected")
  }

  var ae *apierr.Error
  _, _, err = auth.Refresh(ctx, "")
  if !errors.As(err, &ae) || ae.Status != http.StatusUnauthorized {
    t.Fatalf("expected 401 for missing refresh token, got %v", err)
  }
}

func TestLogoutInvalidatesRefresh(t *testing.T) {
  env := newTestEnv(t)
  auth := newAuthService(t, env)
  ctx := context.Background()

  if _, err := auth.Register(ctx, RegisterInput{Email: "erin@example.com", Password: "super secret"}); err != nil {
    t.Fatalf("Register: %v", err)
  }
  access, refresh, err := auth.Login(ctx, "erin@example.com", "super secret")
  if err != nil {
    t.Fatalf("Login: %v", err)
  }

  authedCtx, err := auth.SetContextFromToken(ctx, access)
  if err != nil {
    t.Fatalf("SetContextFromToken: %v", err)
  }
  if err := auth.Logout(authedCtx); err != nil {
    t.Fatalf("Logout: %v", err)
  }
  if _, _, err := auth.Refresh(ctx, refresh); err == nil {
    t.Fatal("refresh after logout should be rejected")
  }
}
