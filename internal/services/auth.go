package services

import (
  "context"
  "fmt"
  "strings"
  "time"

  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"
  "golang.org/x/crypto/bcrypt"
  "gorm.io/gorm"

  "github.com/talkbase/conversation-backend/internal/apierr"
  "github.com/talkbase/conversation-backend/internal/logger"
  "github.com/talkbase/conversation-backend/internal/repos"
  "github.com/talkbase/conversation-backend/internal/requestdata"
  "github.com/talkbase/conversation-backend/internal/types"
)

type RegisterInput struct {
  Email     string `json:"email"`
  Password  string `json:"password"`
  FirstName string `json:"first_name"`
  LastName  string `json:"last_name"`
}

type AuthService interface {
  Register(ctx context.Context, input RegisterInput) (*types.User, error)
  Login(ctx context.Context, email, password string) (string, string, error)
  Refresh(ctx context.Context, refreshToken string) (string, string, error)
  Logout(ctx context.Context) error
  SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
  db            *gorm.DB
  log           *logger.Logger
  userRepo      repos.UserRepo
  userTokenRepo repos.UserTokenRepo
  profileRepo   repos.UserProfileRepo
  jwtSecretKey  string
  accessTTL     time.Duration
  refreshTTL    time.Duration
}

func NewAuthService(
  db *gorm.DB,
  baseLog *logger.Logger,
  userRepo repos.UserRepo,
  userTokenRepo repos.UserTokenRepo,
  profileRepo repos.UserProfileRepo,
  jwtSecretKey string,
  accessTTL time.Duration,
  refreshTTL time.Duration,
) AuthService {
  return &authService{
    db:            db,
    log:           baseLog.With("service", "AuthService"),
    userRepo:      userRepo,
    userTokenRepo: userTokenRepo,
    profileRepo:   profileRepo,
    jwtSecretKey:  jwtSecretKey,
    accessTTL:     accessTTL,
    refreshTTL:    refreshTTL,
  }
}

func (as *authService) Register(ctx context.Context, input RegisterInput) (*types.User, error) {
  email := strings.ToLower(strings.TrimSpace(input.Email))
  fields := map[string]string{}
  if email == "" || !strings.Contains(email, "@") {
    fields["email"] = "a valid email is required"
  }
  if len(input.Password) < 8 {
    fields["password"] = "password must be at least 8 characters"
  }
  if len(fields) > 0 {
    return nil, apierr.Validation(fields)
  }

  exists, err := as.userRepo.EmailExists(ctx, nil, email)
  if err != nil {
    return nil, fmt.Errorf("check email: %w", err)
  }
  if exists {
    return nil, apierr.ValidationField("email", "email is already registered")
  }

  hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
  if err != nil {
    return nil, fmt.Errorf("hash password: %w", err)
  }

  now := time.Now()
  user := &types.User{
    ID:        uuid.New(),
    Email:     email,
    Password:  string(hash),
    FirstName: strings.TrimSpace(input.FirstName),
    LastName:  strings.TrimSpace(input.LastName),
    CreatedAt: now,
    UpdatedAt: now,
  }

  if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if _, err := as.userRepo.Create(ctx, tx, []*types.User{user}); err != nil {
      return fmt.Errorf("create user: %w", err)
    }
    prefs, err := jsonField(map[string]interface{}{})
    if err != nil {
      return err
    }
    profile := &types.UserProfile{
      ID:          uuid.New(),
      UserID:      user.ID,
      IsActive:    true,
      Preferences: prefs,
      CreatedAt:   now,
      UpdatedAt:   now,
    }
    if _, err := as.profileRepo.Create(ctx, tx, profile); err != nil {
      return fmt.Errorf("create profile: %w", err)
    }
    return nil
  }); err != nil {
    as.log.Error("Register failed", "error", err)
    return nil, err
  }

  as.log.Info("Registered user", "user_id", user.ID)
  return user, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (string, string, error) {
  email = strings.ToLower(strings.TrimSpace(email))
  users, err := as.userRepo.GetByEmails(ctx, nil, []string{email})
  if err != nil {
    return "", "", fmt.Errorf("load user: %w", err)
  }
  if len(users) == 0 {
    return "", "", apierr.Unauthorized("invalid credentials")
  }
  user := users[0]
  if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
    return "", "", apierr.Unauthorized("invalid credentials")
  }
  return as.issueTokens(ctx, user)
}

func (as *authService) issueTokens(ctx context.Context, user *types.User) (string, string, error) {
  accessToken, err := as.generateAccessToken(user)
  if err != nil {
    return "", "", fmt.Errorf("generate access token: %w", err)
  }
  refreshToken := uuid.New().String()

  if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if err := as.userTokenRepo.DeleteByUserID(ctx, tx, user.ID); err != nil {
      return fmt.Errorf("clear previous tokens: %w", err)
    }
    token := &types.UserToken{
      ID:           uuid.New(),
      UserID:       user.ID,
      AccessToken:  accessToken,
      RefreshToken: refreshToken,
      ExpiresAt:    time.Now().Add(as.refreshTTL),
      CreatedAt:    time.Now(),
    }
    if _, err := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{token}); err != nil {
      return fmt.Errorf("store token: %w", err)
    }
    return nil
  }); err != nil {
    return "", "", err
  }
  return accessToken, refreshToken, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
  now := time.Now()
  claims := jwt.RegisteredClaims{
    Subject:   user.ID.String(),
    IssuedAt:  jwt.NewNumericDate(now),
    ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
  }
  token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
  return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
  if refreshToken == "" {
    return "", "", apierr.Unauthorized("missing refresh token")
  }
  row, err := as.userTokenRepo.GetByRefreshToken(ctx, nil, refreshToken)
  if err != nil {
    return "", "", fmt.Errorf("load refresh token: %w", err)
  }
  if row == nil || row.ExpiresAt.Before(time.Now()) {
    return "", "", apierr.Unauthorized("invalid or expired refresh token")
  }
  users, err := as.userRepo.GetByIDs(ctx, nil, []uuid.UUID{row.UserID})
  if err != nil {
    return "", "", fmt.Errorf("load user: %w", err)
  }
  if len(users) == 0 {
    return "", "", apierr.Unauthorized("user no longer exists")
  }
  return as.issueTokens(ctx, users[0])
}

func (as *authService) Logout(ctx context.Context) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return apierr.Unauthorized("not authenticated")
  }
  return as.userTokenRepo.DeleteByUserID(ctx, nil, rd.UserID)
}

// SetContextFromToken verifies the bearer token and stashes the caller's
// identity in the context for everything downstream.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
  token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
    if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
      return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
    }
    return []byte(as.jwtSecretKey), nil
  })
  if err != nil || !token.Valid {
    return ctx, apierr.Unauthorized("invalid token")
  }
  claims, ok := token.Claims.(*jwt.RegisteredClaims)
  if !ok {
    return ctx, apierr.Unauthorized("invalid token claims")
  }
  userID, err := uuid.Parse(claims.Subject)
  if err != nil {
    return ctx, apierr.Unauthorized("invalid token subject")
  }
  rd := &requestdata.RequestData{
    TokenString: tokenString,
    UserID:      userID,
  }
  return requestdata.WithRequestData(ctx, rd), nil
}
