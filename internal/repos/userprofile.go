package repos

import (
  "context"
  "errors"
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/talkbase/conversation-backend/internal/logger"
  "github.com/talkbase/conversation-backend/internal/types"
)

type UserProfileRepo interface {
  Create(ctx context.Context, tx *gorm.DB, profile *types.UserProfile) (*types.UserProfile, error)
  GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserProfile, error)
  UpdatePreferences(ctx context.Context, tx *gorm.DB, userID uuid.UUID, prefs datatypes.JSON) error
}

type userProfileRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewUserProfileRepo(db *gorm.DB, baseLog *logger.Logger) UserProfileRepo {
  return &userProfileRepo{db: db, log: baseLog.With("repo", "UserProfileRepo")}
}

func (upr *userProfileRepo) Create(ctx context.Context, tx *gorm.DB, profile *types.UserProfile) (*types.UserProfile, error) {
  transaction := tx
  if transaction == nil {
    transaction = upr.db
  }
  if err := transaction.WithContext(ctx).Create(profile).Error; err != nil {
    return nil, err
  }
  return profile, nil
}

func (upr *userProfileRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserProfile, error) {
  transaction := tx
  if transaction == nil {
    transaction = upr.db
  }
  var result types.UserProfile
  err := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    First(&result).Error
  if errors.Is(err, gorm.ErrRecordNotFound) {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &result, nil
}

func (upr *userProfileRepo) UpdatePreferences(ctx context.Context, tx *gorm.DB, userID uuid.UUID, prefs datatypes.JSON) error {
  transaction := tx
  if transaction == nil {
    transaction = upr.db
  }
  return transaction.WithContext(ctx).
    Model(&types.UserProfile{}).
    Where("user_id = ?", userID).
    Updates(map[string]interface{}{
      "preferences": prefs,
      "updated_at":  time.Now(),
    }).Error
}
