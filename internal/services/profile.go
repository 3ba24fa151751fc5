package services

import (
  "context"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/talkbase/conversation-backend/internal/logger"
  "github.com/talkbase/conversation-backend/internal/repos"
  "github.com/talkbase/conversation-backend/internal/types"
)

type ProfileService interface {
  Me(ctx context.Context, userID uuid.UUID) (*types.UserProfile, bool, error)
  UpdatePreferences(ctx context.Context, userID uuid.UUID, prefs map[string]interface{}) (*types.UserProfile, error)
}

type profileService struct {
  db          *gorm.DB
  log         *logger.Logger
  profileRepo repos.UserProfileRepo
  sessionRepo repos.SessionRepo
  messageRepo repos.MessageRepo
}

func NewProfileService(
  db *gorm.DB,
  baseLog *logger.Logger,
  profileRepo repos.UserProfileRepo,
  sessionRepo repos.SessionRepo,
  messageRepo repos.MessageRepo,
) ProfileService {
  return &profileService{
    db:          db,
    log:         baseLog.With("service", "ProfileService"),
    profileRepo: profileRepo,
    sessionRepo: sessionRepo,
    messageRepo: messageRepo,
  }
}

// Me returns the caller's profile, creating one on first access. The bool
// reports whether it was just created. Totals are derived from the session
// and message tables on every read rather than cached.
func (ps *profileService) Me(ctx context.Context, userID uuid.UUID) (*types.UserProfile, bool, error) {
  profile, err := ps.profileRepo.GetByUserID(ctx, nil, userID)
  if err != nil {
    return nil, false, err
  }
  created := false
  if profile == nil {
    prefs, err := jsonField(map[string]interface{}{})
    if err != nil {
      return nil, false, err
    }
    now := time.Now()
    profile = &types.UserProfile{
      ID:          uuid.New(),
      UserID:      userID,
      IsActive:    true,
      Preferences: prefs,
      CreatedAt:   now,
      UpdatedAt:   now,
    }
    if _, err := ps.profileRepo.Create(ctx, nil, profile); err != nil {
      return nil, false, err
    }
    created = true
  }

  if err := ps.fillTotals(ctx, profile); err != nil {
    return nil, false, err
  }
  return profile, created, nil
}

func (ps *profileService) fillTotals(ctx context.Context, profile *types.UserProfile) error {
  sessions, err := ps.sessionRepo.CountByUser(ctx, nil, profile.UserID)
  if err != nil {
    return err
  }
  messages, err := ps.messageRepo.CountByUser(ctx, nil, profile.UserID)
  if err != nil {
    return err
  }
  profile.TotalConversations = sessions
  profile.TotalMessages = messages
  return nil
}

func (ps *profileService) UpdatePreferences(ctx context.Context, userID uuid.UUID, prefs map[string]interface{}) (*types.UserProfile, error) {
  if prefs == nil {
    prefs = map[string]interface{}{}
  }
  prefsJSON, err := jsonField(prefs)
  if err != nil {
    return nil, err
  }
  profile, _, err := ps.Me(ctx, userID)
  if err != nil {
    return nil, err
  }
  if err := ps.profileRepo.UpdatePreferences(ctx, nil, userID, prefsJSON); err != nil {
    return nil, err
  }
  profile.Preferences = prefsJSON
  return profile, nil
}
