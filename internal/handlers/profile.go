package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/talkbase/conversation-backend/internal/apierr"
  "github.com/talkbase/conversation-backend/internal/services"
)

type ProfileHandler struct {
  profileService services.ProfileService
}

func NewProfileHandler(profileService services.ProfileService) *ProfileHandler {
  return &ProfileHandler{profileService: profileService}
}

func (ph *ProfileHandler) Me(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  profile, created, err := ph.profileService.Me(c.Request.Context(), userID)
  if err != nil {
    RespondError(c, err)
    return
  }
  status := http.StatusOK
  if created {
    status = http.StatusCreated
  }
  c.JSON(status, profile)
}

func (ph *ProfileHandler) UpdatePreferences(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  var input struct {
    Preferences map[string]interface{} `json:"preferences"`
  }
  if err := c.ShouldBindJSON(&input); err != nil {
    RespondError(c, apierr.ValidationField("body", "invalid JSON body"))
    return
  }
  profile, err := ph.profileService.UpdatePreferences(c.Request.Context(), userID, input.Preferences)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, profile)
}
