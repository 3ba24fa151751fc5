package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/talkbase/conversation-backend/internal/apierr"
  "github.com/talkbase/conversation-backend/internal/services"
)

type AuthHandler struct {
  authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
  return &AuthHandler{authService: authService}
}

func (ah *AuthHandler) Register(c *gin.Context) {
  var input services.RegisterInput
  if err := c.ShouldBindJSON(&input); err != nil {
    RespondError(c, apierr.ValidationField("body", "invalid JSON body"))
    return
  }
  user, err := ah.authService.Register(c.Request.Context(), input)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondCreated(c, gin.H{"user": user})
}

func (ah *AuthHandler) Login(c *gin.Context) {
  var input struct {
    Email    string `json:"email"`
    Password string `json:"password"`
  }
  if err := c.ShouldBindJSON(&input); err != nil {
    RespondError(c, apierr.ValidationField("body", "invalid JSON body"))
    return
  }
  access, refresh, err := ah.authService.Login(c.Request.Context(), input.Email, input.Password)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, gin.H{"access_token": access, "refresh_token": refresh})
}

func (ah *AuthHandler) Refresh(c *gin.Context) {
  var input struct {
    RefreshToken string `json:"refresh_token"`
  }
  if err := c.ShouldBindJSON(&input); err != nil {
    RespondError(c, apierr.ValidationField("body", "invalid JSON body"))
    return
  }
  access, refresh, err := ah.authService.Refresh(c.Request.Context(), input.RefreshToken)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, gin.H{"access_token": access, "refresh_token": refresh})
}

func (ah *AuthHandler) Logout(c *gin.Context) {
  if err := ah.authService.Logout(c.Request.Context()); err != nil {
    RespondError(c, err)
    return
  }
  c.Status(http.StatusNoContent)
}
