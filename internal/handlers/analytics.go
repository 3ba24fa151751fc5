package handlers

import (
  "github.com/gin-gonic/gin"

  "github.com/talkbase/conversation-backend/internal/services"
)

type AnalyticsHandler struct {
  analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService) *AnalyticsHandler {
  return &AnalyticsHandler{analyticsService: analyticsService}
}

func (ah *AnalyticsHandler) Summary(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  summary, err := ah.analyticsService.Summary(c.Request.Context(), userID)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, summary)
}
