package handlers

import (
  "github.com/gin-gonic/gin"

  "github.com/talkbase/conversation-backend/internal/apierr"
  "github.com/talkbase/conversation-backend/internal/services"
)

type TemplateHandler struct {
  templateService services.TemplateService
}

func NewTemplateHandler(templateService services.TemplateService) *TemplateHandler {
  return &TemplateHandler{templateService: templateService}
}

func (th *TemplateHandler) List(c *gin.Context) {
  templates, err := th.templateService.List(c.Request.Context())
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, templates)
}

func (th *TemplateHandler) Create(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  var input services.CreateTemplateInput
  if err := c.ShouldBindJSON(&input); err != nil {
    RespondError(c, apierr.ValidationField("body", "invalid JSON body"))
    return
  }
  template, err := th.templateService.Create(c.Request.Context(), userID, input)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondCreated(c, template)
}

func (th *TemplateHandler) Use(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  templateID, ok := pathID(c, "template")
  if !ok {
    return
  }
  session, err := th.templateService.Use(c.Request.Context(), userID, templateID)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondCreated(c, session)
}
