package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/talkbase/conversation-backend/internal/apierr"
  "github.com/talkbase/conversation-backend/internal/services"
)

type MessageHandler struct {
  messageService  services.MessageService
  reactionService services.ReactionService
}

func NewMessageHandler(messageService services.MessageService, reactionService services.ReactionService) *MessageHandler {
  return &MessageHandler{messageService: messageService, reactionService: reactionService}
}

func (mh *MessageHandler) Get(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  messageID, ok := pathID(c, "message")
  if !ok {
    return
  }
  message, err := mh.messageService.Get(c.Request.Context(), userID, messageID)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, message)
}

// React answers 201 when the reaction is new and 200 when an existing
// (message, user, type) row had its comment replaced.
func (mh *MessageHandler) React(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  messageID, ok := pathID(c, "message")
  if !ok {
    return
  }
  var input services.ReactInput
  if err := c.ShouldBindJSON(&input); err != nil {
    RespondError(c, apierr.ValidationField("body", "invalid JSON body"))
    return
  }
  reaction, created, err := mh.reactionService.React(c.Request.Context(), userID, messageID, input)
  if err != nil {
    RespondError(c, err)
    return
  }
  status := http.StatusOK
  if created {
    status = http.StatusCreated
  }
  c.JSON(status, reaction)
}

func (mh *MessageHandler) Reactions(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  messageID, ok := pathID(c, "message")
  if !ok {
    return
  }
  reactions, err := mh.reactionService.List(c.Request.Context(), userID, messageID)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, reactions)
}
