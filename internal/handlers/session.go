package handlers

import (
  "github.com/gin-gonic/gin"

  "github.com/talkbase/conversation-backend/internal/apierr"
  "github.com/talkbase/conversation-backend/internal/services"
)

type SessionHandler struct {
  sessionService   services.SessionService
  messageService   services.MessageService
  analyticsService services.AnalyticsService
}

func NewSessionHandler(
  sessionService services.SessionService,
  messageService services.MessageService,
  analyticsService services.AnalyticsService,
) *SessionHandler {
  return &SessionHandler{
    sessionService:   sessionService,
    messageService:   messageService,
    analyticsService: analyticsService,
  }
}

func (sh *SessionHandler) Create(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  var input services.CreateSessionInput
  if err := c.ShouldBindJSON(&input); err != nil {
    RespondError(c, apierr.ValidationField("body", "invalid JSON body"))
    return
  }
  session, err := sh.sessionService.Create(c.Request.Context(), userID, input)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondCreated(c, session)
}

func (sh *SessionHandler) List(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  page := ParsePage(c)
  query := services.SessionListQuery{
    Status:   c.Query("status"),
    DateFrom: c.Query("date_from"),
    DateTo:   c.Query("date_to"),
    Search:   c.Query("search"),
  }
  sessions, total, err := sh.sessionService.List(c.Request.Context(), userID, query, page.Limit(), page.Offset())
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, NewPaginated(c, page, total, sessions))
}

func (sh *SessionHandler) Get(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  sessionID, ok := pathID(c, "session")
  if !ok {
    return
  }
  session, err := sh.sessionService.Get(c.Request.Context(), userID, sessionID)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, session)
}

func (sh *SessionHandler) AddMessage(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  sessionID, ok := pathID(c, "session")
  if !ok {
    return
  }
  var input services.AppendMessageInput
  if err := c.ShouldBindJSON(&input); err != nil {
    RespondError(c, apierr.ValidationField("body", "invalid JSON body"))
    return
  }
  message, err := sh.messageService.Append(c.Request.Context(), userID, sessionID, input)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondCreated(c, message)
}

func (sh *SessionHandler) Messages(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  sessionID, ok := pathID(c, "session")
  if !ok {
    return
  }
  page := ParsePage(c)
  messages, total, err := sh.messageService.List(c.Request.Context(), userID, sessionID, page.Limit(), page.Offset())
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, NewPaginated(c, page, total, messages))
}

func (sh *SessionHandler) Archive(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  sessionID, ok := pathID(c, "session")
  if !ok {
    return
  }
  status, err := sh.sessionService.Archive(c.Request.Context(), userID, sessionID)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, gin.H{"status": status})
}

func (sh *SessionHandler) Activate(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  sessionID, ok := pathID(c, "session")
  if !ok {
    return
  }
  status, err := sh.sessionService.Activate(c.Request.Context(), userID, sessionID)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, gin.H{"status": status})
}

func (sh *SessionHandler) Stats(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  stats, err := sh.sessionService.Stats(c.Request.Context(), userID)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, stats)
}

func (sh *SessionHandler) Rate(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  sessionID, ok := pathID(c, "session")
  if !ok {
    return
  }
  var input services.RateSessionInput
  if err := c.ShouldBindJSON(&input); err != nil {
    RespondError(c, apierr.ValidationField("body", "invalid JSON body"))
    return
  }
  analytics, err := sh.analyticsService.Rate(c.Request.Context(), userID, sessionID, input)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, analytics)
}

func (sh *SessionHandler) Analytics(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  sessionID, ok := pathID(c, "session")
  if !ok {
    return
  }
  analytics, err := sh.analyticsService.Get(c.Request.Context(), userID, sessionID)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, analytics)
}
