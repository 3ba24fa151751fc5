package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/talkbase/conversation-backend/internal/apierr"
  "github.com/talkbase/conversation-backend/internal/requestdata"
)

type APIError struct {
  Message string            `json:"message"`
  Code    string            `json:"code,omitempty"`
  Fields  map[string]string `json:"fields,omitempty"`
}

type ErrorEnvelope struct {
  Error APIError `json:"error"`
}

// RespondError translates a service error into the wire envelope using the
// apierr taxonomy; anything unrecognized becomes a 500.
func RespondError(c *gin.Context, err error) {
  ae := apierr.From(err)
  c.JSON(ae.Status, ErrorEnvelope{
    Error: APIError{
      Message: ae.Error(),
      Code:    ae.Code,
      Fields:  ae.Fields,
    },
  })
}

func RespondOK(c *gin.Context, payload any) {
  c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
  c.JSON(http.StatusCreated, payload)
}

// currentUserID pulls the authenticated caller out of the request context.
// The auth middleware guarantees it is set on protected routes.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    c.JSON(http.StatusUnauthorized, ErrorEnvelope{
      Error: APIError{Message: "not authenticated", Code: "unauthorized"},
    })
    return uuid.Nil, false
  }
  return rd.UserID, true
}

// pathID parses the :id path parameter, answering 404 (not 400) on garbage
// so unguessable ids and malformed ids are indistinguishable.
func pathID(c *gin.Context, what string) (uuid.UUID, bool) {
  id, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, apierr.NotFound(what))
    return uuid.Nil, false
  }
  return id, true
}
