package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
	SessionArchived  SessionStatus = "archived"
)

// ParseSessionStatus rejects unknown values at the boundary so arbitrary
// strings never reach the store.
func ParseSessionStatus(s string) (SessionStatus, error) {
	switch SessionStatus(s) {
	case SessionActive, SessionPaused, SessionCompleted, SessionArchived:
		return SessionStatus(s), nil
	}
	return "", fmt.Errorf("unknown session status %q", s)
}

type ConversationSession struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID     `gorm:"type:uuid;not null;index:idx_session_user" json:"user_id"`
	User        *User         `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Title       string        `gorm:"column:title" json:"title"`
	Description string        `gorm:"column:description" json:"description"`
	Status      SessionStatus `gorm:"column:status;type:varchar(20);not null;default:'active';index:idx_session_status" json:"status"`

	MessageCount   int       `gorm:"column:message_count;not null;default:0" json:"message_count"`
	LastActivityAt time.Time `gorm:"column:last_activity_at;not null;index" json:"last_activity_at"`

	AIModelVersion  string         `gorm:"column:ai_model_version" json:"ai_model_version"`
	SessionContext  datatypes.JSON `gorm:"type:jsonb;column:session_context" json:"session_context"`
	Tags            datatypes.JSON `gorm:"type:jsonb;column:tags" json:"tags"`
	AvgResponseTime *float64       `gorm:"column:avg_response_time" json:"avg_response_time,omitempty"`
	TotalTokensUsed int            `gorm:"column:total_tokens_used;not null;default:0" json:"total_tokens_used"`

	CreatedAt time.Time `gorm:"not null;index:idx_session_user" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ConversationSession) TableName() string { return "conversation_session" }
