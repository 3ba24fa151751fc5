package types

import (
	"time"

	"github.com/google/uuid"
)

// ConversationAnalytics is one-to-one with a session and maintained inside
// the append transaction, so its counters never drift from the messages.
type ConversationAnalytics struct {
	ID        uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex" json:"session_id"`
	Session   *ConversationSession `gorm:"constraint:OnDelete:CASCADE;foreignKey:SessionID;references:ID" json:"session,omitempty"`

	TotalDurationSeconds int      `gorm:"column:total_duration_seconds;not null;default:0" json:"total_duration_seconds"`
	AvgUserResponseTime  *float64 `gorm:"column:avg_user_response_time" json:"avg_user_response_time,omitempty"`
	AvgAIResponseTime    *float64 `gorm:"column:avg_ai_response_time" json:"avg_ai_response_time,omitempty"`

	TotalUserWords      int `gorm:"column:total_user_words;not null;default:0" json:"total_user_words"`
	TotalAIWords        int `gorm:"column:total_ai_words;not null;default:0" json:"total_ai_words"`
	TotalUserCharacters int `gorm:"column:total_user_characters;not null;default:0" json:"total_user_characters"`
	TotalAICharacters   int `gorm:"column:total_ai_characters;not null;default:0" json:"total_ai_characters"`

	UserMessageCount   int `gorm:"column:user_message_count;not null;default:0" json:"user_message_count"`
	AIMessageCount     int `gorm:"column:ai_message_count;not null;default:0" json:"ai_message_count"`
	SystemMessageCount int `gorm:"column:system_message_count;not null;default:0" json:"system_message_count"`

	AvgConfidenceScore *float64 `gorm:"column:avg_confidence_score" json:"avg_confidence_score,omitempty"`
	FailedMessageCount int      `gorm:"column:failed_message_count;not null;default:0" json:"failed_message_count"`

	SessionRating    *int   `gorm:"column:session_rating" json:"session_rating,omitempty"`
	UserSatisfaction string `gorm:"column:user_satisfaction" json:"user_satisfaction"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ConversationAnalytics) TableName() string { return "conversation_analytics" }
