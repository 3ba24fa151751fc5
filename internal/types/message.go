package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type MessageType string

const (
	MessageTypeUser   MessageType = "user"
	MessageTypeAI     MessageType = "ai"
	MessageTypeSystem MessageType = "system"
)

func ParseMessageType(s string) (MessageType, error) {
	switch MessageType(s) {
	case MessageTypeUser, MessageTypeAI, MessageTypeSystem:
		return MessageType(s), nil
	}
	return "", fmt.Errorf("unknown message type %q", s)
}

type MessageStatus string

const (
	MessageSent       MessageStatus = "sent"
	MessageDelivered  MessageStatus = "delivered"
	MessageRead       MessageStatus = "read"
	MessageProcessing MessageStatus = "processing"
	MessageFailed     MessageStatus = "failed"
)

func ParseMessageStatus(s string) (MessageStatus, error) {
	switch MessageStatus(s) {
	case MessageSent, MessageDelivered, MessageRead, MessageProcessing, MessageFailed:
		return MessageStatus(s), nil
	}
	return "", fmt.Errorf("unknown message status %q", s)
}

type Message struct {
	ID        uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:uq_message_session_seq;index:idx_message_session_type" json:"session_id"`
	Session   *ConversationSession `gorm:"constraint:OnDelete:CASCADE;foreignKey:SessionID;references:ID" json:"session,omitempty"`

	MessageType MessageType   `gorm:"column:message_type;type:varchar(10);not null;index:idx_message_session_type" json:"message_type"`
	Content     string        `gorm:"column:content;not null" json:"content"`
	Status      MessageStatus `gorm:"column:status;type:varchar(20);not null;default:'sent'" json:"status"`

	// SequenceNumber is unique per session; the composite index is what
	// linearizes concurrent appends.
	SequenceNumber int       `gorm:"column:sequence_number;not null;uniqueIndex:uq_message_session_seq" json:"sequence_number"`
	Timestamp      time.Time `gorm:"column:timestamp;not null;index" json:"timestamp"`

	AIModel         string   `gorm:"column:ai_model" json:"ai_model"`
	ResponseTimeMS  *int     `gorm:"column:response_time_ms" json:"response_time_ms,omitempty"`
	TokensUsed      *int     `gorm:"column:tokens_used" json:"tokens_used,omitempty"`
	ConfidenceScore *float64 `gorm:"column:confidence_score" json:"confidence_score,omitempty"`

	Metadata    datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata"`
	Attachments datatypes.JSON `gorm:"type:jsonb;column:attachments" json:"attachments"`

	WordCount      int    `gorm:"column:word_count;not null;default:0" json:"word_count"`
	CharacterCount int    `gorm:"column:character_count;not null;default:0" json:"character_count"`
	Language       string `gorm:"column:language;not null;default:'en'" json:"language"`
}

func (Message) TableName() string { return "message" }
