package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UserProfile carries conversation-related user state. The total_* counters
// are derived from session/message rows on read and are never persisted as
// a second source of truth.
type UserProfile struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User        *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true" json:"is_active"`
	Preferences datatypes.JSON `gorm:"type:jsonb;column:preferences" json:"preferences"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`

	TotalConversations int64 `gorm:"-" json:"total_conversations"`
	TotalMessages      int64 `gorm:"-" json:"total_messages"`
}

func (UserProfile) TableName() string { return "user_profile" }
