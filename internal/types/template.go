package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ConversationTemplate is an immutable blueprint for new sessions; only
// usage_count moves after creation, always via an atomic increment.
type ConversationTemplate struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string         `gorm:"column:name;uniqueIndex;not null" json:"name"`
	Description  string         `gorm:"column:description" json:"description"`
	Category     string         `gorm:"column:category;not null;index" json:"category"`
	TemplateData datatypes.JSON `gorm:"type:jsonb;column:template_data" json:"template_data"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true" json:"is_active"`
	UsageCount   int            `gorm:"column:usage_count;not null;default:0" json:"usage_count"`
	CreatedByID  *uuid.UUID     `gorm:"type:uuid;column:created_by_id" json:"created_by_id,omitempty"`
	CreatedBy    *User          `gorm:"constraint:OnDelete:SET NULL;foreignKey:CreatedByID;references:ID" json:"created_by,omitempty"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
}

func (ConversationTemplate) TableName() string { return "conversation_template" }
