package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ReactionType string

const (
	ReactionLike       ReactionType = "like"
	ReactionDislike    ReactionType = "dislike"
	ReactionHelpful    ReactionType = "helpful"
	ReactionNotHelpful ReactionType = "not_helpful"
	ReactionAccurate   ReactionType = "accurate"
	ReactionInaccurate ReactionType = "inaccurate"
)

func ParseReactionType(s string) (ReactionType, error) {
	switch ReactionType(s) {
	case ReactionLike, ReactionDislike, ReactionHelpful, ReactionNotHelpful,
		ReactionAccurate, ReactionInaccurate:
		return ReactionType(s), nil
	}
	return "", fmt.Errorf("unknown reaction type %q", s)
}

// MessageReaction is unique per (message, user, reaction_type); a repeat
// write replaces the comment instead of adding a row.
type MessageReaction struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	MessageID    uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:uq_reaction_message_user_type" json:"message_id"`
	Message      *Message     `gorm:"constraint:OnDelete:CASCADE;foreignKey:MessageID;references:ID" json:"message,omitempty"`
	UserID       uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:uq_reaction_message_user_type" json:"user_id"`
	User         *User        `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ReactionType ReactionType `gorm:"column:reaction_type;type:varchar(20);not null;uniqueIndex:uq_reaction_message_user_type" json:"reaction_type"`
	Comment      string       `gorm:"column:comment" json:"comment"`
	CreatedAt    time.Time    `gorm:"not null" json:"created_at"`
}

func (MessageReaction) TableName() string { return "message_reaction" }
