package models

import (
	"time"

	"github.com/google/uuid"
)

// QuestCompletion is append-only evidence that a user finished a quest.
// The unique index is the authoritative guard against double completion.
type QuestCompletion struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_completion_user_quest,priority:1" json:"user_id"`
	QuestID     uint      `gorm:"not null;uniqueIndex:idx_completion_user_quest,priority:2;index" json:"quest_id"`
	GameID      uint      `gorm:"not null;index" json:"game_id"`
	CompletedAt time.Time `gorm:"not null" json:"completed_at"`
	User        User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Quest       Quest     `gorm:"foreignKey:QuestID" json:"-"`
}

// CompletedQuest is a completion joined with its quest and game names.
type CompletedQuest struct {
	CompletionID uint      `json:"-"`
	QuestID      uint      `json:"quest_id"`
	QuestName    string    `json:"quest_name"`
	Rewards      string    `json:"rewards"`
	GameID       uint      `json:"game_id"`
	GameName     string    `json:"game_name"`
	CompletedAt  time.Time `json:"completed_at"`
}
