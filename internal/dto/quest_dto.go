package dto

import (
	"time"

	"github.com/google/uuid"
)

type GameResponse struct {
	ID   uint   `json:"game_id"`
	Name string `json:"game_name"`
}

type QuestSummary struct {
	ID           uint       `json:"quest_id"`
	GameID       uint       `json:"game_id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Requirements string     `json:"requirements"`
	Instructions string     `json:"instructions"`
	Rewards      string     `json:"rewards"`
	IsDaily      bool       `json:"is_daily"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

type CompletedQuestSummary struct {
	ID          uint      `json:"quest_id"`
	Name        string    `json:"name"`
	Rewards     string    `json:"rewards"`
	CompletedAt time.Time `json:"completed_at"`
}

type CompletedGameGroup struct {
	GameID   uint                    `json:"game_id"`
	GameName string                  `json:"game_name"`
	Quests   []CompletedQuestSummary `json:"quests"`
}

type CompletedQuestsResponse struct {
	UserID uuid.UUID            `json:"user_id"`
	Games  []CompletedGameGroup `json:"games"`
}

type CompletionResult struct {
	QuestID     uint      `json:"quest_id"`
	GameID      uint      `json:"game_id"`
	XPAwarded   int       `json:"xp_awarded"`
	NewXP       int       `json:"new_xp"`
	NewLevel    int       `json:"new_level"`
	LeveledUp   bool      `json:"leveled_up"`
	CompletedAt time.Time `json:"completed_at"`
}
