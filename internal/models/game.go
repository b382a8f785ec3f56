package models

import "time"

// Game is a catalog entry that owns a set of quests. Immutable after seeding.
type Game struct {
	ID     uint    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name   string  `gorm:"size:255;not null" json:"name"`
	Quests []Quest `gorm:"foreignKey:GameID" json:"quests,omitempty"`
}

// Quest is a catalog task. Rewards is free text and is only turned into XP
// when the reward_text award policy is configured.
type Quest struct {
	ID           uint       `gorm:"primaryKey;autoIncrement:false" json:"id"`
	GameID       uint       `gorm:"not null;index" json:"game_id"`
	Name         string     `gorm:"size:255;not null" json:"name"`
	Description  string     `gorm:"type:text" json:"description"`
	Requirements string     `gorm:"type:text" json:"requirements"`
	Instructions string     `gorm:"type:text" json:"instructions"`
	Rewards      string     `gorm:"size:255" json:"rewards"`
	IsDaily      bool       `gorm:"default:false" json:"is_daily"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the quest can no longer be completed at now.
func (q Quest) Expired(now time.Time) bool {
	return q.ExpiresAt != nil && !now.Before(*q.ExpiresAt)
}
