package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser   = "user"
	RoleAdmin  = "admin"
	RoleSystem = "system"
)

// User owns its XP. CurrentLevel is a cached projection of CurrentXP and is
// only ever written in the same transaction as CurrentXP.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username     string    `gorm:"size:100;not null" json:"username"`
	Email        string    `gorm:"not null;size:255;uniqueIndex:idx_users_email" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         string    `gorm:"size:20;default:'user'" json:"role"`
	CurrentXP    int       `gorm:"column:current_xp;not null;default:0" json:"current_xp"`
	CurrentLevel int       `gorm:"column:current_level;not null;default:0" json:"current_level"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
