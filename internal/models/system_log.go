package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SystemLog is one ERROR record persisted by the database log sink. The
// request and quest columns are lifted from well-known slog keys; anything
// else lands in Extra.
type SystemLog struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	Level     string    `gorm:"size:10;not null;index" json:"level"`
	Message   string    `gorm:"type:text" json:"message"`
	Error     string    `gorm:"type:text" json:"error,omitempty"`

	RequestID string `gorm:"size:36;index" json:"request_id,omitempty"`
	Method    string `gorm:"size:10" json:"method,omitempty"`
	Path      string `gorm:"size:255" json:"path,omitempty"`
	LatencyMs int    `json:"latency_ms,omitempty"`

	UserID  *string `gorm:"size:36;index" json:"user_id,omitempty"`
	QuestID *uint   `gorm:"index" json:"quest_id,omitempty"`
	Action  string  `gorm:"size:100;index" json:"action,omitempty"`

	Extra     datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"extra"`
	CreatedAt time.Time      `json:"created_at"`
}
